package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Config wires the router's handlers.
type Config struct {
	Catalog    *CatalogHandler
	Simulation http.HandlerFunc // websocket upgrade handler
}

// NewRouter builds the HTTP surface: catalog routes under /api plus the
// simulation websocket endpoint.
func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	api := router.Group("/api")
	{
		api.GET("/instruments", cfg.Catalog.ListInstruments)
		api.GET("/instruments/:symbol", cfg.Catalog.GetInstrument)
		api.GET("/data/:symbol", cfg.Catalog.GetInstrumentData)
		api.GET("/trades", cfg.Catalog.ListTrades)
	}

	if cfg.Simulation != nil {
		router.GET("/ws/simulation", gin.WrapF(cfg.Simulation))
	}

	return router
}
