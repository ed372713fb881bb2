package domain

import "time"

// CommandType enumerates the closed set of inbound session commands.
type CommandType string

const (
	CmdStart CommandType = "START"
	CmdBuy   CommandType = "BUY"
	CmdSell  CommandType = "SELL"
	CmdStop  CommandType = "STOP"
)

// Command is a validated inbound client command. The transport layer parses
// and validates the raw message before handing a Command to the session, so
// the engine never sees unparsed input. Missing fields carry the documented
// defaults; unknown fields are dropped at the boundary.
type Command struct {
	Type     CommandType
	Date     *time.Time // START only: replay date; nil selects the earliest date present
	Speed    float64    // START only: playback speed multiplier (default 1.0)
	Quantity float64    // BUY/SELL only: order quantity (default 1)
}
