package wsserver

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"
)

// inboundMessage is the loose wire shape of a client command. Unknown fields
// are dropped by the JSON decoder; missing fields take the documented
// defaults during validation.
type inboundMessage struct {
	Command  string  `json:"command"`
	Date     string  `json:"date"`
	Speed    float64 `json:"speed"`
	Quantity float64 `json:"quantity"`
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseCommand validates one raw inbound message into the closed command
// union the engine accepts. Everything malformed is rejected here so the
// session controller never sees unparsed input.
func parseCommand(raw []byte) (domain.Command, error) {
	var msg inboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Command{}, fmt.Errorf("unparsable message: %w", ports.ErrMalformedCommand)
	}

	name := strings.ToUpper(strings.TrimSpace(msg.Command))
	switch name {
	case string(domain.CmdStart):
		cmd := domain.Command{Type: domain.CmdStart, Speed: msg.Speed}
		if cmd.Speed <= 0 {
			cmd.Speed = 1.0
		}
		if msg.Date != "" {
			date, err := parseDate(msg.Date)
			if err != nil {
				return domain.Command{}, fmt.Errorf("invalid date '%s': %w", msg.Date, ports.ErrMalformedCommand)
			}
			cmd.Date = &date
		}
		return cmd, nil

	case string(domain.CmdBuy), string(domain.CmdSell):
		cmd := domain.Command{Type: domain.CommandType(name), Quantity: msg.Quantity}
		if cmd.Quantity <= 0 {
			cmd.Quantity = 1
		}
		return cmd, nil

	case string(domain.CmdStop):
		return domain.Command{Type: domain.CmdStop}, nil

	default:
		return domain.Command{}, fmt.Errorf("unknown command '%s': %w", msg.Command, ports.ErrMalformedCommand)
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date")
}
