package wsserver

import (
	"testing"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    domain.Command
		wantErr bool
	}{
		{
			name: "start with defaults",
			raw:  `{"command":"START"}`,
			want: domain.Command{Type: domain.CmdStart, Speed: 1.0},
		},
		{
			name: "start with speed and date",
			raw:  `{"command":"START","speed":10,"date":"2024-01-15"}`,
			want: domain.Command{Type: domain.CmdStart, Speed: 10, Date: timePtr(2024, 1, 15)},
		},
		{
			name: "start lowercase command",
			raw:  `{"command":"start","speed":2}`,
			want: domain.Command{Type: domain.CmdStart, Speed: 2},
		},
		{
			name: "buy with quantity",
			raw:  `{"command":"BUY","quantity":5}`,
			want: domain.Command{Type: domain.CmdBuy, Quantity: 5},
		},
		{
			name: "buy default quantity",
			raw:  `{"command":"BUY"}`,
			want: domain.Command{Type: domain.CmdBuy, Quantity: 1},
		},
		{
			name: "sell ignores unknown fields",
			raw:  `{"command":"SELL","quantity":3,"leverage":10,"foo":"bar"}`,
			want: domain.Command{Type: domain.CmdSell, Quantity: 3},
		},
		{
			name: "stop",
			raw:  `{"command":"STOP"}`,
			want: domain.Command{Type: domain.CmdStop},
		},
		{
			name:    "unknown command",
			raw:     `{"command":"HEDGE"}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			raw:     `{"command":`,
			wantErr: true,
		},
		{
			name:    "invalid date",
			raw:     `{"command":"START","date":"tomorrow"}`,
			wantErr: true,
		},
		{
			name:    "negative speed falls back to default",
			raw:     `{"command":"START","speed":-4}`,
			want:    domain.Command{Type: domain.CmdStart, Speed: 1.0},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommand([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrMalformedCommand)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Speed, got.Speed)
			assert.Equal(t, tt.want.Quantity, got.Quantity)
			if tt.want.Date == nil {
				assert.Nil(t, got.Date)
			} else {
				require.NotNil(t, got.Date)
				assert.True(t, tt.want.Date.Equal(*got.Date))
			}
		})
	}
}

func TestParseCommand_RFC3339Date(t *testing.T) {
	got, err := parseCommand([]byte(`{"command":"START","date":"2024-01-15T00:00:00Z"}`))
	require.NoError(t, err)
	require.NotNil(t, got.Date)
	assert.Equal(t, 2024, got.Date.Year())
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
