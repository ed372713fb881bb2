package replay

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tradeshift/internal/domain"
	"tradeshift/internal/ports"
)

// Dataset is an in-memory historical bar dataset loaded from a CSV file.
// Rows are immutable after load, so one Dataset is safe to share across
// concurrently running sessions; each session drives its own iterator.
type Dataset struct {
	symbol string
	bars   []domain.Bar
	logger ports.Logger
}

// Timestamp layouts accepted in the date/datetime column.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// LoadDataset reads a CSV dataset with at least open/high/low/close columns
// and one of date, datetime or open_time (all case-insensitive). Returns
// ports.ErrDataUnavailable when the file does not exist, letting the caller
// fall back to the synthetic generator.
func LoadDataset(path, symbol string, logger ports.Logger) (*Dataset, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for dataset")
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset file '%s': %w", path, ports.ErrDataUnavailable)
		}
		return nil, fmt.Errorf("failed to open dataset '%s': %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset header '%s': %w", path, err)
	}

	// Normalize column names to lowercase so NIFTY-style exports with mixed
	// case headers load unchanged.
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	timeCol, ok := findColumn(cols, "date", "datetime", "open_time")
	if !ok {
		return nil, fmt.Errorf("dataset '%s' has no date or datetime column: %w", path, ports.ErrInvalidRequest)
	}
	for _, required := range []string{"open", "high", "low", "close"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("dataset '%s' is missing column '%s': %w", path, required, ports.ErrInvalidRequest)
		}
	}

	var bars []domain.Bar
	line := 1
	for {
		row, err := reader.Read()
		if err != nil {
			break
		}
		line++

		bar, err := parseRow(row, cols, timeCol, symbol)
		if err != nil {
			logger.Warn(context.Background(), "Skipping malformed dataset row", map[string]interface{}{
				"path": path, "line": line, "reason": err.Error(),
			})
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("dataset '%s' contains no usable rows: %w", path, ports.ErrDataUnavailable)
	}

	logger.Info(context.Background(), "Historical dataset loaded", map[string]interface{}{
		"path": path, "symbol": symbol, "rows": len(bars),
	})
	return &Dataset{symbol: symbol, bars: bars, logger: logger}, nil
}

func findColumn(cols map[string]int, names ...string) (int, bool) {
	for _, name := range names {
		if idx, ok := cols[name]; ok {
			return idx, true
		}
	}
	return 0, false
}

func parseRow(row []string, cols map[string]int, timeCol int, symbol string) (domain.Bar, error) {
	if timeCol >= len(row) {
		return domain.Bar{}, fmt.Errorf("row too short")
	}

	ts, err := parseTimestamp(row[timeCol])
	if err != nil {
		return domain.Bar{}, err
	}

	bar := domain.Bar{Timestamp: ts, Symbol: symbol}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &bar.Open},
		{"high", &bar.High},
		{"low", &bar.Low},
		{"close", &bar.Close},
	}
	for _, f := range fields {
		idx := cols[f.name]
		if idx >= len(row) {
			return domain.Bar{}, fmt.Errorf("row too short for column '%s'", f.name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("invalid %s value '%s'", f.name, row[idx])
		}
		*f.dst = v
	}

	// Volume is optional.
	if idx, ok := cols["volume"]; ok && idx < len(row) {
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64); err == nil {
			bar.Volume = v
		}
	}
	return bar, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp '%s'", raw)
}

// Historical reports that the dataset is backed by real rows.
func (d *Dataset) Historical() bool { return true }

// Symbol returns the instrument symbol the dataset was loaded for.
func (d *Dataset) Symbol() string { return d.symbol }

// Rows returns the total number of loaded bars.
func (d *Dataset) Rows() int { return len(d.bars) }

// Bounds returns the timestamps of the first and last loaded bar.
func (d *Dataset) Bounds() (time.Time, time.Time) {
	return d.bars[0].Timestamp, d.bars[len(d.bars)-1].Timestamp
}

// Slice returns up to limit bars starting at offset, for the paginated HTTP
// data route. Out-of-range offsets yield an empty slice.
func (d *Dataset) Slice(offset, limit int) []domain.Bar {
	if offset < 0 || offset >= len(d.bars) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(d.bars) {
		end = len(d.bars)
	}
	out := make([]domain.Bar, end-offset)
	copy(out, d.bars[offset:end])
	return out
}

// Seek returns an iterator over the bars whose calendar date matches the
// given date exactly. A nil date selects the earliest date present in the
// dataset. Returns ports.ErrNoDataForDate when nothing matches.
func (d *Dataset) Seek(date *time.Time) (ports.BarIterator, error) {
	target := d.earliestDate()
	if date != nil {
		target = dateOnly(*date)
	}

	var window []domain.Bar
	for _, bar := range d.bars {
		if dateOnly(bar.Timestamp).Equal(target) {
			window = append(window, bar)
		}
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("date %s: %w", target.Format("2006-01-02"), ports.ErrNoDataForDate)
	}
	return &windowIterator{bars: window}, nil
}

func (d *Dataset) earliestDate() time.Time {
	earliest := dateOnly(d.bars[0].Timestamp)
	for _, bar := range d.bars[1:] {
		if day := dateOnly(bar.Timestamp); day.Before(earliest) {
			earliest = day
		}
	}
	return earliest
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// windowIterator walks one replay window in row order, wrapping back to the
// first row on exhaustion so replay never terminates on its own.
type windowIterator struct {
	bars []domain.Bar
	idx  int
}

func (it *windowIterator) Next() domain.Bar {
	bar := it.bars[it.idx]
	it.idx = (it.idx + 1) % len(it.bars)
	return bar
}

func (it *windowIterator) Len() int { return len(it.bars) }
