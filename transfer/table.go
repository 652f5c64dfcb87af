package transfer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wheeltracker/models"
)

const stakeColumnPrefix = "stake_"

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// TableOptions control how tabular rows become round records
type TableOptions struct {
	// Now stamps rows without a timestamp column or value. Defaults to time.Now.
	Now func() time.Time
}

// tableColumns holds the header positions of a tabular import, -1 when absent
type tableColumns struct {
	result     int
	stake      int
	multiplier int
	timestamp  int
	betOn      int
	stakes     map[models.Segment]int
}

// ReadTable parses a CSV export of rounds. Only the result column is
// required. Missing stake and multiplier values default to 1, and the stake
// is placed on bet_on when present, otherwise on the result segment.
// Per-segment stake_<segment> columns take precedence over both.
func ReadTable(r io.Reader, opts TableOptions) ([]models.RoundRecord, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &models.ImportError{Reason: "file is empty"}
	}
	if err != nil {
		return nil, &models.ImportError{Line: 1, Reason: err.Error()}
	}

	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	records := make([]models.RoundRecord, 0)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &models.ImportError{Line: parseErr.Line, Reason: parseErr.Err.Error()}
			}
			return nil, &models.ImportError{Reason: err.Error()}
		}
		line, _ := reader.FieldPos(0)
		if isBlank(row) {
			continue
		}

		record, err := cols.record(row, now)
		if err != nil {
			return nil, &models.ImportError{Line: line, Reason: err.Error()}
		}
		records = append(records, record)
	}

	return records, nil
}

func parseHeader(header []string) (*tableColumns, error) {
	cols := &tableColumns{
		result:     -1,
		stake:      -1,
		multiplier: -1,
		timestamp:  -1,
		betOn:      -1,
		stakes:     make(map[models.Segment]int),
	}

	for i, raw := range header {
		if i == 0 {
			// Spreadsheet exports may start with a UTF-8 byte order mark
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case name == "result":
			cols.result = i
		case name == "stake":
			cols.stake = i
		case name == "multiplier":
			cols.multiplier = i
		case name == "timestamp":
			cols.timestamp = i
		case name == "bet_on":
			cols.betOn = i
		case strings.HasPrefix(name, stakeColumnPrefix):
			seg, err := models.ParseSegment(strings.TrimPrefix(name, stakeColumnPrefix))
			if err != nil {
				return nil, &models.ImportError{Line: 1, Reason: fmt.Sprintf("column %q: %v", raw, err)}
			}
			if _, dup := cols.stakes[seg]; dup {
				return nil, &models.ImportError{Line: 1, Reason: fmt.Sprintf("duplicate stake column for %s", seg)}
			}
			cols.stakes[seg] = i
		}
	}

	if cols.result < 0 {
		return nil, &models.ImportError{Line: 1, Reason: "missing required column \"result\""}
	}
	return cols, nil
}

func (c *tableColumns) record(row []string, now func() time.Time) (models.RoundRecord, error) {
	resultCell := cell(row, c.result)
	if resultCell == "" {
		return models.RoundRecord{}, fmt.Errorf("result is empty")
	}
	winner, err := models.ParseSegment(resultCell)
	if err != nil {
		return models.RoundRecord{}, err
	}

	extra, err := decimalOr(cell(row, c.multiplier), decimal.NewFromInt(1))
	if err != nil {
		return models.RoundRecord{}, fmt.Errorf("multiplier: %w", err)
	}

	at, err := parseTimestamp(cell(row, c.timestamp), now)
	if err != nil {
		return models.RoundRecord{}, err
	}

	stakes, err := c.stakesFor(row, winner)
	if err != nil {
		return models.RoundRecord{}, err
	}

	record := models.NewRoundRecord(at, winner, stakes)
	record.ExtraMultiplier = extra
	if err := record.Validate(); err != nil {
		return models.RoundRecord{}, err
	}
	return record, nil
}

func (c *tableColumns) stakesFor(row []string, winner models.Segment) (models.Stakes, error) {
	if len(c.stakes) > 0 {
		stakes := make(models.Stakes, len(c.stakes))
		for seg, idx := range c.stakes {
			// Empty per-segment cells mean nothing was placed there
			amount, err := decimalOr(cell(row, idx), decimal.Zero)
			if err != nil {
				return nil, fmt.Errorf("stake on %s: %w", seg, err)
			}
			if !amount.IsZero() {
				stakes[seg] = amount
			}
		}
		return stakes, nil
	}

	amount, err := decimalOr(cell(row, c.stake), decimal.NewFromInt(1))
	if err != nil {
		return nil, fmt.Errorf("stake: %w", err)
	}

	target := winner
	if raw := cell(row, c.betOn); raw != "" {
		target, err = models.ParseSegment(raw)
		if err != nil {
			return nil, err
		}
	}
	return models.SingleStake(target, amount), nil
}

func parseTimestamp(raw string, now func() time.Time) (time.Time, error) {
	if raw == "" {
		return now(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func decimalOr(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	if raw == "" {
		return fallback, nil
	}
	return decimal.NewFromString(raw)
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
