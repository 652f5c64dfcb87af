package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"wheeltracker/models"
)

// Format names a bulk export encoding
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a format name or file extension
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", raw)
	}
}

// amount is a decimal kept as text so values survive a round trip exactly.
// JSON numbers are accepted on input.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = amount(n.String())
	return nil
}

// recordDoc is the exported shape of a round record
type recordDoc struct {
	Timestamp  string            `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Result     string            `json:"result" yaml:"result"`
	Multiplier amount            `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Stakes     map[string]amount `json:"stakes,omitempty" yaml:"stakes,omitempty"`
}

func toDoc(r models.RoundRecord) recordDoc {
	doc := recordDoc{
		Result:     r.WinningSegment.String(),
		Multiplier: amount(r.ExtraMultiplier.String()),
	}
	if !r.Timestamp.IsZero() {
		doc.Timestamp = r.Timestamp.Format(time.RFC3339Nano)
	}
	if len(r.Stakes) > 0 {
		doc.Stakes = make(map[string]amount, len(r.Stakes))
		for seg, value := range r.Stakes {
			doc.Stakes[seg.String()] = amount(value.String())
		}
	}
	return doc
}

func (d recordDoc) record() (models.RoundRecord, error) {
	if strings.TrimSpace(d.Result) == "" {
		return models.RoundRecord{}, fmt.Errorf("missing required field \"result\"")
	}
	winner, err := models.ParseSegment(d.Result)
	if err != nil {
		return models.RoundRecord{}, err
	}

	var at time.Time
	if d.Timestamp != "" {
		at, err = time.Parse(time.RFC3339Nano, d.Timestamp)
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("timestamp: %w", err)
		}
	}

	record := models.NewRoundRecord(at, winner, models.Stakes{})
	if d.Multiplier != "" {
		record.ExtraMultiplier, err = decimal.NewFromString(string(d.Multiplier))
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("multiplier: %w", err)
		}
	}

	for raw, value := range d.Stakes {
		seg, err := models.ParseSegment(raw)
		if err != nil {
			return models.RoundRecord{}, err
		}
		stake, err := decimal.NewFromString(string(value))
		if err != nil {
			return models.RoundRecord{}, fmt.Errorf("stake on %s: %w", seg, err)
		}
		record.Stakes[seg] = stake
	}

	if err := record.Validate(); err != nil {
		return models.RoundRecord{}, err
	}
	return record, nil
}

// EncodeRecords writes sessions as a map of session name to record list
func EncodeRecords(w io.Writer, format Format, sessions map[string][]models.RoundRecord) error {
	docs := make(map[string][]recordDoc, len(sessions))
	for name, records := range sessions {
		list := make([]recordDoc, 0, len(records))
		for _, r := range records {
			list = append(list, toDoc(r))
		}
		docs[name] = list
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode json export: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return fmt.Errorf("failed to encode yaml export: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported record format %q", format)
	}
}

// DecodeBulk reads either a session map or a bare record list
func DecodeBulk(r io.Reader, format Format) (models.BulkImport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.BulkImport{}, fmt.Errorf("failed to read import: %w", err)
	}

	var (
		sessions map[string][]recordDoc
		list     []recordDoc
		isList   bool
	)

	switch format {
	case FormatJSON:
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 {
			return models.BulkImport{}, &models.ImportError{Reason: "file is empty"}
		}
		isList = trimmed[0] == '['
		if isList {
			err = json.Unmarshal(trimmed, &list)
		} else {
			err = json.Unmarshal(trimmed, &sessions)
		}
	case FormatYAML:
		var root yaml.Node
		if err := yaml.Unmarshal(data, &root); err != nil {
			return models.BulkImport{}, &models.ImportError{Reason: err.Error()}
		}
		if len(root.Content) == 0 {
			return models.BulkImport{}, &models.ImportError{Reason: "file is empty"}
		}
		doc := root.Content[0]
		isList = doc.Kind == yaml.SequenceNode
		if isList {
			err = doc.Decode(&list)
		} else {
			err = doc.Decode(&sessions)
		}
	default:
		return models.BulkImport{}, fmt.Errorf("unsupported record format %q", format)
	}
	if err != nil {
		return models.BulkImport{}, &models.ImportError{Reason: err.Error()}
	}

	if isList {
		records, err := docsToRecords(list)
		if err != nil {
			return models.BulkImport{}, err
		}
		return models.BulkImport{Records: records}, nil
	}

	names := make([]string, 0, len(sessions))
	for name := range sessions {
		names = append(names, name)
	}
	sort.Strings(names)

	bulk := models.BulkImport{Sessions: make(map[string][]models.RoundRecord, len(sessions))}
	for _, name := range names {
		records, err := docsToRecords(sessions[name])
		if err != nil {
			return models.BulkImport{}, fmt.Errorf("session %q: %w", name, err)
		}
		bulk.Sessions[name] = records
	}
	return bulk, nil
}

func docsToRecords(docs []recordDoc) ([]models.RoundRecord, error) {
	records := make([]models.RoundRecord, 0, len(docs))
	for i, doc := range docs {
		record, err := doc.record()
		if err != nil {
			return nil, &models.ImportError{Line: i + 1, Reason: err.Error()}
		}
		records = append(records, record)
	}
	return records, nil
}
