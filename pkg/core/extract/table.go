package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/locate"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// TableSource serves a pre-structured financial table uploaded by the user.
// It takes precedence over text extraction.
type TableSource struct {
	name   string
	series map[Label]align.TimeSeries
}

var _ SeriesSource = (*TableSource)(nil)

// NewTableSource wraps already-structured series.
func NewTableSource(name string, series map[Label]align.TimeSeries) *TableSource {
	if series == nil {
		series = map[Label]align.TimeSeries{}
	}
	return &TableSource{name: name, series: series}
}

// Name is "table:<upload name>", so entries record which file they came from.
func (t *TableSource) Name() string {
	if t.name == "" {
		return "table"
	}
	return "table:" + t.name
}

// FetchSeries implements SeriesSource.
func (t *TableSource) FetchSeries(_ context.Context, label Label) (Lookup, error) {
	return Lookup{Series: t.series[label]}, nil
}

// Labels lists the labels the table provides.
func (t *TableSource) Labels() []Label {
	var out []Label
	for _, l := range Required {
		if len(t.series[l]) > 0 {
			out = append(out, l)
		}
	}
	return out
}

// ParseTable reads a structured table. CSV (".csv") is wide format: a date
// column followed by one column per label. Anything else is read as JSON,
// leniently: broken JSON is repaired and Hjson is accepted. JSON values may
// be a number, a numeric string, a list of numbers, or a list of
// {"date": ..., "value": ...} objects.
func ParseTable(name string, data []byte) (*TableSource, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("table %q is empty", name)
	}
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case ext == ".json" || ext == ".hjson" || trimmed[0] == '{':
		return parseJSONTable(name, string(trimmed), ext == ".hjson")
	default:
		return parseCSVTable(name, trimmed)
	}
}

func parseJSONTable(name, input string, preferHjson bool) (*TableSource, error) {
	var raw map[string]json.RawMessage
	if err := decodeLenient(input, &raw, preferHjson); err != nil {
		return nil, fmt.Errorf("table %q: %w", name, err)
	}

	series := make(map[Label]align.TimeSeries)
	for key, msg := range raw {
		label, ok := ParseLabel(key)
		if !ok {
			slog.Debug("Ignoring unknown table column.", "table", name, "column", key)
			continue
		}
		s, err := decodeSeries(msg)
		if err != nil {
			return nil, fmt.Errorf("table %q, %s: %w", name, label, err)
		}
		series[label] = s.Sorted()
	}
	return NewTableSource(name, series), nil
}

type tablePoint struct {
	Date  string          `json:"date"`
	Value json.RawMessage `json:"value"`
}

func decodeSeries(msg json.RawMessage) (align.TimeSeries, error) {
	if v, ok, err := decodeScalar(msg); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return align.TimeSeries{{Date: align.Unknown, Value: v}}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil, fmt.Errorf("expected number, string or list")
	}
	out := make(align.TimeSeries, 0, len(items))
	for _, item := range items {
		if v, ok, err := decodeScalar(item); ok || err != nil {
			if err != nil {
				return nil, err
			}
			out = append(out, align.DatedValue{Date: align.Unknown, Value: v})
			continue
		}
		var p tablePoint
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("invalid series point: %s", string(item))
		}
		v, ok, err := decodeScalar(p.Value)
		if err != nil || !ok {
			return nil, fmt.Errorf("invalid value in point: %s", string(item))
		}
		out = append(out, align.DatedValue{Date: normalizeDate(p.Date), Value: v})
	}
	return out, nil
}

// decodeScalar reads a JSON number or numeric string. ok is false when msg
// is neither; null reads as "not a scalar".
func decodeScalar(msg json.RawMessage) (float64, bool, error) {
	if t := bytes.TrimSpace(msg); len(t) == 0 || string(t) == "null" {
		return 0, false, nil
	}
	var f float64
	if err := json.Unmarshal(msg, &f); err == nil {
		return f, true, nil
	}
	var s string
	if err := json.Unmarshal(msg, &s); err == nil {
		v, perr := locate.ParseNumber(s)
		if perr != nil {
			return 0, false, perr
		}
		return v, true, nil
	}
	return 0, false, nil
}

// decodeLenient tries strict JSON, then repaired JSON, then Hjson. Hjson
// goes first for .hjson files since repair would rewrite their comments.
func decodeLenient(input string, out any, preferHjson bool) error {
	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	if preferHjson {
		if err := decodeHjson(input, out); err == nil {
			return nil
		}
	}

	if repaired, err := jsonrepair.RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}

	if err := decodeHjson(input, out); err == nil {
		return nil
	}

	return fmt.Errorf("unparseable table: all parsing strategies failed")
}

func decodeHjson(input string, out any) error {
	var generic interface{}
	if err := hjson.Unmarshal([]byte(input), &generic); err != nil {
		return err
	}
	b, err := json.Marshal(generic)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func parseCSVTable(name string, data []byte) (*TableSource, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("table %q: invalid CSV: %w", name, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("table %q: no data rows", name)
	}

	header := rows[0]
	cols := make(map[int]Label)
	for i, h := range header {
		if i == 0 {
			continue
		}
		if l, ok := ParseLabel(h); ok {
			cols[i] = l
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q: no known line-item columns in header %v", name, header)
	}

	series := make(map[Label]align.TimeSeries)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		date := normalizeDate(row[0])
		for i, l := range cols {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			v, err := locate.ParseNumber(row[i])
			if err != nil {
				continue
			}
			series[l] = append(series[l], align.DatedValue{Date: date, Value: v})
		}
	}
	for l, s := range series {
		series[l] = s.Sorted()
	}
	return NewTableSource(name, series), nil
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006", "2006-01", "2006", time.RFC3339}

// normalizeDate maps common layouts to YYYY-MM-DD; unparseable input is
// "Unknown".
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return align.Unknown
}
