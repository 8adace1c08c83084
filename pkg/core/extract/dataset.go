package extract

import (
	"encoding/json"
	"fmt"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/locate"
)

// SourceOverride marks entries entered manually.
const SourceOverride = "override"

// Entry is the resolved state of one label.
type Entry struct {
	Series   align.TimeSeries `json:"series"`
	Source   string           `json:"source,omitempty"`   // which SeriesSource produced it
	Contexts []string         `json:"contexts,omitempty"` // diagnostics when Series is empty
	HintLine int              `json:"hint_line,omitempty"`
}

// Empty reports whether the entry holds no observation.
func (e *Entry) Empty() bool { return e == nil || len(e.Series) == 0 }

// Dataset maps every required label to its entry. Absence of data is an
// empty entry, never a missing key.
type Dataset struct {
	order   []Label
	entries map[Label]*Entry
}

// NewDataset creates a dataset holding an empty entry for each label.
func NewDataset(labels []Label) *Dataset {
	d := &Dataset{entries: make(map[Label]*Entry, len(labels))}
	for _, l := range labels {
		if _, dup := d.entries[l]; dup {
			continue
		}
		d.order = append(d.order, l)
		d.entries[l] = &Entry{Series: align.TimeSeries{}}
	}
	return d
}

// Labels returns the dataset keys in insertion order.
func (d *Dataset) Labels() []Label {
	out := make([]Label, len(d.order))
	copy(out, d.order)
	return out
}

// Entry returns the entry for a label.
func (d *Dataset) Entry(l Label) (*Entry, bool) {
	e, ok := d.entries[l]
	return e, ok
}

// Series returns the label's series; empty when unresolved or unknown.
func (d *Dataset) Series(l Label) align.TimeSeries {
	if e, ok := d.entries[l]; ok && e != nil {
		return e.Series
	}
	return nil
}

// Set replaces the entry of a label that belongs to the dataset.
func (d *Dataset) Set(l Label, e *Entry) error {
	if _, ok := d.entries[l]; !ok {
		return fmt.Errorf("label %q is not part of this dataset", l)
	}
	if e.Series == nil {
		e.Series = align.TimeSeries{}
	}
	d.entries[l] = e
	return nil
}

// Missing lists labels whose series is empty, in dataset order.
func (d *Dataset) Missing() []Label {
	var out []Label
	for _, l := range d.order {
		if d.entries[l].Empty() {
			out = append(out, l)
		}
	}
	return out
}

// ApplyOverride parses a manually entered value with the same normalization
// as automatic extraction and stores it as a single observation. Malformed
// input returns *InvalidOverrideError and leaves the entry untouched.
func (d *Dataset) ApplyOverride(l Label, raw string) error {
	prev, ok := d.entries[l]
	if !ok {
		return &InvalidOverrideError{Label: l, Input: raw, Err: fmt.Errorf("unknown label")}
	}
	val, err := locate.ParseNumber(raw)
	if err != nil {
		return &InvalidOverrideError{Label: l, Input: raw, Err: err}
	}
	d.entries[l] = &Entry{
		Series:   align.TimeSeries{{Date: align.Unknown, Value: val}},
		Source:   SourceOverride,
		Contexts: prev.Contexts,
	}
	return nil
}

// MarshalJSON renders the dataset as an object keyed by label.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Entry, len(d.entries))
	for l, e := range d.entries {
		m[string(l)] = e
	}
	return json.Marshal(m)
}
