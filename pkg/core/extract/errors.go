package extract

import (
	"fmt"
	"strings"
)

// LabelNotFoundWarning is a non-fatal, per-label gap: no source produced a
// value. Contexts carries text windows around raw label occurrences.
type LabelNotFoundWarning struct {
	Label    Label
	Contexts []string
	HintLine int
}

func (w *LabelNotFoundWarning) Error() string {
	if len(w.Contexts) == 0 {
		return fmt.Sprintf("%s: not found in any source", w.Label)
	}
	return fmt.Sprintf("%s: no numeric value found (%d occurrence(s) of the label, e.g. %q)",
		w.Label, len(w.Contexts), strings.TrimSpace(w.Contexts[0]))
}

// InvalidOverrideError rejects a malformed manual value. The label keeps its
// previous (empty) state.
type InvalidOverrideError struct {
	Label Label
	Input string
	Err   error
}

func (e *InvalidOverrideError) Error() string {
	return fmt.Sprintf("invalid override for %s: %q: %v", e.Label, e.Input, e.Err)
}

func (e *InvalidOverrideError) Unwrap() error { return e.Err }
