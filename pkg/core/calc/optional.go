package calc

import (
	"encoding/json"
	"fmt"
)

// Optional is a metric value that may be absent. A present zero is a real
// value; only Absent means "could not be computed".
type Optional struct {
	value float64
	ok    bool
}

// Present wraps a computed value.
func Present(v float64) Optional { return Optional{value: v, ok: true} }

// Absent is the missing value.
func Absent() Optional { return Optional{} }

// Get returns the value and whether it is present.
func (o Optional) Get() (float64, bool) { return o.value, o.ok }

// IsPresent reports whether a value was computed.
func (o Optional) IsPresent() bool { return o.ok }

// Map applies f to a present value.
func (o Optional) Map(f func(float64) float64) Optional {
	if !o.ok {
		return o
	}
	return Present(f(o.value))
}

func (o Optional) String() string {
	if !o.ok {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", o.value)
}

// MarshalJSON renders an absent value as null.
func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON reads null as Absent.
func (o *Optional) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*o = Absent()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Present(v)
	return nil
}
