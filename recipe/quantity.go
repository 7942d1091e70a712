package recipe

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Quantity is an ingredient amount that may be numeric ("2", "0.5") or
// free text ("a pinch", "1-2"). Values pass through as authored; no unit
// conversion or normalization is performed.
type Quantity struct {
	Number float64
	Text   string
	// Numeric reports whether Number holds the value. When false, Text does.
	Numeric bool
}

// NumberQuantity returns a numeric quantity.
func NumberQuantity(n float64) Quantity {
	return Quantity{Number: n, Numeric: true}
}

// TextQuantity returns a free-text quantity.
func TextQuantity(s string) Quantity {
	return Quantity{Text: s}
}

// String renders the quantity for display.
func (q Quantity) String() string {
	if q.Numeric {
		return strconv.FormatFloat(q.Number, 'f', -1, 64)
	}
	return q.Text
}

// IsZero reports whether the quantity is unset.
func (q Quantity) IsZero() bool {
	return !q.Numeric && q.Text == ""
}

// MarshalJSON emits a JSON number for numeric quantities and a JSON string
// otherwise, preserving the authored shape on the wire.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Numeric {
		return json.Marshal(q.Number)
	}
	return json.Marshal(q.Text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Quantity{Number: n, Numeric: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity{Text: s}
		return nil
	}
	return fmt.Errorf("quantity must be a number or string, got %s", data)
}
