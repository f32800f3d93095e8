package wire

import (
	"encoding/json"
	"math"
	"strconv"
)

// Length is one axis of the surface geometry. A finite number renders as a
// pixel offset; any other value passes through as a literal (for example
// "auto" or "100%").
type Length struct {
	px      float64
	literal string
	isPx    bool
	set     bool
}

// Px returns a pixel length.
func Px(v float64) Length {
	return Length{px: v, isPx: true, set: true}
}

// Literal returns a pass-through length such as "auto".
func Literal(s string) Length {
	return Length{literal: s, set: true}
}

// IsSet reports whether the axis carries a value.
func (l Length) IsSet() bool { return l.set }

// Pixels returns the pixel value and whether the length is numeric.
func (l Length) Pixels() (float64, bool) {
	return l.px, l.set && l.isPx
}

// CSS renders the length the way the surface geometry expects it: "<n>px"
// for numeric values, the literal otherwise, "" when unset.
func (l Length) CSS() string {
	if !l.set {
		return ""
	}
	if l.isPx {
		return strconv.FormatFloat(l.px, 'f', -1, 64) + "px"
	}
	return l.literal
}

// MarshalJSON encodes numeric lengths as JSON numbers and literals as strings.
func (l Length) MarshalJSON() ([]byte, error) {
	if !l.set {
		return []byte("null"), nil
	}
	if l.isPx {
		return json.Marshal(l.px)
	}
	return json.Marshal(l.literal)
}

// UnmarshalJSON accepts a finite number as pixels; everything else becomes a
// literal rendered from the raw token.
func (l *Length) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		*l = Px(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*l = Literal(s)
		return nil
	}
	*l = Literal(string(data))
	return nil
}
