package savgo

import "fmt"

// valueKind tags the closed sum inside Value.
type valueKind uint8

const (
	valueKindNumeric valueKind = iota
	valueKindString
)

// Value is a single dictionary or data value: either a numeric double or a
// string. It is comparable and safe to use as a map key.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// NumericValue builds a numeric Value.
func NumericValue(f float64) Value { return Value{kind: valueKindNumeric, num: f} }

// StringValue builds a string Value.
func StringValue(s string) Value { return Value{kind: valueKindString, str: s} }

// IsNumeric reports whether the value holds a double.
func (v Value) IsNumeric() bool { return v.kind == valueKindNumeric }

// IsString reports whether the value holds a string.
func (v Value) IsString() bool { return v.kind == valueKindString }

// Float64 returns the numeric payload and true, or (0, false) if the value
// is a string.
func (v Value) Float64() (float64, bool) {
	if v.kind != valueKindNumeric {
		return 0, false
	}
	return v.num, true
}

// Text returns the string payload and true, or ("", false) if the value is
// numeric.
func (v Value) Text() (string, bool) {
	if v.kind != valueKindString {
		return "", false
	}
	return v.str, true
}

// String renders the value for diagnostics.
func (v Value) String() string {
	if v.kind == valueKindString {
		return v.str
	}
	return fmt.Sprintf("%g", v.num)
}

// Less orders numeric values before string values, and within a kind by
// the natural ordering of the payload.
func (v Value) Less(other Value) bool {
	if v.kind != other.kind {
		return v.kind < other.kind
	}
	if v.kind == valueKindNumeric {
		return v.num < other.num
	}
	return v.str < other.str
}

// missingKind tags the closed sum inside MissingSpec.
type missingKind uint8

const (
	missingKindValue missingKind = iota
	missingKindRange
	missingKindStringValue
)

// MissingSpec is one entry of a variable's user-missing declaration: a
// discrete value, a numeric range, or a discrete string value.
type MissingSpec struct {
	kind missingKind
	val  float64
	lo   float64
	hi   float64
	str  string
}

// NewMissingValue builds a discrete numeric missing value.
func NewMissingValue(f float64) MissingSpec {
	return MissingSpec{kind: missingKindValue, val: f}
}

// NewMissingRange builds an inclusive numeric missing range.
func NewMissingRange(lo, hi float64) MissingSpec {
	return MissingSpec{kind: missingKindRange, lo: lo, hi: hi}
}

// NewMissingStringValue builds a discrete string missing value.
func NewMissingStringValue(s string) MissingSpec {
	return MissingSpec{kind: missingKindStringValue, str: s}
}

// IsValue reports whether this is a discrete-value entry, returning it.
func (m MissingSpec) IsValue() (float64, bool) {
	if m.kind != missingKindValue {
		return 0, false
	}
	return m.val, true
}

// IsRange reports whether this is a range entry, returning its bounds.
func (m MissingSpec) IsRange() (lo, hi float64, ok bool) {
	if m.kind != missingKindRange {
		return 0, 0, false
	}
	return m.lo, m.hi, true
}

// IsStringValue reports whether this is a discrete string-value entry.
func (m MissingSpec) IsStringValue() (string, bool) {
	if m.kind != missingKindStringValue {
		return "", false
	}
	return m.str, true
}

// Matches reports whether v falls inside this missing-value declaration.
func (m MissingSpec) Matches(v Value) bool {
	switch m.kind {
	case missingKindValue:
		f, ok := v.Float64()
		return ok && f == m.val
	case missingKindRange:
		f, ok := v.Float64()
		return ok && f >= m.lo && f <= m.hi
	case missingKindStringValue:
		s, ok := v.Text()
		return ok && s == m.str
	}
	return false
}
