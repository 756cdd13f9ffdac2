// Package record implements the EMR record codec: parsing a delimited text
// stream into typed records, reassembling JSON payloads that themselves
// contain the delimiter, and typing fields as "atoms" (int, float, string,
// or absent).
package record

import "strconv"

// ScalarKind tags the dynamic type carried by a Scalar.
type ScalarKind int

const (
	ScalarAbsent ScalarKind = iota
	ScalarInt
	ScalarFloat
	ScalarString
)

// Scalar is the tagged union atoms parse into: an integer if the text
// parses as one, else a float, else the raw string; the empty string
// becomes absent.
type Scalar struct {
	Kind ScalarKind
	I    int64
	F    float64
	S    string
}

// ParseAtom parses text using the int -> float -> string fallback chain.
// An empty string parses to the absent scalar.
func ParseAtom(text string) Scalar {
	if text == "" {
		return Scalar{Kind: ScalarAbsent}
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Scalar{Kind: ScalarInt, I: i}
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Scalar{Kind: ScalarFloat, F: f}
	}
	return Scalar{Kind: ScalarString, S: text}
}

// IsAbsent reports whether the scalar carries no value.
func (s Scalar) IsAbsent() bool { return s.Kind == ScalarAbsent }

// String renders the scalar for display / output, empty for absent.
func (s Scalar) String() string {
	switch s.Kind {
	case ScalarInt:
		return strconv.FormatInt(s.I, 10)
	case ScalarFloat:
		return strconv.FormatFloat(s.F, 'g', -1, 64)
	case ScalarString:
		return s.S
	default:
		return ""
	}
}

// Value is a JSON payload: either absent, or a parsed value (map, slice,
// scalar, nil, bool — whatever encoding/json produced).
type Value struct {
	Set   bool
	Value any
}
