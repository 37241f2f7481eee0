// Package vars models the extended-state bag attached to a workflow process.
//
// Values arrive from JSON payloads, MongoDB documents and snapshot caches, so a
// single logical value may be a bool, a number or a string depending on where it
// last round-tripped. Every accessor performs a total coercion: it either
// resolves the value to the canonical type or reports absence, it never panics.
package vars

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"
)

// Vars is a mutable key-value bag of process variables.
type Vars map[string]any

// Clone returns an independent shallow copy. A nil receiver yields an empty,
// writable bag.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	maps.Copy(out, v)
	return out
}

// Merge overwrites keys in v with the values from updates (last write wins).
func (v Vars) Merge(updates map[string]any) {
	for k, val := range updates {
		v[k] = val
	}
}

// Bool resolves the value under key to a boolean. Booleans pass through,
// strings are parsed with strconv.ParseBool. Anything else reports absence.
func (v Vars) Bool(key string) (bool, bool) {
	return ToBool(v[key])
}

// Float resolves the value under key to a float64, accepting any numeric type,
// json.Number or a parsable string.
func (v Vars) Float(key string) (float64, bool) {
	return ToFloat(v[key])
}

// String resolves the value under key to a string. Non-string scalars are
// formatted; composite values report absence.
func (v Vars) String(key string) (string, bool) {
	return ToString(v[key])
}

// IsBlank reports whether the value under key is missing, an empty or
// whitespace-only string, or an empty slice or map.
func (v Vars) IsBlank(key string) bool {
	return IsBlankValue(v[key])
}

// IsBlankValue reports whether a value is nil, a blank string, or an empty
// slice or map.
func IsBlankValue(val any) bool {
	if val == nil {
		return true
	}
	switch t := val.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// ToBool coerces an arbitrary value to a boolean.
func ToBool(val any) (bool, bool) {
	switch t := val.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// ToFloat coerces an arbitrary value to a float64.
func ToFloat(val any) (float64, bool) {
	switch t := val.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// ToString coerces an arbitrary scalar to its string form.
func ToString(val any) (string, bool) {
	switch t := val.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}
