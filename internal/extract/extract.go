// Package extract resolves values out of loosely-structured extraction
// records. Upstream producers disagree on field names and nesting, so
// every logical attribute is looked up through an ordered list of
// candidate paths; the first present value wins.
package extract

import "strings"

// maxUnwrapDepth bounds envelope recursion on hostile input.
const maxUnwrapDepth = 32

// Record is one raw upstream document.
type Record = map[string]any

// ByPath walks a dotted path through nested maps. It returns nil the
// moment a segment is missing or an intermediate is not a map.
func ByPath(rec Record, path string) any {
	var current any = rec
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// Unwrap recursively unwraps value envelopes, maps carrying a "value"
// key around the real payload, until a non-envelope value is reached.
func Unwrap(v any) any {
	for depth := 0; depth < maxUnwrapDepth; depth++ {
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		inner, ok := m["value"]
		if !ok {
			return v
		}
		v = inner
	}
	return v
}

// FirstPresent evaluates candidate paths in order, unwrapping envelopes,
// and returns the first defined scalar or non-empty array. The path
// order is the extraction-priority contract: when a record duplicates a
// field at several known locations, the earlier path wins.
func FirstPresent(rec Record, paths ...string) any {
	for _, path := range paths {
		v := Unwrap(ByPath(rec, path))
		if v == nil {
			continue
		}
		if arr, ok := v.([]any); ok {
			if len(arr) == 0 {
				continue
			}
			return arr
		}
		return v
	}
	return nil
}

// FirstArray evaluates candidate paths in order and returns the first
// non-empty array, also looking through a single value envelope around
// the array itself.
func FirstArray(rec Record, paths ...string) []any {
	for _, path := range paths {
		v := ByPath(rec, path)
		if arr, ok := v.([]any); ok && len(arr) > 0 {
			return arr
		}
		if arr, ok := Unwrap(v).([]any); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

// AsString renders a scalar as a non-empty string, or nil.
func AsString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// AsMap returns v as a map, or nil.
func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
