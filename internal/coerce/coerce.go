// Package coerce converts untyped extraction output into typed values.
// Every function is total: malformed input yields nil, never a panic.
package coerce

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order when parsing date strings.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02.01.2006",
}

// Date converts v into a timestamp. Supported shapes: time.Time values,
// ISO-like strings, strings or maps carrying a "$date" marker (string or
// epoch milliseconds), and bare epoch-millisecond numbers. Anything else
// yields nil.
func Date(v any) *time.Time {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		return dateFromString(t)
	case map[string]any:
		if marker, ok := t["$date"]; ok {
			return Date(marker)
		}
		return nil
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return Date(f)
		}
		return nil
	case float64:
		return dateFromMillis(int64(t))
	case float32:
		return dateFromMillis(int64(t))
	case int64:
		return dateFromMillis(t)
	case int:
		return dateFromMillis(int64(t))
	default:
		return nil
	}
}

func dateFromString(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	// Some exporters stringify the whole {"$date": ...} envelope.
	if strings.Contains(s, "$date") {
		var envelope map[string]any
		if err := json.Unmarshal([]byte(s), &envelope); err == nil {
			if marker, ok := envelope["$date"]; ok {
				return Date(marker)
			}
		}
		// fall through to plain parsing
	}

	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return &parsed
		}
	}
	return nil
}

func dateFromMillis(ms int64) *time.Time {
	if ms == 0 {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

// Decimal converts v into a fixed-precision decimal. Numbers (rejecting
// NaN/Inf), numeric strings, json.Number, maps carrying a "$numberLong"
// string, and existing decimals are accepted; anything else yields nil.
// Applying Decimal to an already-coerced value is the identity.
func Decimal(v any) *decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return &n
	case *decimal.Decimal:
		return n
	case float64:
		return decimalFromFloat(n)
	case float32:
		return decimalFromFloat(float64(n))
	case int:
		d := decimal.NewFromInt(int64(n))
		return &d
	case int32:
		d := decimal.NewFromInt(int64(n))
		return &d
	case int64:
		d := decimal.NewFromInt(n)
		return &d
	case json.Number:
		return decimalFromString(n.String())
	case string:
		return decimalFromString(n)
	case map[string]any:
		if long, ok := n["$numberLong"].(string); ok {
			return decimalFromString(long)
		}
		return nil
	default:
		return nil
	}
}

func decimalFromFloat(f float64) *decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	d := decimal.NewFromFloat(f)
	return &d
}

func decimalFromString(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
