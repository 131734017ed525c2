// Package docfield reads loosely-shaped document fields. Documents come from
// the Mongo driver (bson.M / bson.D / ObjectID / DateTime) or from extended
// JSON stored in Postgres, so every accessor tolerates both shapes and
// returns a zero value instead of failing on an unexpected type.
package docfield

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lookup walks a dotted path through nested documents.
func Lookup(doc any, path string) any {
	current := doc
	for _, key := range strings.Split(path, ".") {
		next, ok := child(current, key)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

// LookupAny returns the value of the first path holding a non-nil value.
func LookupAny(doc any, paths ...string) any {
	for _, path := range paths {
		if v := Lookup(doc, path); v != nil {
			return v
		}
	}
	return nil
}

func child(doc any, key string) (any, bool) {
	switch v := doc.(type) {
	case primitive.M:
		val, ok := v[key]
		return val, ok
	case map[string]any:
		val, ok := v[key]
		return val, ok
	case primitive.D:
		for _, elem := range v {
			if elem.Key == key {
				return elem.Value, true
			}
		}
	}
	return nil, false
}

// String renders identifiers and scalar strings. Documents and arrays render
// as empty.
func String(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case primitive.ObjectID:
		if val.IsZero() {
			return ""
		}
		return val.Hex()
	case json.Number:
		return val.String()
	case int32, int64, int:
		return fmt.Sprintf("%d", val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case primitive.M:
		return String(map[string]any(val))
	case map[string]any:
		if oid, ok := val["$oid"]; ok {
			return String(oid)
		}
		return ""
	default:
		return ""
	}
}

// ID renders a document id: the business field when present, else _id.
func ID(doc any, businessField string) string {
	if businessField != "" {
		if id := String(Lookup(doc, businessField)); id != "" {
			return id
		}
	}
	return String(Lookup(doc, "_id"))
}

// Strings flattens a scalar or array field into non-empty strings.
func Strings(v any) []string {
	var items []any
	switch val := v.(type) {
	case nil:
		return nil
	case primitive.A:
		items = val
	case []any:
		items = val
	case []string:
		out := make([]string, 0, len(val))
		for _, s := range val {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		if s := String(val); s != "" {
			return []string{s}
		}
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := String(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time converts a stored timestamp. Numbers are epoch milliseconds.
func Time(v any) *time.Time {
	var out time.Time
	switch val := v.(type) {
	case nil:
		return nil
	case primitive.DateTime:
		out = val.Time()
	case time.Time:
		out = val
	case *time.Time:
		if val == nil {
			return nil
		}
		out = *val
	case int64:
		out = time.UnixMilli(val)
	case float64:
		out = time.UnixMilli(int64(val))
	case json.Number:
		ms, err := val.Int64()
		if err != nil {
			return nil
		}
		out = time.UnixMilli(ms)
	case string:
		parsed, ok := parseTime(val)
		if !ok {
			return nil
		}
		out = parsed
	case primitive.M:
		return Time(map[string]any(val))
	case map[string]any:
		if inner, ok := val["$date"]; ok {
			return Time(inner)
		}
		return nil
	default:
		return nil
	}
	if out.IsZero() {
		return nil
	}
	return &out
}

func parseTime(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// Flatten turns a document into display-ready key/value pairs. Nested keys
// are joined with dots; ids and dates render as strings.
func Flatten(doc any) map[string]any {
	out := make(map[string]any)
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out map[string]any, prefix string, v any) {
	join := func(key string) string {
		if prefix == "" {
			return key
		}
		return prefix + "." + key
	}

	switch val := v.(type) {
	case primitive.M:
		for key, inner := range val {
			flattenInto(out, join(key), inner)
		}
	case map[string]any:
		if len(val) == 1 {
			if _, ok := val["$oid"]; ok {
				out[prefix] = String(val)
				return
			}
			if _, ok := val["$date"]; ok {
				if ts := Time(val); ts != nil {
					out[prefix] = ts.UTC().Format(time.RFC3339)
					return
				}
			}
		}
		for key, inner := range val {
			flattenInto(out, join(key), inner)
		}
	case primitive.D:
		for _, elem := range val {
			flattenInto(out, join(elem.Key), elem.Value)
		}
	case primitive.ObjectID:
		out[prefix] = val.Hex()
	case primitive.DateTime:
		out[prefix] = val.Time().UTC().Format(time.RFC3339)
	case time.Time:
		out[prefix] = val.UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		out[prefix] = val.String()
	default:
		out[prefix] = val
	}
}
