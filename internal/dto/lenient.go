package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseLenientBool accepts the loose truthy values sent by camera integrations:
// true, 1, "1", "true", "on" and "yes" (case-insensitive). Anything else is false.
func ParseLenientBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// OptionalFloat parses an optional decimal, exponent notation included. Blank input yields nil.
// Hex floats, NaN and infinities are rejected.
func OptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.ContainsAny(raw, "xX_") {
		return nil, fmt.Errorf("parse number %q: not a decimal", raw)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("parse number %q: %w", raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("parse number %q: not finite", raw)
	}
	return &v, nil
}

// OptionalInt64 parses an optional integer. Blank input yields nil.
func OptionalInt64(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse integer %q: %w", raw, err)
	}
	return &v, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp accepts RFC3339, common SQL-style layouts and unix seconds.
// Unparseable or blank input returns fallback.
func ParseTimestamp(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return fallback
}

// FlattenJSON decodes a JSON object into string values so JSON bodies and form
// posts go through the same validation. Nulls and nested values are dropped.
func FlattenJSON(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json body: %w", err)
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		if s := flattenValue(value); s != "" {
			out[key] = s
		}
	}
	return out, nil
}

func flattenValue(v interface{}) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case json.Number:
		return typed.String()
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return ""
	}
}
