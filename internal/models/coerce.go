package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedDocument is returned when a stored document cannot be parsed
// into its typed record.
var ErrMalformedDocument = errors.New("malformed document")

func malformed(field string, v interface{}) error {
	return fmt.Errorf("%w: field %q has unexpected value %v (%T)", ErrMalformedDocument, field, v, v)
}

// intField reads an integer field. Missing fields yield 0. Whole floats and
// numeric strings are coerced; anything else is rejected.
func intField(data map[string]interface{}, field string) (int, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, malformed(field, v)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, malformed(field, v)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, malformed(field, v)
		}
		return i, nil
	default:
		return 0, malformed(field, v)
	}
}

func stringField(data map[string]interface{}, field string) (string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", malformed(field, v)
	}
	return s, nil
}

func boolField(data map[string]interface{}, field string) (bool, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, malformed(field, v)
		}
		return parsed, nil
	default:
		return false, malformed(field, v)
	}
}

// timeField reads an RFC 3339 timestamp. Missing or empty fields yield the zero time.
func timeField(data map[string]interface{}, field string) (time.Time, error) {
	s, err := stringField(data, field)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, malformed(field, s)
	}
	return t, nil
}

func stringSliceField(data map[string]interface{}, field string) ([]string, error) {
	v, ok := data[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch items := v.(type) {
	case []string:
		return append([]string(nil), items...), nil
	case []interface{}:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, malformed(field, v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, malformed(field, v)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// fieldReader parses fields in sequence and keeps the first error.
type fieldReader struct {
	data map[string]interface{}
	err  error
}

func (r *fieldReader) integer(field string) int {
	if r.err != nil {
		return 0
	}
	v, err := intField(r.data, field)
	r.err = err
	return v
}

func (r *fieldReader) str(field string) string {
	if r.err != nil {
		return ""
	}
	v, err := stringField(r.data, field)
	r.err = err
	return v
}

func (r *fieldReader) boolean(field string) bool {
	if r.err != nil {
		return false
	}
	v, err := boolField(r.data, field)
	r.err = err
	return v
}

func (r *fieldReader) timestamp(field string) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	v, err := timeField(r.data, field)
	r.err = err
	return v
}

func (r *fieldReader) stringList(field string) []string {
	if r.err != nil {
		return nil
	}
	v, err := stringSliceField(r.data, field)
	r.err = err
	return v
}
