package jira

import (
	"fmt"
	"strconv"
	"time"
)

// ExtractFieldValue returns a display string for a raw custom field value.
// Select lists, users and versions arrive as objects; multi-value fields as
// arrays, of which the first element is used.
func ExtractFieldValue(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]interface{}:
		for _, key := range []string{"value", "displayValue", "displayName", "name", "key"} {
			if s, ok := v[key].(string); ok {
				return s
			}
		}
		return fmt.Sprint(v)
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		return ExtractFieldValue(v[0])
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// dateLayouts lists the formats Jira uses for datetime and date fields.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses a Jira date or datetime value. Date-only values are
// interpreted as midnight in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	if loc == nil {
		loc = time.Local
	}

	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q: %w", s, lastErr)
}
