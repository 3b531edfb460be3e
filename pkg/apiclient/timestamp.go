package apiclient

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// timestampLayouts are the string forms backends send, tried in order.
// Layouts without a zone are read in the local time zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is a time field of a backend record.
//
// It decodes RFC 3339 strings, the "2006-01-02 15:04:05" and "2006-01-02"
// layouts, and epoch milliseconds given as a number or a numeric string.
// null, "" and values in no known form decode to the zero time, so one odd
// field shows as empty instead of failing the whole page.
type Timestamp struct {
	time.Time
}

// ParseTimestamp reads s in any of the forms Timestamp accepts. It reports
// false when s is not empty and matches none of them.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), true
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	r := gjson.ParseBytes(b)
	switch r.Type {
	case gjson.Number:
		t.Time = time.UnixMilli(r.Int())
	case gjson.String:
		t.Time, _ = ParseTimestamp(r.Str)
	default:
		t.Time = time.Time{}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339))
}
