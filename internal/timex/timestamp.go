// Package timex holds time helpers for the wire formats the backend speaks.
package timex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp decodes the timestamps found in backend JSON. Besides RFC 3339 it
// accepts naive ISO-8601 values without a zone (e.g. "2024-05-01T10:20:30.123456"),
// which are interpreted as UTC. It always encodes as RFC 3339 in UTC.
type Timestamp struct {
	time.Time
}

// NaiveLayout is the zone-less layout produced by the backend.
const NaiveLayout = "2006-01-02T15:04:05.999999999"

var layouts = []string{
	time.RFC3339Nano,
	NaiveLayout,
	"2006-01-02 15:04:05.999999999",
}

func Parse(s string) (time.Time, error) {
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}
