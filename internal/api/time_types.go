package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// FlexTime is a request time that can unmarshal from:
// - RFC3339 string: "2026-01-15T10:30:00Z"
// - Date string: "2026-01-15" (midnight UTC)
// - Epoch milliseconds, as a number or a string
// - null or "", which clears the field
//
// It always marshals to RFC3339 format for consistency.
type FlexTime struct {
	time.Time
	present bool
}

// UnmarshalJSON handles flexible time parsing from JSON.
func (ft *FlexTime) UnmarshalJSON(data []byte) error {
	ft.present = true
	ft.Time = time.Time{}

	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return ft.parseString(s)
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err == nil {
		ft.Time = time.UnixMilli(int64(ms)).UTC()
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into a time", string(data))
}

func (ft *FlexTime) parseString(s string) error {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			ft.Time = t.UTC()
			return nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		ft.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	return fmt.Errorf("cannot parse time string: %s", s)
}

// MarshalJSON outputs time in RFC3339 format, or null when unset.
func (ft FlexTime) MarshalJSON() ([]byte, error) {
	if ft.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ft.Format(time.RFC3339))
}

// Schema documents the accepted forms and leaves validation to UnmarshalJSON.
func (FlexTime) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "RFC3339 timestamp, YYYY-MM-DD date or epoch milliseconds; null or empty clears",
		Examples:    []any{"2026-01-15T10:30:00Z"},
	}
}

// Value returns the time for a create request: nil when absent or cleared.
func (ft FlexTime) Value() *time.Time {
	if ft.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}

// Patch returns the time for an update request: nil when absent, a zero
// time when explicitly cleared.
func (ft FlexTime) Patch() *time.Time {
	if !ft.present {
		return nil
	}
	t := ft.Time
	return &t
}
