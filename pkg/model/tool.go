package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Tool is a server-generated artifact bundle: a mini-app blueprint plus its
// memory and storage descriptors. The client never edits a Tool.
type Tool struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Prompt    string          `json:"prompt,omitempty"`
	CreatedAt Timestamp       `json:"created_at"`
	MiniApp   json.RawMessage `json:"mini_app,omitempty"`
	Memory    json.RawMessage `json:"memory,omitempty"`
	Storage   json.RawMessage `json:"storage,omitempty"`
}

// CreateToolRequest is the body of POST /tools.
type CreateToolRequest struct {
	Prompt string `json:"prompt"`
}

// timestampLayouts are tried in order. The backend emits zone-less datetimes
// for naive values, which time.Time's own decoder rejects.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time.Time that decodes RFC 3339 as well as zone-less
// ISO-8601 values (interpreted as UTC). Values in no known layout leave Time
// zero and keep the original text in Raw; created_at is display-only and
// must not fail a whole decode.
type Timestamp struct {
	time.Time
	Raw string
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	*t = Timestamp{}
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	t.Raw = s
	return nil
}

// String returns the RFC 3339 form, the raw text for unparsed values, or ""
// when unset.
func (t Timestamp) String() string {
	if t.IsZero() {
		return t.Raw
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() && t.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}
