package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Demographics holds the optional demographic attributes attached to a
// session. Keys are attribute names (age_range, gender, ethnicity, ...)
// and values are the reported attribute values.
type Demographics map[string]string

// Clone returns a copy so callers can mask or mutate without touching the
// original session.
func (d Demographics) Clone() Demographics {
	if d == nil {
		return nil
	}
	out := make(Demographics, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Content is a session transcript. Callers submit either a plain string
// or structured turns; structured content is held opaquely and forwarded
// to the analysis layers unchanged.
type Content struct {
	text       string
	structured json.RawMessage
}

// TextContent wraps a plain string transcript.
func TextContent(s string) Content {
	return Content{text: s}
}

// StructuredContent wraps structured turns.
func StructuredContent(raw json.RawMessage) Content {
	return Content{structured: append(json.RawMessage(nil), raw...)}
}

// Text returns the plain transcript, or the empty string when the
// content is structured.
func (c Content) Text() string { return c.text }

// IsStructured reports whether the content carries structured turns.
func (c Content) IsStructured() bool { return c.structured != nil }

// IsZero reports whether no content was provided.
func (c Content) IsZero() bool { return c.text == "" && c.structured == nil }

func (c *Content) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*c = Content{}
		return json.Unmarshal(trimmed, &c.text)
	}
	if string(trimmed) == "null" {
		*c = Content{}
		return nil
	}
	*c = Content{structured: append(json.RawMessage(nil), trimmed...)}
	return nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.structured != nil {
		return c.structured, nil
	}
	return json.Marshal(c.text)
}

// SessionData is the input to a bias analysis. Only SessionID is required;
// everything else is optional and defaulted during validation.
type SessionData struct {
	SessionID    string       `json:"session_id"`
	Content      Content      `json:"content,omitzero"`
	Demographics Demographics `json:"demographics,omitempty"`
	Timestamp    time.Time    `json:"timestamp,omitzero"`
}

// Validate checks the input contract. A nil session or a session without a
// non-blank SessionID is rejected before any analyzer is invoked.
func (s *SessionData) Validate() error {
	if s == nil {
		return &ValidationError{Field: "session", Reason: "session data is nil"}
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return &ValidationError{Field: "session_id", Reason: "session_id is required and must be non-empty"}
	}
	return nil
}

// Normalized returns a copy with defaults substituted for optional fields.
func (s *SessionData) Normalized() SessionData {
	out := *s
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}
	return out
}
