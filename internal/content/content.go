// Package content defines the records produced by recycling: one FormatRecord
// per platform, grouped in a Bundle.
package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/platform"
)

// Len counts characters the way platforms do: by rune, not by byte.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}

// Quote is one extracted quote and its character count.
type Quote struct {
	Quote  string `json:"quote"`
	Length int    `json:"length"`
}

// NewQuote builds a Quote with its length filled in.
func NewQuote(s string) Quote {
	return Quote{Quote: s, Length: Len(s)}
}

// ---------------------------------------------------------------------------
// Body - display text or an ordered list of quotes
// ---------------------------------------------------------------------------

// Body is a record's content. It encodes as a JSON string for text
// and as an array of {quote, length} objects for quotes.
type Body struct {
	text   string
	quotes []Quote
}

// Text returns a text body.
func Text(s string) Body {
	return Body{text: s}
}

// Quotes returns a quote-list body. A nil slice is stored as empty.
func Quotes(qs []Quote) Body {
	if qs == nil {
		qs = []Quote{}
	}
	return Body{quotes: qs}
}

// IsQuotes reports whether the body holds quotes.
func (b Body) IsQuotes() bool {
	return b.quotes != nil
}

// QuoteList returns the quotes, or nil for a text body.
func (b Body) QuoteList() []Quote {
	return b.quotes
}

// String returns the display text. Quotes are one per line.
func (b Body) String() string {
	if !b.IsQuotes() {
		return b.text
	}
	lines := make([]string, len(b.quotes))
	for i, q := range b.quotes {
		lines[i] = q.Quote
	}
	return strings.Join(lines, "\n")
}

// MarshalJSON implements json.Marshaler.
func (b Body) MarshalJSON() ([]byte, error) {
	if b.IsQuotes() {
		return json.Marshal(b.quotes)
	}
	return json.Marshal(b.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (b *Body) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var qs []Quote
		if err := json.Unmarshal(data, &qs); err != nil {
			return fmt.Errorf("content: %w", err)
		}
		*b = Quotes(qs)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("content: %w", err)
	}
	*b = Text(s)
	return nil
}

// ---------------------------------------------------------------------------
// Count - a total or one count per item
// ---------------------------------------------------------------------------

// Count is a record's character count: a single number, or one per quote.
type Count struct {
	total   int
	perItem []int
}

// Total returns a single-number count.
func Total(n int) Count {
	return Count{total: n}
}

// PerItem returns a per-item count.
func PerItem(ns []int) Count {
	if ns == nil {
		ns = []int{}
	}
	return Count{perItem: ns}
}

// Max returns the binding count: the total, or the largest item.
func (c Count) Max() int {
	if c.perItem == nil {
		return c.total
	}
	m := 0
	for _, n := range c.perItem {
		m = max(m, n)
	}
	return m
}

// Items returns per-item counts, or nil for a total.
func (c Count) Items() []int {
	return c.perItem
}

// MarshalJSON implements json.Marshaler.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.perItem != nil {
		return json.Marshal(c.perItem)
	}
	return json.Marshal(c.total)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var ns []int
		if err := json.Unmarshal(data, &ns); err != nil {
			return fmt.Errorf("characterCount: %w", err)
		}
		*c = PerItem(ns)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("characterCount: %w", err)
	}
	*c = Total(n)
	return nil
}

// ---------------------------------------------------------------------------
// Email
// ---------------------------------------------------------------------------

// Email holds the parts of a newsletter as returned by the model.
type Email struct {
	Subject      string `json:"subject"`
	Greeting     string `json:"greeting"`
	Intro        string `json:"intro"`
	Body         string `json:"body"`
	CallToAction string `json:"callToAction"`
	Signature    string `json:"signature"`
	PreviewText  string `json:"previewText,omitempty"`
}

// Display renders the email for plain-text consumers: greeting, intro,
// body, call to action and signature separated by blank lines.
func (e Email) Display() string {
	return strings.Join([]string{e.Greeting, e.Intro, e.Body, e.CallToAction, e.Signature}, "\n\n")
}

// ---------------------------------------------------------------------------
// Metadata
// ---------------------------------------------------------------------------

// Metadata is free-form data attached by the model, plus the typed email
// parts when the record is a newsletter.
type Metadata struct {
	Email  *Email
	Fields map[string]json.RawMessage
}

// MarshalJSON flattens Fields and places Email under "email".
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Fields)+1)
	for k, v := range m.Fields {
		out[k] = v
	}
	if m.Email != nil {
		out["email"] = m.Email
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	*m = Metadata{}
	if raw, ok := fields["email"]; ok {
		var e Email
		if err := json.Unmarshal(raw, &e); err == nil {
			m.Email = &e
			delete(fields, "email")
		}
	}
	if len(fields) > 0 {
		m.Fields = fields
	}
	return nil
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// FormatRecord is the normalized rendering of content for one platform.
// ID is empty until the record is stamped by its producer.
type FormatRecord struct {
	ID             string            `json:"id"`
	Platform       platform.Platform `json:"platform"`
	Content        Body              `json:"content"`
	CharacterCount Count             `json:"characterCount"`
	Hashtags       []string          `json:"hashtags"`
	Edited         bool              `json:"isEdited"`
	Metadata       *Metadata         `json:"metadata,omitempty"`

	// OverLimit flags a count above the platform's soft maximum.
	// Content is never truncated.
	OverLimit bool `json:"overLimit,omitempty"`
}

// Bundle groups the records produced from one source text,
// in the order the platforms were requested.
type Bundle struct {
	ID              string          `json:"id"`
	OriginalContent string          `json:"originalContent"`
	Formats         []FormatRecord  `json:"formats"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
	Cost            *cost.Breakdown `json:"cost,omitempty"`
}

// Platforms lists the platforms present in the bundle, in order.
func (b Bundle) Platforms() []platform.Platform {
	out := make([]platform.Platform, len(b.Formats))
	for i, f := range b.Formats {
		out[i] = f.Platform
	}
	return out
}
