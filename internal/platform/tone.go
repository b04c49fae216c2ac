package platform

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTone indicates a tone outside the supported set.
var ErrUnknownTone = errors.New("unknown tone")

// Tone is the voice requested by the caller.
type Tone string

// Supported tones.
const (
	Professional   Tone = "professional"
	Casual         Tone = "casual"
	Friendly       Tone = "friendly"
	Authoritative  Tone = "authoritative"
	Inspirational  Tone = "inspirational"
	Humorous       Tone = "humorous"
	Educational    Tone = "educational"
	Conversational Tone = "conversational"
)

// DefaultTone is used when a recycling request does not name one.
const DefaultTone = Professional

var tones = []Tone{
	Professional, Casual, Friendly, Authoritative,
	Inspirational, Humorous, Educational, Conversational,
}

// ParseTone validates a tone name (case-insensitive).
func ParseTone(s string) (Tone, error) {
	t := Tone(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range tones {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tone %q (valid: %s): %w", s, strings.Join(ToneNames(), ", "), ErrUnknownTone)
}

// ToneNames returns every supported tone in canonical order.
func ToneNames() []string {
	out := make([]string, len(tones))
	for i, t := range tones {
		out[i] = string(t)
	}
	return out
}
