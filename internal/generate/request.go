// Package generate streams a single generated document to the caller,
// reporting progress and the cost of the request once it completes.
package generate

import (
	"fmt"
	"strings"

	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/prompt"
)

// RawRequest is the wire form of a generation request.
// ContentType is accepted as an alias of Platform.
type RawRequest struct {
	Topic             string `json:"topic"`
	Tone              string `json:"tone"`
	TargetAudience    string `json:"targetAudience"`
	Platform          string `json:"platform"`
	ContentType       string `json:"contentType,omitempty"`
	AdditionalContext string `json:"additionalContext,omitempty"`
}

// Request is a validated generation request.
type Request struct {
	Topic             string
	Tone              platform.Tone
	TargetAudience    string
	Platform          platform.Platform
	AdditionalContext string
}

// ParseRequest validates raw. Errors wrap prompt.ErrValidation.
func ParseRequest(raw RawRequest) (Request, error) {
	name := raw.Platform
	if name == "" {
		name = raw.ContentType
	}

	var missing []string
	if strings.TrimSpace(raw.Topic) == "" {
		missing = append(missing, "topic")
	}
	if strings.TrimSpace(raw.Tone) == "" {
		missing = append(missing, "tone")
	}
	if strings.TrimSpace(raw.TargetAudience) == "" {
		missing = append(missing, "targetAudience")
	}
	if strings.TrimSpace(name) == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return Request{}, fmt.Errorf("missing required fields: %s: %w", strings.Join(missing, ", "), prompt.ErrValidation)
	}

	p, err := platform.ParseGeneration(name)
	if err != nil {
		return Request{}, fmt.Errorf("invalid platform: %v: %w", err, prompt.ErrValidation)
	}
	tone, err := platform.ParseTone(raw.Tone)
	if err != nil {
		return Request{}, fmt.Errorf("invalid tone: %v: %w", err, prompt.ErrValidation)
	}

	return Request{
		Topic:             strings.TrimSpace(raw.Topic),
		Tone:              tone,
		TargetAudience:    strings.TrimSpace(raw.TargetAudience),
		Platform:          p,
		AdditionalContext: strings.TrimSpace(raw.AdditionalContext),
	}, nil
}

// inputText is the text whose estimated tokens are billed as input.
func (r Request) inputText() string {
	return r.Topic + " " + r.TargetAudience + " " + r.AdditionalContext
}
