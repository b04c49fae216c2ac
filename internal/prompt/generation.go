package prompt

import (
	"fmt"
	"strings"

	"github.com/alnah/go-contentflow/internal/lang"
	"github.com/alnah/go-contentflow/internal/platform"
)

// GenerationInput describes one streamed document.
type GenerationInput struct {
	Topic    string
	Audience string
	Context  string
	Tone     platform.Tone
	Platform platform.Platform
	Language lang.Language
}

// Generation builds the prompt for a single plain-text document.
func Generation(in GenerationInput) (Prompt, error) {
	if err := ValidateContent("topic", in.Topic); err != nil {
		return Prompt{}, err
	}
	if strings.TrimSpace(in.Audience) == "" {
		return Prompt{}, fmt.Errorf("target audience cannot be empty: %w", ErrValidation)
	}
	if in.Context != "" {
		if err := ValidateContent("additional context", in.Context); err != nil {
			return Prompt{}, err
		}
	}
	if in.Tone == "" {
		return Prompt{}, fmt.Errorf("tone cannot be empty: %w", ErrValidation)
	}
	if in.Platform.IsZero() || !in.Platform.CanGenerate() {
		return Prompt{}, fmt.Errorf("platform %q cannot be generated: %w", in.Platform, ErrValidation)
	}

	c := in.Platform.Constraints()

	var sys strings.Builder
	fmt.Fprintf(&sys, "You are an expert content marketer and copywriter. "+
		"Your task is to write content optimized for %s that drives engagement and conversions.\n\n",
		strings.ToUpper(in.Platform.String()))
	sys.WriteString("SPECIFIC INSTRUCTIONS:\n")
	writeBullets(&sys, c.GenerationBrief)
	sys.WriteString("\nCONSTRAINTS:\n")
	fmt.Fprintf(&sys, "- Maximum %d characters\n", c.MaxCharacters)
	fmt.Fprintf(&sys, "- Tone: %s\n", in.Tone)
	fmt.Fprintf(&sys, "- Target audience: %s\n", strings.TrimSpace(in.Audience))
	if line := languageLine(in.Language); line != "" {
		sys.WriteString(line + "\n")
	}
	sys.WriteString("- Must be original and authentic\n")
	sys.WriteString("- Avoid generic information")

	var user strings.Builder
	fmt.Fprintf(&user, "Topic: %s\n\n", strings.TrimSpace(in.Topic))
	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		fmt.Fprintf(&user, "Additional context: %s\n\n", ctx)
	}
	fmt.Fprintf(&user, "Please write the content following the specific instructions for %s.", in.Platform)

	return Prompt{System: sys.String(), User: user.String()}, nil
}
