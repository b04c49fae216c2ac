package prompt

import (
	"fmt"
	"strings"

	"github.com/alnah/go-contentflow/internal/lang"
	"github.com/alnah/go-contentflow/internal/platform"
)

// RecyclingInput describes one platform task of a recycling request.
type RecyclingInput struct {
	Content  string
	Platform platform.Platform
	Tone     platform.Tone
	Industry string
	Language lang.Language
}

// Example payloads embedded in recycling prompts, one per shape.
const (
	textExample = `{
  "content": "the full post text",
  "hashtags": ["#hashtag1", "#hashtag2"],
  "characterCount": 0,
  "metadata": {}
}`

	threadExample = `{
  "content": ["1/5 first tweet", "2/5 second tweet", "3/5 third tweet", "4/5 fourth tweet", "5/5 fifth tweet"],
  "hashtags": ["#hashtag1", "#hashtag2"],
  "characterCount": 0,
  "metadata": {}
}`

	quotesExample = `{
  "content": ["quote 1", "quote 2", "quote 3"],
  "hashtags": [],
  "characterCount": [0, 0, 0],
  "metadata": {}
}`

	emailExample = `{
  "subject": "compelling subject line",
  "greeting": "Hello {{name}},",
  "intro": "personalized intro",
  "body": "main content in 2-3 paragraphs",
  "callToAction": "clear, specific call to action",
  "signature": "Best regards, The {{company}} team"
}`
)

// ExamplePayload returns the JSON example embedded for shape s.
func ExamplePayload(s platform.Shape) string {
	switch s {
	case platform.ShapeThread:
		return threadExample
	case platform.ShapeQuotes:
		return quotesExample
	case platform.ShapeEmail:
		return emailExample
	default:
		return textExample
	}
}

// Recycling builds the structured prompt for one recycling target.
func Recycling(in RecyclingInput) (Prompt, error) {
	if err := ValidateContent("content", in.Content); err != nil {
		return Prompt{}, err
	}
	if in.Platform.IsZero() || !in.Platform.CanRecycle() {
		return Prompt{}, fmt.Errorf("platform %q is not a recycling target: %w", in.Platform, ErrValidation)
	}
	tone := in.Tone
	if tone == "" {
		tone = platform.DefaultTone
	}

	c := in.Platform.Constraints()
	example := ExamplePayload(c.Shape)

	var sys strings.Builder
	sys.WriteString("You must respond with ONLY valid JSON. No additional text.\n")
	fmt.Fprintf(&sys, "You recycle existing content into %s, respecting its character limit and voice.\n", c.Description)
	fmt.Fprintf(&sys, "Return ONLY a JSON object matching this example:\n%s\n", example)
	sys.WriteString("MANDATORY: Return ONLY JSON, no markdown, no explanation.")

	var user strings.Builder
	fmt.Fprintf(&user, "Recycle the following content into %s.\n\n", c.Description)
	fmt.Fprintf(&user, "ORIGINAL CONTENT:\n%s\n\n", strings.TrimSpace(in.Content))
	user.WriteString("REQUIREMENTS:\n")
	fmt.Fprintf(&user, "- Maximum %d characters\n", c.MaxCharacters)
	fmt.Fprintf(&user, "- Tone: %s\n", tone)
	fmt.Fprintf(&user, "- Platform voice: %s\n", c.Voice)
	fmt.Fprintf(&user, "- Platform: %s\n", in.Platform)
	if c.HashtagLimit > 0 {
		fmt.Fprintf(&user, "- Include relevant hashtags (maximum %d)\n", c.HashtagLimit)
	} else {
		user.WriteString("- Do not include hashtags\n")
	}
	if industry := strings.TrimSpace(in.Industry); industry != "" {
		fmt.Fprintf(&user, "- Industry: %s\n", industry)
	}
	if line := languageLine(in.Language); line != "" {
		user.WriteString(line + "\n")
	}
	user.WriteString("\nPLATFORM GUIDELINES:\n")
	writeBullets(&user, c.RecyclingBrief)
	fmt.Fprintf(&user, "\nIMPORTANT: Return ONLY valid JSON, without extra text, with this structure:\n%s", example)

	return Prompt{System: sys.String(), User: user.String()}, nil
}
