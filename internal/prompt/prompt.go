// Package prompt builds the system and user messages sent to the model.
//
// Generation prompts ask for plain text with a descriptive role instruction.
// Recycling prompts always ask for a single JSON object and embed an example
// payload for the platform's shape; the normalizer still defends against
// replies that ignore it.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/lang"
)

// MaxContentLength is the largest accepted source text, in characters.
const MaxContentLength = 10000

// ErrValidation indicates input rejected before any provider call.
var ErrValidation = errors.New("validation error")

// Prompt is a system instruction and a user message.
type Prompt struct {
	System string
	User   string
}

// ValidateContent checks that text is non-blank and within MaxContentLength.
// field names the input in error messages.
func ValidateContent(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s cannot be empty: %w", field, ErrValidation)
	}
	if n := content.Len(text); n > MaxContentLength {
		return fmt.Errorf("%s is %d characters (max %d): %w", field, n, MaxContentLength, ErrValidation)
	}
	return nil
}

// languageLine returns the output language requirement, or "" for the zero Language.
func languageLine(l lang.Language) string {
	if l.IsZero() {
		return ""
	}
	return "- Language: " + l.DisplayName()
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
}
