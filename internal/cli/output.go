package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/format"
)

// writeFileAtomic writes data to path.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path string, data []byte) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}

// encodeJSON renders v indented, with a trailing newline.
func encodeJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return append(data, '\n'), nil
}

// emitOutput writes data to path, or to w when path is empty.
func emitOutput(w io.Writer, path string, data []byte) error {
	if path != "" {
		return writeFileAtomic(path, data)
	}
	_, err := w.Write(data)
	return err
}

// renderBundle formats a bundle for reading in a terminal.
func renderBundle(b content.Bundle) []byte {
	var sb strings.Builder
	for i, f := range b.Formats {
		if i > 0 {
			sb.WriteString("\n")
		}
		limit := f.Platform.Constraints().MaxCharacters
		fmt.Fprintf(&sb, "== %s (%d/%d chars", f.Platform.Constraints().DisplayName, f.CharacterCount.Max(), limit)
		if f.OverLimit {
			sb.WriteString(", over limit")
		}
		sb.WriteString(") ==\n")

		if f.Content.IsQuotes() {
			for _, q := range f.Content.QuoteList() {
				fmt.Fprintf(&sb, "- %s\n", q.Quote)
			}
		} else {
			sb.WriteString(strings.TrimRight(f.Content.String(), "\n"))
			sb.WriteString("\n")
		}
		if len(f.Hashtags) > 0 {
			sb.WriteString(strings.Join(f.Hashtags, " "))
			sb.WriteString("\n")
		}
	}
	return []byte(sb.String())
}

// printCost writes a one-line cost summary.
func printCost(w io.Writer, b cost.Breakdown) {
	fmt.Fprintf(w, "Cost: %s (%s input + %s output tokens, %s)\n",
		format.USD(b.TotalCost), format.Tokens(b.InputTokens), format.Tokens(b.OutputTokens), b.Model)
}

// printAlert writes the daily alert, if any.
func printAlert(w io.Writer, a cost.Alert) {
	if a.ShouldAlert {
		fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(a.Level.String()), a.Message)
	}
}
