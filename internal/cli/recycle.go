package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-contentflow/internal/content"
	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/format"
	"github.com/alnah/go-contentflow/internal/platform"
	"github.com/alnah/go-contentflow/internal/recycle"
)

// recycleOptions holds the flags of the recycle command.
type recycleOptions struct {
	text      string
	platforms []string
	tone      string
	industry  string
	output    string
	asJSON    bool
}

// RecycleCmd creates the recycle command.
func RecycleCmd(env *Env) *cobra.Command {
	var opts recycleOptions

	cmd := &cobra.Command{
		Use:   "recycle [file]",
		Short: "Turn one piece of content into posts for several platforms",
		Long: fmt.Sprintf(`Turn one piece of content into posts for several platforms at once.

Content is read from --text, from the given file, or from stdin ("-" or no argument).
Every platform is requested in parallel; a platform that fails is reported and
skipped, the others are still printed.

Platforms: %s (default: all)
Tones:     %s`,
			strings.Join(recyclableNames(), ", "), strings.Join(platform.ToneNames(), ", ")),
		Example: `  contentflow recycle article.md
  contentflow recycle article.md --platforms twitter,quotes --tone casual
  cat notes.txt | contentflow recycle --industry fintech --json -o bundle.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := ""
			if len(args) == 1 {
				source = args[0]
			}
			return runRecycle(cmd.Context(), env, source, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "Content to recycle, instead of a file or stdin")
	cmd.Flags().StringSliceVarP(&opts.platforms, "platforms", "p", nil, "Target platforms, comma-separated")
	cmd.Flags().StringVar(&opts.tone, "tone", "", "Voice of the output (default professional)")
	cmd.Flags().StringVar(&opts.industry, "industry", "", "Industry the audience works in")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the bundle and cost as JSON")

	return cmd
}

type recycleResult struct {
	RecycledContent content.Bundle   `json:"recycledContent"`
	CostData        cost.Breakdown   `json:"costData"`
	FailedPlatforms []failedPlatform `json:"failedPlatforms,omitempty"`
}

type failedPlatform struct {
	Platform string `json:"platform"`
	Error    string `json:"error"`
}

// runRecycle recycles the content and prints the bundle.
// It fails only when the input is invalid or no platform succeeded.
func runRecycle(ctx context.Context, env *Env, source string, opts recycleOptions) error {
	text, err := readContent(env, source, opts.text)
	if err != nil {
		return err
	}

	a, err := setup(ctx, env, true)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.recycler().Recycle(ctx, recycle.Request{
		Content:   text,
		Platforms: opts.platforms,
		Tone:      opts.tone,
		Industry:  opts.industry,
	})
	if err != nil {
		return err
	}

	for _, f := range res.Failed {
		fmt.Fprintf(env.Stderr, "Warning: %s failed: %v\n", f.Platform, f.Err)
	}
	if len(res.Bundle.Formats) == 0 {
		return ErrNothingProduced
	}

	var data []byte
	if opts.asJSON {
		out := recycleResult{RecycledContent: res.Bundle, CostData: res.Cost}
		for _, f := range res.Failed {
			out.FailedPlatforms = append(out.FailedPlatforms, failedPlatform{Platform: f.Platform.String(), Error: f.Err.Error()})
		}
		if data, err = encodeJSON(out); err != nil {
			return err
		}
	} else {
		data = renderBundle(res.Bundle)
	}
	if err := emitOutput(env.Stdout, opts.output, data); err != nil {
		return err
	}
	if opts.output != "" {
		fmt.Fprintf(env.Stderr, "Wrote %s\n", opts.output)
	}

	fmt.Fprintf(env.Stderr, "Recycled into %d/%d platforms in %s\n",
		len(res.Bundle.Formats), len(res.Bundle.Formats)+len(res.Failed), format.Duration(res.Duration))
	printCost(env.Stderr, res.Cost)
	if summary, err := a.ledger.Summary(ctx); err == nil {
		printAlert(env.Stderr, a.ledger.Alert(summary.TotalCost))
	}
	return nil
}

// readContent picks the input: --text, then a file, then stdin.
func readContent(env *Env, source, text string) (string, error) {
	if text != "" {
		return text, nil
	}

	var data []byte
	var err error
	if source == "" || source == "-" {
		data, err = io.ReadAll(env.Stdin)
	} else {
		data, err = os.ReadFile(source) // #nosec G304 -- user-specified input file
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", source, ErrFileNotFound)
		}
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", ErrNoContent
	}
	return string(data), nil
}

func recyclableNames() []string {
	ps := platform.Recyclable()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return names
}
