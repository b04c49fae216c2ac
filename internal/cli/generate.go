package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/format"
	"github.com/alnah/go-contentflow/internal/generate"
	"github.com/alnah/go-contentflow/internal/interrupt"
	"github.com/alnah/go-contentflow/internal/platform"
)

// generateOptions holds the flags of the generate command.
type generateOptions struct {
	generate.RawRequest
	output string
	asJSON bool
}

// GenerateCmd creates the generate command.
func GenerateCmd(env *Env) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write one document for a platform, streamed as it is written",
		Long: fmt.Sprintf(`Write one document for a platform, streamed to stdout as it is written.

Platforms: %s
Tones:     %s

The cost is printed to stderr and added to today's ledger.
Ctrl+C stops the stream; nothing is recorded for a stopped generation.`,
			strings.Join(generatableNames(), ", "), strings.Join(platform.ToneNames(), ", ")),
		Example: `  contentflow generate --topic "Async standups" --audience "engineering managers" --platform linkedin
  contentflow generate -t "Launch day" -a founders -p twitter --tone inspirational -o thread.txt
  contentflow generate -t "Pricing update" -a customers -p blog --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, ctx := interrupt.NewHandler(cmd.Context())
			defer h.Stop()
			return runGenerate(ctx, env, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Topic, "topic", "t", "", "What the document is about (required)")
	cmd.Flags().StringVarP(&opts.TargetAudience, "audience", "a", "", "Who the document is for (required)")
	cmd.Flags().StringVarP(&opts.Platform, "platform", "p", "", "Target platform (required)")
	cmd.Flags().StringVar(&opts.Tone, "tone", string(platform.DefaultTone), "Voice of the document")
	cmd.Flags().StringVarP(&opts.AdditionalContext, "context", "c", "", "Extra facts or constraints")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the result and cost as JSON once complete")

	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("audience")
	_ = cmd.MarkFlagRequired("platform")

	return cmd
}

type generateResult struct {
	Platform string         `json:"platform"`
	Content  string         `json:"content"`
	Cost     cost.Breakdown `json:"costData"`
}

// runGenerate streams a document. Deltas go to stdout unless the result is
// written to a file or rendered as JSON.
func runGenerate(ctx context.Context, env *Env, opts generateOptions) error {
	req, err := generate.ParseRequest(opts.RawRequest)
	if err != nil {
		return err
	}

	a, err := setup(ctx, env, true)
	if err != nil {
		return err
	}
	defer a.Close()

	live := opts.output == "" && !opts.asJSON
	emit := func(u generate.Update) error {
		switch u.Kind {
		case generate.UpdateDelta:
			if live {
				_, err := fmt.Fprint(env.Stdout, u.Text)
				return err
			}
			fmt.Fprintf(env.Stderr, "\rGenerating... %s", format.Percent(u.Progress))
		case generate.UpdateComplete:
			if live {
				fmt.Fprintln(env.Stdout)
			} else {
				fmt.Fprintf(env.Stderr, "\rGenerating... %s\n", format.Percent(u.Progress))
			}
		}
		return nil
	}

	res, err := a.generator().Generate(ctx, req, emit)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(env.Stderr, "\nGeneration stopped.")
		}
		return err
	}

	if !live {
		data := []byte(res.Text + "\n")
		if opts.asJSON {
			data, err = encodeJSON(generateResult{
				Platform: req.Platform.String(),
				Content:  res.Text,
				Cost:     res.Cost,
			})
			if err != nil {
				return err
			}
		}
		if err := emitOutput(env.Stdout, opts.output, data); err != nil {
			return err
		}
		if opts.output != "" {
			fmt.Fprintf(env.Stderr, "Wrote %s\n", opts.output)
		}
	}

	printCost(env.Stderr, res.Cost)
	if summary, err := a.ledger.Summary(ctx); err == nil {
		printAlert(env.Stderr, a.ledger.Alert(summary.TotalCost))
	}
	return nil
}

func generatableNames() []string {
	ps := platform.Generatable()
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.String()
	}
	return names
}
