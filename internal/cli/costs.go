package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/alnah/go-contentflow/internal/cost"
	"github.com/alnah/go-contentflow/internal/format"
)

// CostsCmd creates the costs command with subcommands.
func CostsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Show or reset the daily cost ledger",
		Long: `Show or reset the daily cost ledger.

Every generation and recycling run adds its cost to the current day.
The ledger lives in the store selected by cost.store (memory, file or redis).`,
		Example: `  contentflow costs today
  contentflow costs today --date 2025-03-14
  contentflow costs reset`,
	}

	cmd.AddCommand(costsTodayCmd(env))
	cmd.AddCommand(costsResetCmd(env))

	return cmd
}

func costsTodayCmd(env *Env) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Print today's total, request count and alert level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCostsToday(cmd.Context(), env, date, asJSON)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Show another day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	return cmd
}

func costsResetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear today's costs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCostsReset(cmd.Context(), env)
		},
	}
}

func runCostsToday(ctx context.Context, env *Env, date string, asJSON bool) error {
	a, err := setup(ctx, env, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if date == "" {
		date = a.ledger.Today()
	}
	summary, err := a.ledger.Day(ctx, date)
	if err != nil {
		return err
	}
	alert := a.ledger.Alert(summary.TotalCost)

	if asJSON {
		data, err := encodeJSON(struct {
			Summary cost.DaySummary `json:"summary"`
			Alert   cost.Alert      `json:"alert"`
		}{summary, alert})
		if err != nil {
			return err
		}
		_, err = env.Stdout.Write(data)
		return err
	}

	printSummary(env.Stdout, summary)
	printAlert(env.Stdout, alert)
	return nil
}

func runCostsReset(ctx context.Context, env *Env) error {
	a, err := setup(ctx, env, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ledger.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Reset costs for %s\n", a.ledger.Today())
	return nil
}

// printSummary writes a day summary, with a per-model breakdown.
func printSummary(w io.Writer, s cost.DaySummary) {
	fmt.Fprintf(w, "Date:     %s\n", s.Date)
	fmt.Fprintf(w, "Requests: %d\n", s.RequestCount)
	fmt.Fprintf(w, "Total:    %s\n", format.USD(s.TotalCost))

	byModel := make(map[string]float64)
	tokens := make(map[string]int)
	for _, e := range s.Entries {
		byModel[e.Model] += e.TotalCost
		tokens[e.Model] += e.InputTokens + e.OutputTokens
	}
	models := make([]string, 0, len(byModel))
	for m := range byModel {
		models = append(models, m)
	}
	slices.Sort(models)
	for _, m := range models {
		fmt.Fprintf(w, "  %-14s %s (%s tokens)\n", m, format.USD(cost.Round(byModel[m])), format.Tokens(tokens[m]))
	}
}
