package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUsageCmd(a *app) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded model calls and estimated cost",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			closeApp, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp()

			if a.store == nil {
				return errors.New("usage database is not available")
			}

			var since time.Time
			if days > 0 {
				since = time.Now().AddDate(0, 0, -days)
			}
			summary, err := a.store.GetUsageSummary(since)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Calls:  %d (%d failed)\n", summary.Calls, summary.FailedCalls)
			fmt.Fprintf(w, "Tokens: %d in / %d out\n", summary.InputTokens, summary.OutputTokens)
			fmt.Fprintf(w, "Cost:   $%.4f\n", summary.CostUSD)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 30, "Only count the last N days (0 for all time)")

	return cmd
}
