package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/roasted-ledger/roasted"

	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print summary statistics about the ledger",
	Run: func(_ *cobra.Command, _ []string) {
		journal, err := loadJournal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		state, results := roasted.NewEvaluator().Evaluate(journal)

		counts := make(map[string]int)
		var first, last time.Time
		for _, s := range journal.Statements {
			counts[s.Keyword()]++
			when := s.When()
			if when.IsZero() {
				continue
			}
			if first.IsZero() || when.Before(first) {
				first = when
			}
			if when.After(last) {
				last = when
			}
		}
		errors := 0
		for _, r := range results {
			if r.Kind != roasted.ResultOk {
				errors++
			}
		}

		fmt.Printf("%-20s %d\n", "Statements", len(journal.Statements))
		for _, kw := range []string{"unit", "commodity", "open", "close", "price", "pad", "balance", "custom", "transaction"} {
			if counts[kw] > 0 {
				fmt.Printf("  %-18s %d\n", kw, counts[kw])
			}
		}
		fmt.Printf("%-20s %d\n", "Accounts", len(state.Symbols.Accounts()))
		fmt.Printf("%-20s %d\n", "Units", len(state.Symbols.Units()))
		fmt.Printf("%-20s %d\n", "Prices", state.Prices.Len())
		fmt.Printf("%-20s %d\n", "Errors", errors)
		if !first.IsZero() {
			span := durafmt.Parse(last.Sub(first)).LimitFirstN(2)
			fmt.Printf("%-20s %s to %s (%s)\n", "Time span",
				first.Format("2006-01-02"), last.Format("2006-01-02"), span)
		}
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
