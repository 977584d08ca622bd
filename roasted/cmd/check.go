package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/roasted-ledger/roasted"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var toleranceString string
var journalObserve bool

// journalPlugin logs every evaluated statement, mostly useful as a worked
// example of the plugin stream.
type journalPlugin struct{}

func (journalPlugin) Name() string { return "journal" }

func (journalPlugin) Observe(s roasted.Statement, r roasted.Result, _ *roasted.LedgerState) {
	fmt.Printf("%s %s %s\n", s.When().Format("2006-01-02"), s.Keyword(), r.Kind)
}

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate the ledger and report every statement error",
	Run: func(_ *cobra.Command, _ []string) {
		journal, err := loadJournal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		var opts []roasted.EvalOption
		if toleranceString != "" {
			tol, terr := decimal.NewFromString(toleranceString)
			if terr != nil || tol.IsNegative() {
				fmt.Fprintf(os.Stderr, "bad tolerance %q\n", toleranceString)
				os.Exit(1)
			}
			opts = append(opts, roasted.WithTolerance(tol))
		}
		if journalObserve {
			opts = append(opts, roasted.WithPlugin(journalPlugin{}))
		}

		state, results := roasted.NewEvaluator(opts...).Evaluate(journal)

		bad := 0
		for _, r := range results {
			if r.Kind != roasted.ResultOk {
				bad++
				fmt.Printf("%s: %v\n", r.Kind, r.Err)
			}
		}

		pads := make([]*roasted.Pad, 0, len(state.OutstandingPads))
		for _, p := range state.OutstandingPads {
			pads = append(pads, p)
		}
		sort.Slice(pads, func(a, b int) bool {
			if pads[a].Pos.Line != pads[b].Pos.Line {
				return pads[a].Pos.Line < pads[b].Pos.Line
			}
			return pads[a].Pos.Filename < pads[b].Pos.Filename
		})
		for _, p := range pads {
			fmt.Printf("warning: %s: pad of %s never consumed by a balance assertion\n",
				p.Pos, state.Symbols.AccountName(p.Account))
		}

		slog.Debug("checked ledger", "statements", len(results), "errors", bad, "unused_pads", len(pads))
		if bad > 0 {
			os.Exit(2)
		}
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&toleranceString, "tolerance", "", "Maximum difference a balance assertion accepts (default exact).")
	checkCmd.Flags().BoolVar(&journalObserve, "journal", false, "Print every evaluated statement with its result.")
}
