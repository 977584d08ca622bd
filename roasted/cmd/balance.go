package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/roasted-ledger/roasted"
	"github.com/roasted-ledger/roasted/roasted/internal/fastcolor"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var balanceDepth int
var showZeroBalances bool
var columnWidth int
var columnWide bool

func resolveColumns(cmd *cobra.Command) {
	if !cmd.Flags().Changed("columns") && conf.Columns > 0 {
		columnWidth = conf.Columns
	}
	if columnWide {
		columnWidth = 132
		fd := int(os.Stdout.Fd())
		if term.IsTerminal(fd) {
			if tw, _, err := term.GetSize(fd); err == nil {
				columnWidth = tw
			}
		}
	}
}

// balanceCmd represents the balance command
var balanceCmd = &cobra.Command{
	Use:     "balance [account-substring-filter]...",
	Aliases: []string{"bal"},
	Short:   "Print account balances per unit",
	Run: func(cmd *cobra.Command, args []string) {
		resolveColumns(cmd)

		journal, err := loadJournal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		state, _ := roasted.NewEvaluator().Evaluate(journal)

		columns := columnWidth
		if columns < 20 {
			columns = 20
			fmt.Fprintf(os.Stderr, "warning: `columns` too small, setting to %d\n", columns)
		}
		accWidth := columns - 15

		type balLine struct {
			account string
			unit    string
			amount  string
			neg     bool
		}
		var lines []balLine
		for _, name := range sortedStrings(state.Symbols.Accounts()) {
			aid, _ := state.Symbols.LookupAccount(name)
			if !inFilter(name, args) {
				continue
			}
			if balanceDepth >= 0 && strings.Count(name, ":")+1 > balanceDepth {
				continue
			}
			units := make([]string, 0, len(state.Balances[aid]))
			for uid := range state.Balances[aid] {
				units = append(units, state.Symbols.UnitName(uid))
			}
			sort.Strings(units)
			for _, u := range units {
				bal := state.Balance(name, u)
				if bal.IsZero() && !showZeroBalances {
					continue
				}
				lines = append(lines, balLine{account: name, unit: u, amount: bal.StringFixedBank(2), neg: bal.IsNegative()})
			}
		}

		buf := bufio.NewWriter(os.Stdout)
		for _, l := range lines {
			fastcolor.FgBlue.WriteStringFixed(buf, l.account, accWidth, false)
			buf.WriteString(" ")
			amtColor := fastcolor.Reset
			if l.neg {
				amtColor = fastcolor.FgRed
			}
			amtColor.WriteStringFixed(buf, l.unit+" "+l.amount, 14, true)
			buf.WriteString("\n")
		}
		buf.Flush()
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().IntVar(&balanceDepth, "depth", -1, "Only show accounts up to this depth, -1 for all.")
	balanceCmd.Flags().BoolVar(&showZeroBalances, "zero", false, "Show accounts with zero balances.")
	balanceCmd.Flags().IntVar(&columnWidth, "columns", 80, "Set a column width for output.")
	balanceCmd.Flags().BoolVar(&columnWide, "wide", false, "Wide output (use terminal width).")
}

func inFilter(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, f := range filters {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

func sortedStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
