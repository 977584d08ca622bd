package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/roasted-ledger/roasted"
	"github.com/roasted-ledger/roasted/roasted/internal/fastcolor"

	date "github.com/joyt/godate"
	"github.com/juztin/numeronym"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var startString, endString string
var payeeFilter string

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:     "register [account-substring-filter]...",
	Aliases: []string{"reg"},
	Short:   "Print applied postings with running totals per unit",
	Run: func(cmd *cobra.Command, args []string) {
		resolveColumns(cmd)

		journal, err := loadJournal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		state, _ := roasted.NewEvaluator().Evaluate(journal)

		begin := time.Time{}
		end := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
		if startString != "" {
			if begin, err = date.Parse(startString); err != nil {
				fmt.Fprintf(os.Stderr, "unable to parse begin date %q\n", startString)
				os.Exit(1)
			}
		}
		if endString != "" {
			if end, err = date.Parse(endString); err != nil {
				fmt.Fprintf(os.Stderr, "unable to parse end date %q\n", endString)
				os.Exit(1)
			}
		}

		trans := make([]*roasted.Transaction, len(state.Transactions))
		copy(trans, state.Transactions)
		sort.SliceStable(trans, func(a, b int) bool { return trans[a].Date.Before(trans[b].Date) })

		columns := columnWidth
		if columns < 50 {
			columns = 50
			fmt.Fprintf(os.Stderr, "warning: `columns` too small, setting to %d\n", columns)
		}
		remaining := columns - 10 - (2 * 15) - 4
		payeeWidth := remaining / 3
		acctWidth := remaining - payeeWidth

		buf := bufio.NewWriter(os.Stdout)
		running := make(map[roasted.UnitID]decimal.Decimal)
		for _, t := range trans {
			if t.Date.Before(begin) || t.Date.After(end) {
				continue
			}
			if payeeFilter != "" && t.Payee != payeeFilter {
				continue
			}
			for _, p := range t.Postings {
				name := state.Symbols.AccountName(p.Account)
				if !inFilter(name, args) {
					continue
				}
				unit := state.Symbols.UnitName(p.Amount.Unit)
				running[p.Amount.Unit] = running[p.Amount.Unit].Add(p.Amount.Nominal)
				total := running[p.Amount.Unit]

				payee := t.Payee
				if payee == "" {
					payee = t.Title
				}
				if utf8.RuneCountInString(payee) > payeeWidth {
					payee = string(numeronym.Parse([]byte(payee)))
				}

				buf.WriteString(t.Date.Format("2006-01-02"))
				buf.WriteString(" ")
				fastcolor.Bold.WriteStringFixed(buf, payee, payeeWidth, false)
				buf.WriteString(" ")
				fastcolor.FgBlue.WriteStringFixed(buf, name, acctWidth, false)
				buf.WriteString(" ")
				amtColor := fastcolor.Reset
				if p.Amount.Nominal.IsNegative() {
					amtColor = fastcolor.FgRed
				}
				amtColor.WriteStringFixed(buf, p.Amount.Nominal.StringFixedBank(2)+" "+unit, 15, true)
				buf.WriteString(" ")
				totColor := fastcolor.Reset
				if total.IsNegative() {
					totColor = fastcolor.FgRed
				}
				totColor.WriteStringFixed(buf, total.StringFixedBank(2)+" "+unit, 15, true)
				buf.WriteString("\n")
			}
		}
		buf.Flush()
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&startString, "begin-date", "b", "", "Begin date of transaction processing.")
	registerCmd.Flags().StringVarP(&endString, "end-date", "e", "", "End date of transaction processing.")
	registerCmd.Flags().StringVar(&payeeFilter, "payee", "", "Only show transactions with this exact payee.")
	registerCmd.Flags().IntVar(&columnWidth, "columns", 80, "Set a column width for output.")
	registerCmd.Flags().BoolVar(&columnWide, "wide", false, "Wide output (use terminal width).")
}
