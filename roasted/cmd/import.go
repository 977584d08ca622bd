package cmd

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/roasted-ledger/roasted"
	"github.com/roasted-ledger/roasted/roasted/qif"

	"github.com/jbrukh/bayesian"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var ErrNoMatchingAccount = errors.New("unable to find matching account")

// unknownAccount receives postings the classifier has no confident class for.
const unknownAccount = "Expenses:Unknown"

var csvDateFormat string
var negateAmount bool
var allowMatching bool
var fieldDelimiter string
var scaleFactor float64
var importUnit string

type importer struct {
	journal         *roasted.Journal
	state           *roasted.LedgerState
	matchingAccount string
	decScale        decimal.Decimal
	classifier      *bayesian.Classifier
	out             *bufio.Writer
}

func newImporter(accountSubstring string) (*importer, error) {
	journal, err := loadJournal()
	if err != nil {
		return nil, err
	}
	state, _ := roasted.NewEvaluator().Evaluate(journal)

	imp := &importer{
		journal:  journal,
		state:    state,
		decScale: decimal.NewFromFloat(scaleFactor),
		out:      bufio.NewWriter(os.Stdout),
	}
	if imp.matchingAccount, err = imp.findMatchingAccount(accountSubstring); err != nil {
		return nil, err
	}
	imp.classifier = imp.trainClassifier()
	return imp, nil
}

func (imp *importer) findMatchingAccount(accountSubstring string) (string, error) {
	var match string
	for _, name := range imp.state.Symbols.Accounts() {
		if strings.EqualFold(name, accountSubstring) {
			return name, nil
		}
		if strings.Contains(name, accountSubstring) {
			match = name
		}
	}
	if match == "" {
		return "", ErrNoMatchingAccount
	}
	return match, nil
}

// trainClassifier learns payee words against the accounts that appear
// opposite the matching account in already applied transactions.
func (imp *importer) trainClassifier() *bayesian.Classifier {
	unique := make(map[string]bool)
	for _, name := range imp.state.Symbols.Accounts() {
		unique[name] = true
	}
	classes := make([]bayesian.Class, 0, len(unique))
	for name := range unique {
		classes = append(classes, bayesian.Class(name))
	}
	if len(classes) < 2 {
		return nil
	}

	classifier := bayesian.NewClassifier(classes...)
	matchID, _ := imp.state.Symbols.LookupAccount(imp.matchingAccount)
	for _, t := range imp.state.Transactions {
		touches := false
		for _, p := range t.Postings {
			if p.Account == matchID {
				touches = true
				break
			}
		}
		if !touches {
			continue
		}
		words := strings.Fields(t.Payee)
		if len(words) == 0 {
			words = strings.Fields(t.Title)
		}
		for _, p := range t.Postings {
			if p.Account != matchID {
				classifier.Learn(words, bayesian.Class(imp.state.Symbols.AccountName(p.Account)))
			}
		}
	}
	return classifier
}

func (imp *importer) predictAccount(payeeWords []string) string {
	if imp.classifier == nil || len(payeeWords) == 0 {
		return unknownAccount
	}
	high1, high2 := math.Inf(-1), math.Inf(-1)
	matchIdx := 0
	scores, _, _ := imp.classifier.LogScores(payeeWords)
	for i, score := range scores {
		if score > high1 {
			high2 = high1
			high1 = score
			matchIdx = i
		}
	}
	// wide margin between the top two scores means a confident match
	if high1-high2 > 10 {
		return string(imp.classifier.Classes[matchIdx])
	}
	return unknownAccount
}

func (imp *importer) existingTransaction(date time.Time, payee string) bool {
	for _, t := range imp.state.Transactions {
		if t.Date.Equal(date) && strings.TrimSpace(t.Payee) == strings.TrimSpace(payee) {
			return true
		}
	}
	return false
}

// emit writes one imported transaction in ledger format: the matching
// account on one side, the predicted account on the other.
func (imp *importer) emit(date time.Time, payee string, amount decimal.Decimal, comment string) {
	if negateAmount {
		amount = amount.Neg()
	}
	amount = amount.Mul(imp.decScale)

	syms := imp.journal.Symbols
	unit := syms.InternUnit(importUnit)
	target := syms.InternAccount(imp.predictAccount(strings.Fields(payee)))
	source := syms.InternAccount(imp.matchingAccount)

	t := &roasted.Transaction{
		Date:  date,
		State: roasted.StatePending,
		Title: payee,
		Postings: []roasted.Posting{
			{Account: target, Amount: &roasted.Amount{Nominal: amount, Unit: unit}},
			{Account: source, Amount: &roasted.Amount{Nominal: amount.Neg(), Unit: unit}},
		},
	}
	if comment != "" {
		t.Comments = []string{"; " + comment}
	}
	roasted.WriteStatement(imp.out, t, syms, 80)
	fmt.Fprintln(imp.out)
}

func (imp *importer) importCSV(r *os.File) error {
	csvReader := csv.NewReader(r)
	csvReader.Comma, _ = utf8.DecodeRuneInString(fieldDelimiter)
	records, err := csvReader.ReadAll()
	if err != nil {
		return err
	}
	if len(records) < 1 {
		return errors.New("empty csv file")
	}

	dateColumn, payeeColumn, amountColumn, commentColumn := -1, -1, -1, -1
	for i, name := range records[0] {
		switch name = strings.ToLower(name); {
		case strings.Contains(name, "date"):
			dateColumn = i
		case strings.Contains(name, "description"), strings.Contains(name, "payee"):
			payeeColumn = i
		case strings.Contains(name, "amount"), strings.Contains(name, "expense"):
			amountColumn = i
		case strings.Contains(name, "note"), strings.Contains(name, "comment"):
			commentColumn = i
		}
	}
	if dateColumn < 0 || payeeColumn < 0 || amountColumn < 0 {
		return errors.New("unable to find date, payee and amount columns in csv header")
	}

	for _, record := range records[1:] {
		date, derr := time.Parse(csvDateFormat, record[dateColumn])
		if derr != nil {
			fmt.Fprintf(os.Stderr, "skipping row with bad date %q\n", record[dateColumn])
			continue
		}
		if !allowMatching && imp.existingTransaction(date, record[payeeColumn]) {
			continue
		}
		amount, aerr := decimal.NewFromString(record[amountColumn])
		if aerr != nil {
			amount = decimal.Zero
		}
		comment := ""
		if commentColumn >= 0 {
			comment = record[commentColumn]
		}
		imp.emit(date, record[payeeColumn], amount, comment)
	}
	return nil
}

func (imp *importer) importQIF(r *os.File) error {
	records, err := qif.Parse(r)
	if err != nil {
		return err
	}
	for _, rec := range records {
		date, derr := time.Parse("01/02/2006", rec.Date)
		if derr != nil {
			if date, derr = time.Parse("02/01/2006", rec.Date); derr != nil {
				fmt.Fprintf(os.Stderr, "skipping record with bad date %q\n", rec.Date)
				continue
			}
		}
		if !allowMatching && imp.existingTransaction(date, rec.Payee) {
			continue
		}
		amount, aerr := decimal.NewFromString(strings.ReplaceAll(rec.Amount, ",", ""))
		if aerr != nil {
			fmt.Fprintf(os.Stderr, "skipping record with bad amount %q\n", rec.Amount)
			continue
		}
		imp.emit(date, rec.Payee, amount, rec.Memo)
	}
	return nil
}

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <account-substring> <csv-or-qif-file>",
	Args:  cobra.ExactArgs(2),
	Short: "Import transactions from csv or qif to ledger format",
	Run: func(_ *cobra.Command, args []string) {
		imp, err := newImporter(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		file, err := os.Open(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer file.Close()

		if strings.HasSuffix(strings.ToLower(args[1]), ".qif") {
			err = imp.importQIF(file)
		} else {
			err = imp.importCSV(file)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		imp.out.Flush()
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&negateAmount, "neg", false, "Negate amount column value.")
	importCmd.Flags().BoolVar(&allowMatching, "allow-matching", false, "Have output include imported transactions that\nmatch existing ledger transactions.")
	importCmd.Flags().Float64Var(&scaleFactor, "scale", 1.0, "Scale factor to multiply against every imported amount.")
	importCmd.Flags().StringVar(&csvDateFormat, "date-format", "01/02/2006", "Date format.")
	importCmd.Flags().StringVar(&fieldDelimiter, "delimiter", ",", "Field delimiter.")
	importCmd.Flags().StringVar(&importUnit, "unit", "USD", "Unit code for imported amounts.")
}
