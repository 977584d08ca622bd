package cmd

import (
	"errors"
	"log/slog"
	"os"

	"github.com/roasted-ledger/roasted"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/pelletier/go-toml"
	"github.com/spf13/cobra"
)

var ledgerFilePath string
var verbose bool

type config struct {
	File    string `toml:"file"`
	Columns int    `toml:"columns"`
}

var conf config

var rootCmd = &cobra.Command{
	Use:   "roasted",
	Short: "Plain text, date ordered, double entry ledger processing",
	Long: `Roasted reads a plain text ledger of dated statements, checks that every
transaction balances, and reports balances, registers and assertion failures.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&ledgerFilePath, "file", "f", "", "Ledger file path, \"-\" for stdin. Falls back to ROASTED_FILE, then roasted.toml.")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log progress to stderr.")
}

func initConfig() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if data, err := os.ReadFile("roasted.toml"); err == nil {
		if terr := toml.Unmarshal(data, &conf); terr != nil {
			slog.Warn("ignoring unreadable roasted.toml", "error", terr)
		}
	}
	if ledgerFilePath == "" {
		ledgerFilePath = os.Getenv("ROASTED_FILE")
	}
	if ledgerFilePath == "" {
		ledgerFilePath = conf.File
	}
}

// loadJournal parses the configured ledger file, or stdin for "-".
func loadJournal() (*roasted.Journal, error) {
	if ledgerFilePath == "" {
		return nil, errors.New("no ledger file: use --file, ROASTED_FILE or roasted.toml")
	}
	if ledgerFilePath == "-" {
		return roasted.ParseLedger(os.Stdin)
	}
	slog.Debug("parsing ledger", "file", ledgerFilePath)
	return roasted.ParseLedgerFile(ledgerFilePath)
}
