package cmd

import (
	"bufio"
	"fmt"
	"os"

	"github.com/roasted-ledger/roasted"

	"github.com/spf13/cobra"
)

// printCmd represents the print command
var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the ledger in canonical format",
	Run: func(cmd *cobra.Command, _ []string) {
		resolveColumns(cmd)

		journal, err := loadJournal()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		buf := bufio.NewWriter(os.Stdout)
		if err := roasted.WriteJournal(buf, journal, columnWidth); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		buf.Flush()
	},
}

func init() {
	rootCmd.AddCommand(printCmd)

	printCmd.Flags().IntVar(&columnWidth, "columns", 80, "Set a column width for output.")
	printCmd.Flags().BoolVar(&columnWide, "wide", false, "Wide output (use terminal width).")
}
