package main

import (
	"strings"

	"github.com/joshuapare/memkit/memstats"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newAlphabetsCmd())
}

func newAlphabetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alphabets",
		Short: "List the available histogram symbol sets",
		Long: `The alphabets command lists every histogram symbol set the reports can
render with, from the emptiest bucket symbol to the fullest.

Example:
  membench alphabets
  membench run --alphabet shadow`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlphabets()
		},
	}
}

func runAlphabets() error {
	type alphabetInfo struct {
		Name    string
		Symbols []string
	}

	all := memstats.Alphabets()
	if jsonOut {
		infos := make([]alphabetInfo, 0, len(all))
		for _, a := range all {
			infos = append(infos, alphabetInfo{Name: a.Name(), Symbols: a.Symbols()})
		}
		return printJSON(infos)
	}

	printInfo("Histogram alphabets (empty bucket first):\n\n")
	for _, a := range all {
		printInfo("  %-12s %s\n", a.Name(), strings.Join(a.Symbols(), " "))
	}
	printInfo("\nSelect one with 'membench run --alphabet <name>'.\n")
	return nil
}
