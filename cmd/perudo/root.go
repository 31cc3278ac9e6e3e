package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var quiet bool

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "perudo",
		Short: "Perudo, the liar's dice game, over the network or at your desk",
		PersistentPreRun: func(*cobra.Command, []string) {
			if quiet {
				pterm.DefaultLogger.Level = pterm.LogLevelWarn
			}
		},
	}
	root.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log warnings and errors")
	root.AddCommand(localCmd(), serverCmd(), clientCmd())
	return root
}
