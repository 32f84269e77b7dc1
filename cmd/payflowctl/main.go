package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "payflowctl",
		Short:         "Operate the Payflow Pro recurring payment reconciler",
		Long:          "payflowctl reads the same environment as the server (PAYFLOW_*, DATABASE_URL, SECRET_MANAGER, ...).",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level to stderr")

	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(checkConfigCmd())

	return rootCmd
}
