package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "freighter",
	Short: "Freighter is a local wallet credential manager",
	Long: `A local credential and session manager for Stellar wallets: it keeps the
recovery phrase and private keys encrypted at rest, gates them behind a
password-derived session, and signs payloads for the wallet UI.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
