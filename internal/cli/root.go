package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "walletgate",
	Short: "Runtime policy gate for wallet and protocol method calls",
	Long:  "Intercepts state-mutating methods on wallet accounts and protocol instances\nand subjects each call to an ordered chain of authorization policies.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
