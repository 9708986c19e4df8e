package cmd

import (
	"fmt"
	"os"

	"github.com/fewx/gfsproc/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(lintCmd)
}

var lintCmd = &cobra.Command{
	Use:   "lint [file]",
	Short: "Validate the syntax and structure of a gfsproc.yml file",
	Long: `Lint checks a gfsproc.yml file for correctness without touching Azure.
It validates required fields (resource group, VM and scale set names, SSH key
and IP file), the storage backend and its credentials file, and the schedule's
cron expression.

Use this command to check your configuration before 'run', 'console' or 'schedule'.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		lintFile := ConfigPath

		if len(args) > 0 {
			lintFile = args[0]
		}

		fmt.Printf("Linting file: %s\n", lintFile)

		cfg, err := config.LoadConfig(lintFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✖ Validation failed: %v\n", err)
			os.Exit(1)
		}

		if cfg.Storage.Backend == "azblob" {
			if _, err := config.LoadStorageCredentials(cfg.Storage.CredentialsFile); err != nil {
				fmt.Fprintf(os.Stderr, "✖ Storage credentials: %v\n", err)
				os.Exit(1)
			}
		}

		fmt.Printf("✓ %s is valid!\n", lintFile)
	},
}
