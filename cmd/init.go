package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fewx/gfsproc/internal/templates"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Args:  cobra.MaximumNArgs(1),
	Short: "Scaffold a gfsproc.yml for a resource group",
	Long: `Initialize a gfsproc workspace:
  - A starter gfsproc.yml with the resource group, jumpbox and scale set names
  - A .gfsproc/logs/ directory for run logs

The names are collected with an interactive prompt. Run 'gfsproc lint' on the
result before the first run.`,
	Run: func(cmd *cobra.Command, args []string) {
		targetDir := "."
		if len(args) > 0 {
			targetDir = args[0]
		}

		data, canceled := RunInitTUI()
		if canceled {
			fmt.Println("✖ gfsproc init canceled.")
			return
		}

		if targetDir != "." {
			cobra.CheckErr(os.MkdirAll(targetDir, 0755))
		}

		outPath := filepath.Join(targetDir, "gfsproc.yml")
		mustNotExist(outPath)

		fmt.Printf("↪ scaffolding %s ...\n", outPath)

		cobra.CheckErr(os.MkdirAll(filepath.Join(targetDir, ".gfsproc", "logs"), 0755))
		cobra.CheckErr(templates.WriteTpl(templates.ConfigTemplate, outPath, data))

		fmt.Printf("✓ %s initialized for resource group %q!\n", outPath, data.ResourceGroup)
	},
}

// Helper to avoid overwriting a file or directory
func mustNotExist(path string) {
	if _, err := os.Stat(path); err == nil {
		cobra.CheckErr(fmt.Errorf("refusing to overwrite existing file or directory: %s", path))
	}
}
