package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Verbose    bool
	ConfigPath string
)

var rootCmd = &cobra.Command{
	Use:   "gfsproc",
	Short: "gfsproc runs the FEWX 24 hour GFS gust window processing on Azure",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("gfsproc: start, process, deallocate.")
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "Enable verbose logs to stderr")
	rootCmd.PersistentFlags().StringVarP(&ConfigPath, "config", "c", "gfsproc.yml", "Path to the gfsproc configuration file")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
