package cmd

import (
	"context"
	"fmt"

	"github.com/fewx/gfsproc/internal/log"
	"github.com/fewx/gfsproc/internal/models"
	"github.com/fewx/gfsproc/types"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload-params CYCLE YYYYMMDD",
	Args:  cobra.ExactArgs(2),
	Short: "Upload the {date, cycle} parameter record without running the workflow",
	Long: `upload-params writes {"date": ..., "cycle": ...} to the configured local path
and uploads it to the configured container and key, overwriting the previous
record. The processing scripts read this record to decide what to process.`,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := models.NewProcessingRequest(args[0], args[1])
		cobra.CheckErr(err)

		cfg, configDir, err := loadConfig()
		cobra.CheckErr(err)

		ec, err := newExecutionContext(cfg, configDir, "upload-params", currentInitiator("user"), false)
		cobra.CheckErr(err)

		style := types.StyleHuman
		if Verbose {
			style = types.StyleHumanVerbose
		}
		console := log.NewLogger(style)

		ctx := context.Background()
		uploader, err := newUploader(ctx, cfg, runLogger(ec))
		cobra.CheckErr(err)

		console.StartSpinner(fmt.Sprintf("Uploading parameters for %s", req))
		err = uploader.UploadParameters(ctx, req)
		console.StopSpinner()
		cobra.CheckErr(err)

		console.Info("✓ Parameters for %s uploaded to %s", req, cfg.Storage.Key)
	},
}
