package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"streamer-stats/internal/app"
)

var verifyStreamer string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Spot-check that a stored row reads back exactly",
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifyStreamer == "" {
			return fmt.Errorf("--streamer must be provided")
		}
		return getApp().Verify(cmd.Context(), app.VerifyOptions{Streamer: verifyStreamer})
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyStreamer, "streamer", "", "Channel name to verify")
}
