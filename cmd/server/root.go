package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "angle-api",
		Short: "Rotation angle classifier with voice-assistant responses",
		Long: `angle-api loads an exported ONNX image classifier and answers with the
rotation angle it predicts for bundled sample images, uploaded images, or a
frame pulled from a live capture service.

Run "angle-api serve" to start the HTTP server. Any other invocation exits
without doing anything.`,
		Args: cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	cmd.AddCommand(newServeCmd())

	return cmd
}
