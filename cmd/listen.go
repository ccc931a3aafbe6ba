package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarsim/app"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Ingest live telemetry and print readouts until stopped",
	RunE:  runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		return svc.Listen(ctx, cmd.OutOrStdout())
	})
}
