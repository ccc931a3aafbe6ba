package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/solarsim/app"
	"github.com/kilianp07/solarsim/core/sim"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the configured schedule and export the results",
	RunE:  runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	return withService(func(ctx context.Context, svc *app.Service) error {
		rep, err := svc.Simulate(ctx)
		if err != nil {
			return err
		}
		return printReport(cmd, rep)
	})
}

func printReport(cmd *cobra.Command, rep sim.Report) error {
	out := cmd.OutOrStdout()
	lines := []string{
		fmt.Sprintf("run:            %s", rep.RunID),
		fmt.Sprintf("simulated:      %s -> %s (%d ticks)", rep.Start.Format(time.RFC3339), rep.End.Format(time.RFC3339), rep.Ticks),
		fmt.Sprintf("distance:       %.1f km", rep.Distance/1000),
		fmt.Sprintf("final charge:   %.3f Ah (min %.3f Ah)", rep.FinalCharge, rep.MinCharge),
		fmt.Sprintf("mean velocity:  %.2f m/s", rep.MeanVelocity),
	}
	if rep.Exhausted {
		lines = append(lines, fmt.Sprintf("exhausted after %s", rep.ExhaustedAt))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			return err
		}
	}
	return nil
}
