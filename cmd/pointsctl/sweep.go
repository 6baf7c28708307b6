package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var sweepTimeout time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one reconciliation pass over stale pending purchases",
	Long: `Fail pending purchases that never received a gateway reference and
re-verify referenced ones older than PENDING_EXPIRY.

Examples:
  pointsctl sweep
  PENDING_EXPIRY=10m pointsctl sweep --timeout 2m`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 5*time.Minute, "abort the pass after this long")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), sweepTimeout)
	defer cancel()

	svc, closeFn, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := svc.Funding.Sweep(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "expired=%d reverified=%d succeeded=%d failed=%d still_pending=%d\n",
		report.Expired, report.Reverified, report.Succeeded, report.Failed, report.StillPending)
	return nil
}
