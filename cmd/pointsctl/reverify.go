package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reverifyCmd = &cobra.Command{
	Use:   "reverify [reference]",
	Short: "Verify one purchase against the gateway",
	Long: `Look up a purchase by its gateway reference and settle it. Safe to repeat:
a purchase that already succeeded is reported without calling the gateway.

Examples:
  pointsctl reverify T123456789`,
	Args: cobra.ExactArgs(1),
	RunE: runReverify,
}

func runReverify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	svc, closeFn, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := svc.Funding.Verify(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reference=%s status=%s coins=%d already_verified=%t credited=%t\n",
		result.Reference, result.Status, result.Coins, result.AlreadyVerified, result.Credited)
	return nil
}
