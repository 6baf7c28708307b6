package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/points-app/points_app/internal/rates"
)

var setRateCmd = &cobra.Command{
	Use:   "set-rate [country] [currency] [rate]",
	Short: "Set the local currency rate for one US dollar",
	Long: `Store the exchange rate for a country and drop its cached copy, so quotes
and new checkouts use it immediately.

Examples:
  pointsctl set-rate Nigeria NGN 1650.50`,
	Args: cobra.ExactArgs(3),
	RunE: runSetRate,
}

func runSetRate(cmd *cobra.Command, args []string) error {
	value, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("rate %q is not a number: %w", args[2], err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	svc, closeFn, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	rate := rates.Rate{CountryName: args[0], Currency: args[1], RechargeRate: value}
	if err := svc.Rates.SetRate(ctx, rate); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "country=%s currency=%s recharge_rate=%s\n", args[0], args[1], value)
	return nil
}
