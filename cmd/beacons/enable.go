package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newEnableCmd() *cobra.Command {
	var (
		location bool
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Power on the Bluetooth adapter",
		Long: `Ask the host to enable Bluetooth, powering on the selected adapter.
With --location, location services are requested as well on hosts that gate
BLE scanning on them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnable(cmd, location, timeout)
		},
	}
	cmd.Flags().BoolVar(&location, "location", false, "Also request location services")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Time to wait for the host")
	return cmd
}

func runEnable(cmd *cobra.Command, location bool, timeout time.Duration) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	reactive, release := newReactive(cfg, logger)
	defer release()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := reactive.RequestBluetoothAccess(ctx); err != nil {
		return fmt.Errorf("failed to enable Bluetooth: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Bluetooth is on")

	if location {
		if err := reactive.RequestLocationAccess(ctx); err != nil {
			return fmt.Errorf("failed to enable location services: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Location services are on")
	}
	return nil
}
