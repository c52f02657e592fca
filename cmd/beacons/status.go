package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/srg/beacons/pkg/config"
)

type hostStatus struct {
	Capability string `json:"capability"`
	Supported  bool   `json:"supported"`
	Bluetooth  *bool  `json:"bluetooth"`
	Location   *bool  `json:"location"`
	Error      string `json:"error,omitempty"`
}

func newStatusCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show BLE support and adapter state",
		Long: `Report whether this host can scan for BLE beacons, which backend was
selected, and whether Bluetooth and location services are on.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", config.FormatTable, "Output format (table, json)")
	return cmd
}

func runStatus(cmd *cobra.Command, format string) error {
	if format != config.FormatTable && format != config.FormatJSON {
		return fmt.Errorf("invalid format '%s': must be one of [table json]", format)
	}
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	reactive, release := newReactive(cfg, logger)
	defer release()

	st := hostStatus{
		Capability: reactive.Capability().String(),
		Supported:  reactive.IsSupported(),
	}
	if st.Supported {
		if on, err := reactive.IsBluetoothOn(); err != nil {
			st.Error = FormatUserError(err)
		} else {
			st.Bluetooth = &on
		}
		if on, err := reactive.IsLocationServiceOn(); err != nil && st.Error == "" {
			st.Error = FormatUserError(err)
		} else if err == nil {
			st.Location = &on
		}
	}

	out := cmd.OutOrStdout()
	if format == config.FormatJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(st)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Capability:\t%s\n", st.Capability)
	fmt.Fprintf(w, "Supported:\t%s\n", yesNo(st.Supported))
	fmt.Fprintf(w, "Bluetooth:\t%s\n", onOff(st.Bluetooth))
	fmt.Fprintf(w, "Location:\t%s\n", onOff(st.Location))
	if st.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", st.Error)
	}
	return w.Flush()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func onOff(v *bool) string {
	switch {
	case v == nil:
		return "unknown"
	case *v:
		return "on"
	default:
		return "off"
	}
}
