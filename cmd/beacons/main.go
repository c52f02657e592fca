package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// formatVersion adds 'v' prefix if version starts with a digit
func formatVersion(ver string) string {
	if len(ver) > 0 && unicode.IsDigit(rune(ver[0])) {
		return "v" + ver
	}
	return ver
}

// newRootCmd builds the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "beacons",
		Short: "BLE beacon discovery tool",
		Long: `Command-line front end for reactive Bluetooth Low Energy beacon discovery:

- Scan nearby beacons and estimate their distance and proximity
- Filter by proximity, distance, name and hardware address
- Watch a live table of the latest record per beacon
- Check and enable the Bluetooth adapter

Scanning uses the BlueZ D-Bus service when it is reachable and falls back to
raw HCI sockets otherwise; see --backend.`,
		Version: formatVersion(version),
		// main() prints clean errors
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("beacons {{.Version}} (commit %s, built %s)\n", commit, date))

	// Global flags
	flags := root.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("verbose", false, "Enable debug logging")
	flags.String("backend", "", "Scan backend (auto, modern, legacy)")
	flags.String("adapter", "", "BlueZ adapter id, e.g. hci1")
	flags.Int("hci-index", 0, "HCI device index for the legacy backend")

	// Add -v as a short flag for --version
	root.Flags().BoolP("version", "v", false, "Show version information")

	root.AddCommand(newScanCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newEnableCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Ctrl+C is a normal exit, not an error - exit silently
		if errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", FormatUserError(err))
		os.Exit(1)
	}
}
