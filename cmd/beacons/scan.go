package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/device"
	"github.com/srg/beacons/internal/host"
	"github.com/srg/beacons/pkg/config"
	"github.com/srg/beacons/scanner"
)

// newReactive builds the facade a command works with and a release func for
// the host handle. Tests replace it.
var newReactive = func(cfg *config.Config, logger *logrus.Logger) (*scanner.ReactiveBeacons, func()) {
	h := host.New(cfg.HostOptions(logger)...)
	release := func() {
		if err := h.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close host handle")
		}
	}
	return scanner.New(h, cfg.ScannerOptions(logger)...), release
}

// watchInterval is how often --watch reprints the table
var watchInterval = time.Second

type scanOptions struct {
	duration time.Duration
	format   string
	watch    bool
	stale    time.Duration
	txPower  string

	proximity        []string
	excludeProximity []string
	names            []string
	addresses        []string
	excludeAddresses []string
	closerThan       float64
	fartherThan      float64
}

func newScanCmd() *cobra.Command {
	opts := &scanOptions{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan for BLE beacons",
		Long: `Scan for Bluetooth Low Energy beacons in the vicinity.

Every advertisement becomes a beacon record with an estimated distance and a
proximity bucket (IMMEDIATE below 1 m, NEAR up to 3 m, FAR beyond). Records
repeating the previous one are dropped, and the latest record per address is
printed when the scan ends.

Filters of the same flag match any of their values; different flags must all match.`,
		Example: `  beacons scan --duration 10s
  beacons scan --proximity immediate,near --format json
  beacons scan --watch --exclude-address AA:BB:CC:DD:EE:FF --stale 30s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.DurationVarP(&opts.duration, "duration", "d", 0, "Scan duration (0 scans until interrupted)")
	flags.StringVarP(&opts.format, "format", "f", config.FormatTable, "Output format (table, json)")
	flags.BoolVarP(&opts.watch, "watch", "w", false, "Continuously reprint the latest records")
	flags.DurationVar(&opts.stale, "stale", 0, "In watch mode, drop beacons unseen for this long (0 keeps them)")
	flags.StringVar(&opts.txPower, "tx-power", config.TxPowerFixed, "Tx power source for distance (fixed, advertised)")
	flags.StringSliceVar(&opts.proximity, "proximity", nil, "Only show beacons in these proximity buckets")
	flags.StringSliceVar(&opts.excludeProximity, "exclude-proximity", nil, "Hide beacons in these proximity buckets")
	flags.StringSliceVar(&opts.names, "name", nil, "Only show beacons advertising these names")
	flags.StringSliceVar(&opts.addresses, "address", nil, "Only show beacons with these hardware addresses")
	flags.StringSliceVar(&opts.excludeAddresses, "exclude-address", nil, "Hide beacons with these hardware addresses")
	flags.Float64Var(&opts.closerThan, "closer-than", 0, "Only show beacons closer than this many meters")
	flags.Float64Var(&opts.fartherThan, "farther-than", 0, "Only show beacons farther than this many meters")
	return cmd
}

func runScan(cmd *cobra.Command, opts *scanOptions) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("duration") {
		cfg.ScanTimeout = opts.duration
	}
	if flags.Changed("format") {
		cfg.OutputFormat = opts.format
	}
	if flags.Changed("tx-power") {
		cfg.TxPower = opts.txPower
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.stale < 0 {
		return fmt.Errorf("invalid stale duration %s: must not be negative", opts.stale)
	}

	filters, err := opts.filters(flags.Changed)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	reactive, release := newReactive(cfg, logger)
	defer release()

	if !reactive.IsSupported() {
		return beacon.NewError(beacon.UnsupportedPlatform, "no BLE scanning capability")
	}

	ctx, cancel := scanContext(cmd.Context(), cfg.ScanTimeout, cmd.ErrOrStderr())
	defer cancel()

	tracker := scanner.NewTracker(logger)
	sub := reactive.Observe().Filter(filters...).Subscribe(ctx)
	defer sub.Cancel()

	out := cmd.OutOrStdout()
	r := &renderer{out: out, format: cfg.OutputFormat, interactive: isTerminal(out)}

	if opts.watch {
		err = watch(ctx, tracker, sub, r, opts.stale)
	} else {
		err = tracker.Track(ctx, sub, nil)
	}
	if err != nil && !isScanEnd(err) {
		logger.WithError(err).Error("Scan failed")
		return err
	}
	return r.render(tracker.Snapshot())
}

// filters builds one predicate per filter flag that was set
func (o *scanOptions) filters(changed func(string) bool) ([]beacon.Predicate, error) {
	var preds []beacon.Predicate

	if len(o.proximity) > 0 {
		ps, err := parseProximities(o.proximity)
		if err != nil {
			return nil, err
		}
		preds = append(preds, beacon.ProximityIn(ps...))
	}
	// NotIn matches as soon as one value differs, so excluding several
	// values is the negation of In
	if len(o.excludeProximity) > 0 {
		ps, err := parseProximities(o.excludeProximity)
		if err != nil {
			return nil, err
		}
		preds = append(preds, beacon.Not(beacon.ProximityIn(ps...)))
	}
	if len(o.names) > 0 {
		preds = append(preds, beacon.NameIn(o.names...))
	}
	if len(o.addresses) > 0 {
		addrs, err := parseAddresses(o.addresses)
		if err != nil {
			return nil, err
		}
		preds = append(preds, beacon.HardwareAddressIn(addrs...))
	}
	if len(o.excludeAddresses) > 0 {
		addrs, err := parseAddresses(o.excludeAddresses)
		if err != nil {
			return nil, err
		}
		preds = append(preds, beacon.Not(beacon.HardwareAddressIn(addrs...)))
	}
	if changed("closer-than") {
		if o.closerThan <= 0 {
			return nil, fmt.Errorf("invalid --closer-than %v: must be positive", o.closerThan)
		}
		preds = append(preds, beacon.DistanceLessThan(o.closerThan))
	}
	if changed("farther-than") {
		if o.fartherThan < 0 {
			return nil, fmt.Errorf("invalid --farther-than %v: must not be negative", o.fartherThan)
		}
		preds = append(preds, beacon.DistanceGreaterThan(o.fartherThan))
	}
	return preds, nil
}

func parseProximities(values []string) ([]beacon.Proximity, error) {
	ps := make([]beacon.Proximity, 0, len(values))
	for _, v := range values {
		p, err := beacon.ParseProximity(v)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

func parseAddresses(values []string) ([]beacon.HardwareAddress, error) {
	addrs := make([]beacon.HardwareAddress, 0, len(values))
	for _, v := range values {
		a, err := beacon.ParseHardwareAddress(v)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// scanContext ends on timeout (when positive) or on Ctrl+C
func scanContext(parent context.Context, timeout time.Duration, notice io.Writer) (context.Context, context.CancelFunc) {
	ctx, cancelTimeout := parent, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancelTimeout = context.WithTimeout(parent, timeout)
	}
	ctx, cancel := context.WithCancel(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(notice, "\nCtrl+C pressed, stopping scan...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
		cancelTimeout()
	}
}

func isScanEnd(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// watch tracks sub in the background and reprints the snapshot every watchInterval
func watch(ctx context.Context, tracker *scanner.Tracker, sub *scanner.Subscription, r *renderer, stale time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- tracker.Track(ctx, sub, nil)
	}()

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			r.clear()
			return err
		case <-ticker.C:
			if stale > 0 {
				tracker.Evict(time.Now().Add(-stale))
			}
			r.clear()
			if err := r.render(tracker.Snapshot()); err != nil {
				return err
			}
		}
	}
}

type renderer struct {
	out         io.Writer
	format      string
	interactive bool
}

func (r *renderer) render(beacons []*beacon.Beacon) error {
	records := newScanRecords(beacons)

	if r.format == config.FormatJSON {
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, "No beacons discovered")
		return err
	}

	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ADDRESS\tNAME\tRSSI\tTX POWER\tDISTANCE\tLAST SEEN\tVENDOR\tPROXIMITY")
	for _, rec := range records {
		b := rec.beacon
		name, ok := b.Name()
		if !ok {
			name = "-"
		}
		vendor := "-"
		if rec.vendor != nil {
			vendor = rec.vendor.Name
		}

		// Proximity is the last column so color codes don't disturb alignment
		fmt.Fprintf(w, "%s\t%s\t%d dBm\t%d dBm\t%.2f m\t%s\t%s\t%s\n",
			b.Address(), truncate(name, maxNameWidth), b.RSSI(), b.TxPower(), b.Distance(),
			b.SeenAt().Format(time.TimeOnly), truncate(vendor, maxNameWidth), r.proximity(b.Proximity()))
	}
	return w.Flush()
}

// maxNameWidth caps free-text table cells, in characters
const maxNameWidth = 20

// truncate shortens s to at most limit runes, marking the cut with "..."
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// scanRecord is a beacon as printed by scan, with the vendor decoded from its
// manufacturer data
type scanRecord struct {
	beacon *beacon.Beacon
	vendor *device.Vendor
}

func newScanRecords(beacons []*beacon.Beacon) []scanRecord {
	records := make([]scanRecord, 0, len(beacons))
	for _, b := range beacons {
		rec := scanRecord{beacon: b}
		if v, ok := device.DescribeManufacturer(b.ManufacturerData()); ok {
			rec.vendor = &v
		}
		records = append(records, rec)
	}
	return records
}

type vendorJSON struct {
	CompanyID uint16 `json:"company_id"`
	Name      string `json:"name"`
	Frame     string `json:"frame,omitempty"`
}

// MarshalJSON adds a "vendor" object to the beacon encoding
func (r scanRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.beacon)
	if err != nil || r.vendor == nil {
		return data, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	v := vendorJSON{CompanyID: r.vendor.CompanyID, Name: r.vendor.Name}
	if r.vendor.Frame != nil {
		v.Frame = r.vendor.String()
	}
	if fields["vendor"], err = json.Marshal(v); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (r *renderer) proximity(p beacon.Proximity) string {
	if !r.interactive || color.NoColor {
		return p.String()
	}

	var c *color.Color
	switch p {
	case beacon.Immediate:
		c = color.New(color.FgGreen, color.Bold)
	case beacon.Near:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	return c.Sprint(p.String())
}

// clear resets the terminal between watch frames
func (r *renderer) clear() {
	if r.interactive {
		fmt.Fprint(r.out, "\033[2J\033[H")
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
