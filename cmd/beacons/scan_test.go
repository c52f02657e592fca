package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/srg/beacons/beacon"
	"github.com/srg/beacons/internal/testutils"
	"github.com/srg/beacons/pkg/config"
	"github.com/srg/beacons/scanner"
)

// CommandTestSuite runs commands against a fake host and a scripted strategy
type CommandTestSuite struct {
	suite.Suite

	host     *testutils.FakeHost
	strategy *testutils.ScriptedStrategy
	released int

	originalReactive func(*config.Config, *logrus.Logger) (*scanner.ReactiveBeacons, func())
	originalInterval time.Duration
}

func (s *CommandTestSuite) SetupTest() {
	s.host = testutils.NewFakeHost(scanner.CapabilityModern)
	s.strategy = testutils.NewScriptedStrategy(
		testutils.MustBeacon(s.T(), "AA:BB:CC:DD:EE:01", -59, beacon.WithName("Kitchen"), beacon.WithSeenAt(testutils.SeenAt)),
		testutils.MustBeacon(s.T(), "AA:BB:CC:DD:EE:01", -65, beacon.WithName("Kitchen"), beacon.WithSeenAt(testutils.SeenAt)),
		testutils.MustBeacon(s.T(), "AA:BB:CC:DD:EE:02", -50, beacon.WithSeenAt(testutils.SeenAt)),
	)
	s.strategy.Finite = true
	s.released = 0

	s.originalReactive = newReactive
	s.originalInterval = watchInterval
	newReactive = func(cfg *config.Config, logger *logrus.Logger) (*scanner.ReactiveBeacons, func()) {
		opts := append(cfg.ScannerOptions(logger), scanner.WithStrategyFactory(func(scanner.Capability) (scanner.Strategy, error) {
			return s.strategy, nil
		}))
		return scanner.New(s.host, opts...), func() { s.released++ }
	}
}

func (s *CommandTestSuite) TearDownTest() {
	newReactive = s.originalReactive
	watchInterval = s.originalInterval
}

// execute runs the root command with args and returns stdout
func (s *CommandTestSuite) execute(args ...string) (string, error) {
	root := newRootCmd()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func (s *CommandTestSuite) scannedAddresses(args ...string) []string {
	out, err := s.execute(append([]string{"scan", "--format", "json"}, args...)...)
	s.Require().NoError(err, "scan MUST succeed")

	var records []struct {
		Address string `json:"address"`
	}
	s.Require().NoError(json.Unmarshal([]byte(out), &records), "scan output MUST be a JSON array")

	addrs := make([]string, 0, len(records))
	for _, r := range records {
		addrs = append(addrs, r.Address)
	}
	return addrs
}

func (s *CommandTestSuite) writeConfig(content string) string {
	path := filepath.Join(s.T().TempDir(), "beacons.yaml")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *CommandTestSuite) TestScanTable() {
	out, err := s.execute("scan")
	s.Require().NoError(err, "scan MUST succeed")

	expected := `
ADDRESS            NAME     RSSI     TX POWER  DISTANCE  LAST SEEN  VENDOR  PROXIMITY
AA:BB:CC:DD:EE:01  Kitchen  -65 dBm  -59 dBm   2.00 m    12:00:00   -       NEAR
AA:BB:CC:DD:EE:02  -        -50 dBm  -59 dBm   0.35 m    12:00:00   -       IMMEDIATE
`
	testutils.NewTextAsserter(s.T()).
		WithOptions(testutils.WithTrimSpace(true), testutils.WithIgnoreTrailingWhitespace(true)).
		Assert(out, expected)

	s.Equal(1, s.strategy.Starts(), "scan MUST start exactly one host scan")
	s.GreaterOrEqual(s.strategy.Stops(), 1, "host scan MUST be stopped when the command ends")
	s.Equal(1, s.released, "host handle MUST be released")
}

func (s *CommandTestSuite) TestScanJSON() {
	out, err := s.execute("scan", "--format", "json")
	s.Require().NoError(err, "scan MUST succeed")

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{
			"address": "AA:BB:CC:DD:EE:01",
			"name": "Kitchen",
			"rssi": -65,
			"tx_power": -59,
			"distance": "<<PRESENCE>>",
			"proximity": "NEAR",
			"payload": ""
		},
		{
			"address": "AA:BB:CC:DD:EE:02",
			"name": null,
			"rssi": -50,
			"proximity": "IMMEDIATE"
		}
	]`)
}

func (s *CommandTestSuite) iBeaconData() []byte {
	data, err := hex.DecodeString("4c000215" + "f7826da64fa24e988024bc5b71e0893e" + "0001" + "00ff" + "c5")
	s.Require().NoError(err)
	return data
}

func (s *CommandTestSuite) TestScanShowsVendor() {
	s.strategy.Beacons = []*beacon.Beacon{
		testutils.MustBeacon(s.T(), "AA:BB:CC:DD:EE:03", -59, beacon.WithName("Lobby"),
			beacon.WithManufacturerData(s.iBeaconData()), beacon.WithSeenAt(testutils.SeenAt)),
	}

	out, err := s.execute("scan")
	s.Require().NoError(err, "scan MUST succeed")
	testutils.NewTextAsserter(s.T()).
		WithOptions(testutils.WithTrimSpace(true), testutils.WithIgnoreTrailingWhitespace(true)).
		Assert(out, `
ADDRESS            NAME   RSSI     TX POWER  DISTANCE  LAST SEEN  VENDOR  PROXIMITY
AA:BB:CC:DD:EE:03  Lobby  -59 dBm  -59 dBm   1.00 m    12:00:00   Apple   NEAR
`)

	out, err = s.execute("scan", "--format", "json")
	s.Require().NoError(err, "scan MUST succeed")
	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{
			"address": "AA:BB:CC:DD:EE:03",
			"manufacturer_data": "4c000215f7826da64fa24e988024bc5b71e0893e000100ffc5",
			"vendor": {
				"company_id": 76,
				"name": "Apple",
				"frame": "iBeacon F7826DA6-4FA2-4E98-8024-BC5B71E0893E major=1 minor=255"
			}
		}
	]`)
}

func (s *CommandTestSuite) TestScanTruncatesLongNamesByCharacter() {
	name := strings.Repeat("ä", 25)
	s.strategy.Beacons = []*beacon.Beacon{
		testutils.MustBeacon(s.T(), "AA:BB:CC:DD:EE:04", -59, beacon.WithName(name), beacon.WithSeenAt(testutils.SeenAt)),
	}

	out, err := s.execute("scan")
	s.Require().NoError(err, "scan MUST succeed")
	s.True(utf8.ValidString(out), "truncated table MUST stay valid UTF-8")
	s.Contains(out, strings.Repeat("ä", 17)+"...")
	s.NotContains(out, strings.Repeat("ä", 18))
}

func (s *CommandTestSuite) TestTruncate() {
	s.Equal("Kitchen", truncate("Kitchen", maxNameWidth))
	s.Equal(strings.Repeat("ü", 20), truncate(strings.Repeat("ü", 20), maxNameWidth), "names that fit in characters MUST NOT be cut")
	s.Equal("Conference Room N...", truncate("Conference Room North Wing", maxNameWidth))
}

func (s *CommandTestSuite) TestScanFormatFromConfig() {
	path := s.writeConfig("output_format: json\n")

	out, err := s.execute("scan", "--config", path)
	s.Require().NoError(err, "scan MUST succeed")
	s.True(strings.HasPrefix(strings.TrimSpace(out), "["), "output_format from config MUST select JSON output")
}

func (s *CommandTestSuite) TestScanFilters() {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{"proximity", []string{"--proximity", "immediate"}, []string{"AA:BB:CC:DD:EE:02"}},
		{"proximity list", []string{"--proximity", "immediate,near"}, []string{"AA:BB:CC:DD:EE:01", "AA:BB:CC:DD:EE:02"}},
		{"exclude proximity", []string{"--exclude-proximity", "immediate"}, []string{"AA:BB:CC:DD:EE:01"}},
		{"exclude every proximity", []string{"--exclude-proximity", "immediate,near"}, []string{}},
		{"name", []string{"--name", "Kitchen"}, []string{"AA:BB:CC:DD:EE:01"}},
		{"address", []string{"--address", "AA:BB:CC:DD:EE:02"}, []string{"AA:BB:CC:DD:EE:02"}},
		{"exclude address", []string{"--exclude-address", "AA:BB:CC:DD:EE:02"}, []string{"AA:BB:CC:DD:EE:01"}},
		{"closer than", []string{"--closer-than", "1"}, []string{"AA:BB:CC:DD:EE:02"}},
		{"farther than", []string{"--farther-than", "1"}, []string{"AA:BB:CC:DD:EE:01"}},
		{"combined", []string{"--proximity", "near", "--name", "Lobby"}, []string{}},
		{"far", []string{"--proximity", "FAR"}, []string{}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.Equal(tt.expected, s.scannedAddresses(tt.args...), "filtered scan MUST keep only matching beacons")
		})
	}
}

func (s *CommandTestSuite) TestScanFilterKeepsLatestMatchingRecord() {
	out, err := s.execute("scan", "--format", "json", "--closer-than", "1.5")
	s.Require().NoError(err, "scan MUST succeed")

	testutils.NewJSONAsserter(s.T()).Assert(out, `[
		{"address": "AA:BB:CC:DD:EE:01", "rssi": -59},
		{"address": "AA:BB:CC:DD:EE:02", "rssi": -50}
	]`)
}

func (s *CommandTestSuite) TestScanNoBeacons() {
	s.strategy.Beacons = nil

	out, err := s.execute("scan")
	s.Require().NoError(err, "empty scan MUST succeed")
	s.Equal("No beacons discovered\n", out)

	out, err = s.execute("scan", "--format", "json")
	s.Require().NoError(err, "empty scan MUST succeed")
	s.Equal("[]\n", out, "empty JSON scan MUST print an empty array")
}

func (s *CommandTestSuite) TestScanInvalidArguments() {
	tests := []struct {
		name string
		args []string
		kind error
	}{
		{"unknown proximity", []string{"--proximity", "sideways"}, beacon.ErrInvalidArgument},
		{"invalid address", []string{"--address", "not-an-address"}, beacon.ErrInvalidArgument},
		{"invalid excluded address", []string{"--exclude-address", "AA:BB:CC:DD:EE"}, beacon.ErrInvalidArgument},
		{"unknown format", []string{"--format", "xml"}, nil},
		{"unknown tx power", []string{"--tx-power", "guessed"}, nil},
		{"zero closer than", []string{"--closer-than", "0"}, nil},
		{"negative stale", []string{"--stale=-1s"}, nil},
		{"unknown log level", []string{"--log-level", "loud"}, nil},
		{"unknown backend", []string{"--backend", "serial"}, nil},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.execute(append([]string{"scan"}, tt.args...)...)
			s.Require().Error(err, "invalid arguments MUST fail")
			if tt.kind != nil {
				s.ErrorIs(err, tt.kind)
			}
			s.Zero(s.strategy.Starts(), "invalid arguments MUST NOT start a scan")
		})
	}
}

func (s *CommandTestSuite) TestScanUnsupportedHost() {
	s.host.Cap = scanner.CapabilityNone

	_, err := s.execute("scan")
	s.Require().ErrorIs(err, beacon.ErrUnsupportedPlatform)
	s.Equal("BLE beacon scanning is not supported on this host", FormatUserError(err))
	s.Zero(s.strategy.Starts(), "unsupported host MUST NOT start a scan")
}

func (s *CommandTestSuite) TestScanDurationEndsOpenScan() {
	s.strategy.Finite = false

	out, err := s.execute("scan", "--duration", "50ms")
	s.Require().NoError(err, "scan ended by --duration MUST succeed")
	s.Contains(out, "AA:BB:CC:DD:EE:01")
	s.Contains(out, "AA:BB:CC:DD:EE:02")
	s.GreaterOrEqual(s.strategy.Stops(), 1, "host scan MUST be stopped when the duration elapses")
}

func (s *CommandTestSuite) TestScanStreamFailure() {
	s.strategy.Err = errors.New("adapter exploded")

	_, err := s.execute("scan")
	s.Require().Error(err, "failed stream MUST fail the command")
	s.Contains(err.Error(), "adapter exploded")
}

func (s *CommandTestSuite) TestScanPermissionDenied() {
	s.strategy.StartErr = beacon.NewError(beacon.PermissionDenied, "scan refused")

	out, err := s.execute("scan")
	s.Require().NoError(err, "denied scan MUST complete empty by default")
	s.Equal("No beacons discovered\n", out)

	path := s.writeConfig("surface_permission_errors: true\n")
	_, err = s.execute("scan", "--config", path)
	s.Require().ErrorIs(err, beacon.ErrPermissionDenied, "surface_permission_errors MUST surface the denial")
}

func (s *CommandTestSuite) TestScanWatch() {
	s.strategy.Finite = false
	watchInterval = 10 * time.Millisecond

	out, err := s.execute("scan", "--watch", "--duration", "100ms")
	s.Require().NoError(err, "watch MUST succeed")
	s.GreaterOrEqual(strings.Count(out, "ADDRESS"), 2, "watch MUST reprint the table")
	s.NotContains(out, "\033[2J", "watch MUST NOT clear a non-terminal output")
}

func (s *CommandTestSuite) TestScanWatchEvictsStale() {
	s.strategy.Finite = false
	watchInterval = 10 * time.Millisecond

	// Records are stamped far in the past, so every tick evicts them
	out, err := s.execute("scan", "--watch", "--duration", "100ms", "--stale", "1s")
	s.Require().NoError(err, "watch MUST succeed")
	s.True(strings.HasSuffix(out, "No beacons discovered\n"), "stale beacons MUST be dropped from the table")
}

func TestCommandTestSuite(t *testing.T) {
	suite.Run(t, new(CommandTestSuite))
}
