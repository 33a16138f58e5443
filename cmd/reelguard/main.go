// Package main is the CLI entry point for reelguard.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/classifier"
	"github.com/AryanVBW/focus-sub000/internal/config"
	"github.com/AryanVBW/focus-sub000/internal/daemon"
	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/infra"
	"github.com/AryanVBW/focus-sub000/internal/metrics"
	"github.com/AryanVBW/focus-sub000/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reelguard",
	Short: "Blocks short-form video feeds and adult content on an Android device",
	Long: `reelguard watches the foreground app of an attached Android device and
steps in when it shows Reels, Shorts, Stories, Spotlight or Explore feeds,
or adult sites in a browser. Detection runs on the accessibility tree;
blocking uses counter-scroll gestures, navigation and back as a last resort.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env for REELGUARD_* overrides
		_ = godotenv.Load()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the attached device and block distracting content",
	Long: `Polls the device over adb, classifies every screen and executes the
selected blocking strategy. Settings are reloaded when the settings file
changes. Use --dry-run to log actions instead of sending them.`,
	RunE: runRun,
}

var classifyCmd = &cobra.Command{
	Use:   "classify <dump.xml>",
	Short: "Classify a saved uiautomator dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

var replayCmd = &cobra.Command{
	Use:   "replay <dump.xml>...",
	Short: "Run saved dumps through the full engine without a device",
	Long: `Feeds each dump to the event gate in order, using the current settings
and a recording platform. Prints the decision and the actions that would
have been sent to the device.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReplay,
}

var appsCmd = &cobra.Command{
	Use:   "apps",
	Short: "List supported apps and browsers",
	RunE:  runApps,
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent blocks",
	RunE:  runEvents,
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Print the effective user settings",
	RunE:  runSettings,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath  string
	dryRun      bool
	packageName string
	eventLimit  int
	eventsSince time.Duration
	jsonOutput  bool
	appPackage  string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Service config file (YAML); environment only when empty")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log blocking actions instead of sending them")
	classifyCmd.Flags().StringVar(&packageName, "package", "", "Package to classify as (defaults to the dump's foreground package)")
	replayCmd.Flags().StringVar(&packageName, "package", "", "Package to replay as (defaults to each dump's foreground package)")
	eventsCmd.Flags().IntVar(&eventLimit, "limit", 20, "Number of events to show")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 24*time.Hour, "Window for per-app totals")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	appsCmd.Flags().StringVar(&appPackage, "package", "", "Show only the app owning this package")

	if env := config.Usage(); env != "" {
		runCmd.Long += "\n\n" + env
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(appsCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := createLogger(cfg)
	defer func() { _ = logger.Sync() }()

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	registry := loadRegistry(cfg, logger)
	settings := infra.NewSettingsStore(cfg.Resolve(cfg.Settings), logger.Named("settings"))

	bridge := infra.NewADBBridge(infra.ADBConfig{
		Binary:    cfg.ADB.Binary,
		Serial:    cfg.ADB.Serial,
		Timeout:   cfg.ADB.CommandTimeout,
		BlockPage: cfg.ADB.BlockPage,
	}, logger.Named("adb"))

	h := host{platform: bridge, pages: bridge, notifier: bridge}
	if dryRun {
		rec := infra.NewRecordingPlatform(domain.Rect{}, logger.Named("dry-run"))
		h = host{platform: rec, overlays: rec, pages: rec, notifier: rec}
		bridge.RouteTaps(rec)
	}

	eventLog, err := openEventLog(cfg)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer eventLog.Close()

	recorder := usecase.NewEventRecorder(eventLog, cfg.EventLog.Buffer, logger.Named("recorder"))
	defer recorder.Close()

	collector := metrics.New()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, logger); err != nil {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	gate := newGate(cfg, registry, h, settings, recorder, collector, logger)
	defer gate.Wait()

	probe := infra.NewBridgeProbe()
	initEngine := func(ctx context.Context) error {
		serials, err := bridge.Devices(ctx)
		if err != nil {
			return fmt.Errorf("adb unavailable (server running: %t): %w", probe.ServerRunning(), err)
		}
		if len(serials) == 0 {
			return errors.New("no device attached")
		}
		screen := bridge.ScreenBounds()
		logger.Info("device ready",
			zap.Strings("devices", serials),
			zap.Int("width", screen.Width()),
			zap.Int("height", screen.Height()))
		return nil
	}
	if err := daemon.InitWithRetry(ctx, initEngine, cfg.Engine.InitRetryDelay, h.notifier, logger); err != nil {
		return err
	}
	gate.MarkReady()

	monitorConfig := daemon.DefaultMonitorConfig()
	monitorConfig.PollInterval = cfg.ADB.PollInterval
	monitor := daemon.NewMonitor(monitorConfig, bridge, gate, settings, probe, logger.Named("monitor"))

	if err := monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry := loadRegistry(cfg, logger)

	root, err := readDump(args[0], nil)
	if err != nil {
		return err
	}
	pkg := packageName
	if pkg == "" {
		pkg = root.Package()
	}

	result := classifier.New(registry, classifierConfig(cfg), logger).Classify(root, pkg)

	fmt.Printf("Package:    %s\n", pkg)
	fmt.Printf("Detected:   %t\n", result.Detected)
	if result.Detected {
		fmt.Printf("Content:    %s\n", result.ContentType)
		fmt.Printf("Signal:     %s\n", result.Signal)
		fmt.Printf("Confidence: %.2f\n", result.Confidence)
		fmt.Printf("Direction:  %s\n", result.ScrollDirection)
	}
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry := loadRegistry(cfg, logger)
	settings := infra.NewSettingsStore(cfg.Resolve(cfg.Settings), logger)

	eventLog, err := infra.NewMemoryEventLog()
	if err != nil {
		return err
	}
	defer eventLog.Close()
	recorder := usecase.NewEventRecorder(eventLog, cfg.EventLog.Buffer, logger)

	rec := infra.NewRecordingPlatform(domain.Rect{}, logger.Named("dry-run"))
	gate := newGate(cfg, registry, host{platform: rec, overlays: rec, pages: rec, notifier: rec}, settings, recorder, nil, logger)
	gate.MarkReady()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DUMP\tPACKAGE\tACTION\tCONTENT\tSTRATEGY\tOUTCOME\tACTIONS")
	for _, path := range args {
		root, err := readDump(path, rec)
		if err != nil {
			return err
		}
		pkg := packageName
		if pkg == "" {
			pkg = root.Package()
		}

		before := len(rec.Actions())
		d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
			Type:        domain.EventWindowContentChanged,
			PackageName: pkg,
			Root:        root,
			At:          time.Now(),
		})
		sent := rec.Actions()[before:]
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			path, pkg, d.Action, describeContent(d.ContentType), d.Strategy,
			describeOutcome(d.Outcome), strings.Join(sent, ","))
	}
	_ = w.Flush()

	gate.Wait()
	_ = recorder.Close()
	events, err := eventLog.List(context.Background(), 0)
	if err != nil {
		return err
	}
	fmt.Printf("\n%d block(s) recorded\n", len(events))
	return nil
}

func runApps(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry := loadRegistry(cfg, logger)

	if appPackage != "" {
		p, err := registry.ProfileFor(appPackage)
		if err != nil {
			return err
		}
		printProfile(p)
		return nil
	}

	fmt.Println("\n=== Supported Apps ===")
	for _, p := range registry.All() {
		printProfile(p)
	}

	fmt.Println("\n=== Browsers ===")
	for _, b := range registry.Browsers() {
		fmt.Printf("  - %s (%s)\n", b.Name, b.Package)
	}
	adult := registry.Adult()
	fmt.Printf("\nAdult lists: %d keywords, %d domains\n", len(adult.Keywords), len(adult.Domains))
	fmt.Println("======================")
	return nil
}

func printProfile(p domain.AppProfile) {
	fmt.Printf("\n[%s] %s\n", p.ID, p.Name)
	fmt.Println("  Packages:")
	for _, pkg := range p.Packages {
		fmt.Printf("    - %s\n", pkg)
	}
	fmt.Printf("  Rules: %d text, %d id, %d url\n", len(p.TextRules), len(p.IDRules), len(p.URLRules))
	if p.Structural {
		fmt.Printf("  Structural: %s\n", p.StructuralType)
	}
	if p.HighEngagement {
		fmt.Println("  High engagement: yes")
	}
	for _, t := range p.SafeTargets {
		fmt.Printf("  Safe target: %s\n", t.Label)
	}
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	eventLog, err := openEventLog(cfg)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer eventLog.Close()

	ctx := context.Background()
	events, err := eventLog.List(ctx, eventLimit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No blocks recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPACKAGE\tCONTENT\tSTRATEGY")
	for _, ev := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ev.Timestamp.Format(time.DateTime), ev.AppPackage, ev.ContentType, ev.Strategy)
	}
	_ = w.Flush()

	counts, err := eventLog.CountByApp(ctx, time.Now().Add(-eventsSince))
	if err != nil {
		return err
	}
	pkgs := make([]string, 0, len(counts))
	for pkg := range counts {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	fmt.Printf("\nLast %s:\n", eventsSince)
	for _, pkg := range pkgs {
		fmt.Printf("  %s: %d\n", pkg, counts[pkg])
	}
	return nil
}

func runSettings(cmd *cobra.Command, args []string) error {
	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	registry := loadRegistry(cfg, logger)
	store := infra.NewSettingsStore(cfg.Resolve(cfg.Settings), logger)
	s := usecase.LoadAppSettings(store, registry.Packages())

	fmt.Printf("Settings file:   %s\n", store.Path())
	fmt.Printf("Mode:            %s\n", s.Mode)
	fmt.Printf("Preference:      %s\n", s.ActionPreference)
	fmt.Printf("Threshold:       %.2f\n", s.ConfidenceThreshold)
	fmt.Printf("Features:        overlay=%t gesture=%t redirect=%t\n", s.OverlayEnabled, s.GestureEnabled, s.RedirectEnabled)
	fmt.Printf("Adult blocking:  %t\n", s.AdultBlockEnabled)
	fmt.Printf("Notifications:   %t\n", s.NotificationsEnabled)
	if s.TemporarilyUnblocked(time.Now()) {
		fmt.Printf("Unblocked until: %s\n", s.TemporaryUnblockUntil.Format(time.RFC3339))
	}

	fmt.Println("Content:")
	for _, ct := range domain.ContentPriority {
		fmt.Printf("  %-10s %t\n", ct, s.IsContentBlocked(ct))
	}
	fmt.Println("Monitored apps:")
	for _, pkg := range sortedKeys(s.MonitoredApps) {
		fmt.Printf("  - %s\n", pkg)
	}
	if s.Mode == domain.ModeFocus {
		fmt.Println("Focus-blocked apps:")
		for _, pkg := range sortedKeys(s.FocusBlockedApps) {
			fmt.Printf("  - %s\n", pkg)
		}
	}
	return nil
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		out, _ := json.Marshal(map[string]string{
			"version":    Version,
			"commit":     Commit,
			"build_time": BuildTime,
		})
		fmt.Println(string(out))
	} else {
		fmt.Printf("reelguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

// readDump parses a saved dump. Clicks on its nodes go to tapper.
func readDump(path string, tapper infra.Tapper) (*infra.SnapshotNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return infra.ParseUIDump(f, tapper)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k, ok := range set {
		if ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
