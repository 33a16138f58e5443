package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Android key codes used for global actions.
const (
	keyCodeBack = 4
	keyCodeHome = 3
)

// fallbackScreen is used until `wm size` has been read successfully.
var fallbackScreen = domain.Rect{Right: 1080, Bottom: 2340}

// CommandRunner executes an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%w: %s", err, msg)
		}
		return out, err
	}
	return out, nil
}

// ADBConfig configures an ADBBridge.
type ADBConfig struct {
	Binary  string
	Serial  string
	Timeout time.Duration
	// BlockPage is the component started for blocked adult content.
	BlockPage string
}

// DefaultADBConfig returns the defaults for a single attached device.
func DefaultADBConfig() ADBConfig {
	return ADBConfig{
		Binary:    "adb",
		Timeout:   5 * time.Second,
		BlockPage: "com.aryanvbw.reelguard/.BlockActivity",
	}
}

// ADBBridge drives an Android device over adb. It implements
// domain.Platform, domain.Notifier and domain.BlockPageLauncher, and reads
// UI hierarchies for the monitor loop. adb has no overlay window support.
type ADBBridge struct {
	config ADBConfig
	runner CommandRunner
	logger *zap.Logger

	mu     sync.Mutex
	screen domain.Rect
	taps   Tapper
}

// NewADBBridge creates a bridge using the adb binary from config.
func NewADBBridge(config ADBConfig, logger *zap.Logger) *ADBBridge {
	return NewADBBridgeWithRunner(config, execRunner{}, logger)
}

// NewADBBridgeWithRunner creates a bridge with a custom command runner.
func NewADBBridgeWithRunner(config ADBConfig, runner CommandRunner, logger *zap.Logger) *ADBBridge {
	if config.Binary == "" {
		config.Binary = "adb"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	b := &ADBBridge{config: config, runner: runner, logger: logger}
	b.taps = b
	return b
}

// RouteTaps sends clicks on dumped nodes to t instead of the device.
// Call before the first DumpUI.
func (b *ADBBridge) RouteTaps(t Tapper) {
	b.taps = t
}

func (b *ADBBridge) shell(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	full := make([]string, 0, len(args)+3)
	if b.config.Serial != "" {
		full = append(full, "-s", b.config.Serial)
	}
	full = append(full, args...)
	return b.runner.Run(ctx, b.config.Binary, full...)
}

// PerformGlobalAction sends the key event for back or home.
func (b *ADBBridge) PerformGlobalAction(action domain.GlobalAction) error {
	var code int
	switch action {
	case domain.GlobalBack:
		code = keyCodeBack
	case domain.GlobalHome:
		code = keyCodeHome
	default:
		return fmt.Errorf("%w: global action %q", domain.ErrUnsupported, action)
	}
	_, err := b.shell(context.Background(), "shell", "input", "keyevent", strconv.Itoa(code))
	return err
}

// DispatchGesture validates g synchronously and plays its strokes in the
// background as straight swipes between each stroke's endpoints. Completion
// is reported through cb.
func (b *ADBBridge) DispatchGesture(g domain.Gesture, cb domain.GestureCallback) error {
	if len(g.Strokes) == 0 {
		return fmt.Errorf("%w: empty gesture", domain.ErrGestureRejected)
	}
	for _, s := range g.Strokes {
		if len(s.Path) < 2 || s.Duration <= 0 {
			return fmt.Errorf("%w: malformed stroke in %s", domain.ErrGestureRejected, g.Name)
		}
	}

	go func() {
		start := time.Now()
		for _, s := range g.Strokes {
			if wait := s.Start - time.Since(start); wait > 0 {
				time.Sleep(wait)
			}
			from, to := s.Path[0], s.Path[len(s.Path)-1]
			_, err := b.shell(context.Background(), "shell", "input", "swipe",
				coord(from.X), coord(from.Y), coord(to.X), coord(to.Y),
				strconv.FormatInt(s.Duration.Milliseconds(), 10))
			if err != nil {
				b.logger.Warn("gesture stroke failed", zap.String("gesture", g.Name), zap.Error(err))
				if cb.OnCancelled != nil {
					cb.OnCancelled()
				}
				return
			}
		}
		if cb.OnCompleted != nil {
			cb.OnCompleted()
		}
	}()
	return nil
}

// Tap taps a screen coordinate.
func (b *ADBBridge) Tap(p domain.Point) error {
	_, err := b.shell(context.Background(), "shell", "input", "tap", coord(p.X), coord(p.Y))
	return err
}

var sizePattern = regexp.MustCompile(`(Physical|Override) size:\s*(\d+)x(\d+)`)

// ScreenBounds returns the display size, preferring an override size.
// The value is cached after the first successful read.
func (b *ADBBridge) ScreenBounds() domain.Rect {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.screen.Empty() {
		return b.screen
	}

	out, err := b.shell(context.Background(), "shell", "wm", "size")
	if err != nil {
		b.logger.Warn("failed to read screen size", zap.Error(err))
		return fallbackScreen
	}
	screen, ok := parseScreenSize(string(out))
	if !ok {
		b.logger.Warn("unrecognized wm size output", zap.String("output", string(out)))
		return fallbackScreen
	}
	b.screen = screen
	return screen
}

func parseScreenSize(out string) (domain.Rect, bool) {
	var found domain.Rect
	for _, m := range sizePattern.FindAllStringSubmatch(out, -1) {
		w, _ := strconv.Atoi(m[2])
		h, _ := strconv.Atoi(m[3])
		found = domain.Rect{Right: w, Bottom: h}
		if m[1] == "Override" {
			break
		}
	}
	return found, !found.Empty()
}

// Notify posts a device notification.
func (b *ADBBridge) Notify(n domain.Notification) error {
	_, err := b.shell(context.Background(), "shell",
		"cmd", "notification", "post", "-S", "bigtext",
		"-t", shellQuote(n.Title), "reelguard", shellQuote(n.Message))
	return err
}

// LaunchBlockPage starts the configured block activity for pkg.
func (b *ADBBridge) LaunchBlockPage(pkg, reason string) error {
	if b.config.BlockPage == "" {
		return domain.ErrUnsupported
	}
	_, err := b.shell(context.Background(), "shell", "am", "start",
		"-n", b.config.BlockPage,
		"--es", "package", pkg,
		"--es", "reason", reason)
	return err
}

// DumpUI reads the current UI hierarchy. Clicks on the returned nodes tap
// through this bridge unless routed elsewhere.
func (b *ADBBridge) DumpUI(ctx context.Context) (*SnapshotNode, error) {
	out, err := b.shell(ctx, "exec-out", "uiautomator", "dump", "/dev/tty")
	if err != nil {
		return nil, fmt.Errorf("ui dump failed: %w", err)
	}
	// uiautomator appends a status line after the document.
	if i := bytes.LastIndex(out, []byte("</hierarchy>")); i >= 0 {
		out = out[:i+len("</hierarchy>")]
	}
	return ParseUIDump(bytes.NewReader(out), b.taps)
}

// Capture returns the foreground package and its UI hierarchy.
func (b *ADBBridge) Capture(ctx context.Context) (string, domain.Node, error) {
	root, err := b.DumpUI(ctx)
	if err != nil {
		return "", nil, err
	}
	pkg := root.Package()
	// With stacked windows the last one may be a keyboard or system overlay.
	if pkg == "" || root.stacked {
		focused, ferr := b.ForegroundPackage(ctx)
		if ferr == nil {
			return focused, root, nil
		}
		b.logger.Debug("focused window lookup failed, using dump package", zap.Error(ferr))
	}
	return pkg, root, nil
}

var focusPattern = regexp.MustCompile(`mCurrentFocus=Window\{[^}]*\s([A-Za-z0-9_.]+)/`)

// ForegroundPackage returns the package owning the focused window.
func (b *ADBBridge) ForegroundPackage(ctx context.Context) (string, error) {
	out, err := b.shell(ctx, "shell", "dumpsys", "window")
	if err != nil {
		return "", err
	}
	m := focusPattern.FindSubmatch(out)
	if m == nil {
		return "", errors.New("no focused window")
	}
	return string(m[1]), nil
}

// Devices lists attached device serials in the "device" state.
func (b *ADBBridge) Devices(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()
	out, err := b.runner.Run(ctx, b.config.Binary, "devices")
	if err != nil {
		return nil, err
	}

	var serials []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == "device" {
			serials = append(serials, fields[0])
		}
	}
	return serials, nil
}

func coord(v float64) string {
	return strconv.Itoa(int(v + 0.5))
}

// shellQuote quotes s for the device shell, which re-parses adb arguments.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Ensure ADBBridge implements the platform interfaces.
var (
	_ domain.Platform          = (*ADBBridge)(nil)
	_ domain.Notifier          = (*ADBBridge)(nil)
	_ domain.BlockPageLauncher = (*ADBBridge)(nil)
	_ Tapper                   = (*ADBBridge)(nil)
)
