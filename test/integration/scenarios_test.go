//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/blocker"
	"github.com/AryanVBW/focus-sub000/internal/classifier"
	"github.com/AryanVBW/focus-sub000/internal/daemon"
	"github.com/AryanVBW/focus-sub000/internal/domain"
	"github.com/AryanVBW/focus-sub000/internal/infra"
	"github.com/AryanVBW/focus-sub000/internal/metrics"
	"github.com/AryanVBW/focus-sub000/internal/policy"
	"github.com/AryanVBW/focus-sub000/internal/strategy"
	"github.com/AryanVBW/focus-sub000/internal/usecase"
	"github.com/AryanVBW/focus-sub000/test/fixtures"
)

const (
	instagram = "com.instagram.android"
	youtube   = "com.google.android.youtube"
	chrome    = "com.android.chrome"
)

// countingClassifier records how often classification ran.
type countingClassifier struct {
	mu    sync.Mutex
	calls int
	next  domain.Classifier
}

func (c *countingClassifier) Classify(root domain.Node, pkg string) domain.DetectionResult {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.next.Classify(root, pkg)
}

func (c *countingClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// fixedSource hands the monitor the same screen on every poll.
type fixedSource struct {
	pkg  string
	root domain.Node
}

func (s fixedSource) Capture(ctx context.Context) (string, domain.Node, error) {
	return s.pkg, s.root, nil
}

var _ = Describe("Blocking engine", func() {
	var (
		tmpDir       string
		settingsPath string
		store        *infra.SettingsStore
		eventLog     *infra.SQLEventLog
		recorder     *usecase.EventRecorder
		collector    *metrics.Collector
		counter      *countingClassifier
		platform     *fixtures.Platform
		overlays     *fixtures.OverlayHost
		pages        *fixtures.BlockPages
		scheduler    *fixtures.ManualScheduler
		notices      *infra.RecordingPlatform
		gate         *usecase.Gate
	)

	writeSettings := func(content string) {
		Expect(os.WriteFile(settingsPath, []byte(content), 0644)).To(Succeed())
		Expect(store.Reload()).To(Succeed())
	}

	recorded := func() []domain.BlockedContentEvent {
		gate.Wait()
		Expect(recorder.Close()).To(Succeed())
		events, err := eventLog.List(context.Background(), 0)
		Expect(err).NotTo(HaveOccurred())
		return events
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "reelguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		settingsPath = filepath.Join(tmpDir, "settings.toml")
		store = infra.NewSettingsStore(settingsPath, zap.NewNop())

		eventLog, err = infra.NewPlainEventLog(filepath.Join(tmpDir, "events.db"))
		Expect(err).NotTo(HaveOccurred())
		recorder = usecase.NewEventRecorder(eventLog, 16, zap.NewNop())

		registry := policy.NewRegistry()
		collector = metrics.New()
		counter = &countingClassifier{next: classifier.New(registry, classifier.DefaultConfig(), zap.NewNop())}
		platform = fixtures.NewPlatform()
		overlays = &fixtures.OverlayHost{}
		pages = &fixtures.BlockPages{}
		scheduler = &fixtures.ManualScheduler{}
		notices = infra.NewRecordingPlatform(fixtures.Screen, zap.NewNop())

		engine := blocker.NewEngine(platform, overlays, pages, registry, scheduler, blocker.DefaultConfig(), zap.NewNop())
		gate = usecase.NewGate(usecase.GateDeps{
			Settings:   usecase.ReaderSettings{Reader: store, Supported: registry.Packages()},
			Classifier: counter,
			Selector:   strategy.NewSelector(registry, strategy.DefaultThresholds()),
			Executor:   engine,
			Browsers:   registry,
			Notifier:   notices,
			Recorder:   recorder,
			Metrics:    collector,
		}, usecase.DefaultGateConfig(), zap.NewNop())
		gate.MarkReady()
	})

	AfterEach(func() {
		_ = recorder.Close()
		_ = eventLog.Close()
		os.RemoveAll(tmpDir)
	})

	Describe("Reels text in Instagram", func() {
		BeforeEach(func() {
			writeSettings(`
mode = "focus"

[apps]
focus_blocked = []
`)
		})

		It("blocks with a single counter-scroll and records the event", func() {
			root := fixtures.Root(fixtures.N("android.widget.TextView").WithText("Reels"))

			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowContentChanged, PackageName: instagram, Root: root,
			})

			Expect(d.Action).To(Equal(usecase.ActionBlocked))
			Expect(d.ContentType).To(Equal(domain.ContentReels))
			Expect(d.Confidence).To(BeNumerically("~", 0.7, 1e-9))
			Expect(d.Strategy).To(Equal(domain.StrategyCounterScroll))
			Expect(d.Outcome.Winner).To(Equal(blocker.AttemptCounter))
			Expect(platform.GestureNames()).To(Equal([]string{blocker.GestureCounter}))
			Expect(platform.Actions()).To(BeEmpty())

			events := recorded()
			Expect(events).To(HaveLen(1))
			Expect(events[0].AppPackage).To(Equal(instagram))
			Expect(events[0].ContentType).To(Equal("reels"))
			Expect(events[0].Strategy).To(Equal(domain.StrategyCounterScroll))
			Expect(notices.Actions()).To(Equal([]string{"notify"}))
		})

		It("falls back to back-navigation when every gesture is rejected", func() {
			platform.GestureErr = domain.ErrGestureRejected
			root := fixtures.Root(fixtures.N("android.widget.TextView").WithText("Reels"))

			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowContentChanged, PackageName: instagram, Root: root,
			})

			Expect(d.Outcome.Succeeded).To(BeTrue())
			Expect(d.Outcome.Winner).To(Equal(blocker.AttemptBack))
			Expect(platform.Actions()).To(Equal([]domain.GlobalAction{domain.GlobalBack}))
		})
	})

	Describe("YouTube Shorts feed", func() {
		var root *fixtures.Node

		BeforeEach(func() {
			writeSettings("")
			root = fixtures.Root(fixtures.VerticalFeed(3))
		})

		It("runs the enhanced chain and keeps the overlay until it expires", func() {
			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowStateChanged, PackageName: youtube, Root: root,
			})

			Expect(d.ContentType).To(Equal(domain.ContentShorts))
			Expect(d.Confidence).To(BeNumerically(">", 0.9))
			Expect(d.Strategy).To(Equal(domain.StrategyEnhancedScrollDisable))
			Expect(d.Outcome.Winner).To(Equal(blocker.AttemptOverlay))
			Expect(overlays.Active()).To(Equal(1))

			scheduler.Advance(blocker.DefaultOverlayConfig().Duration)
			Expect(overlays.Active()).To(Equal(0))
		})

		It("moves on to the rapid burst when the overlay is rejected", func() {
			overlays.Err = domain.ErrOverlayRejected

			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowStateChanged, PackageName: youtube, Root: root,
			})

			Expect(d.Outcome.Tried).To(Equal([]string{blocker.AttemptOverlay, blocker.AttemptRapid}))
			Expect(d.Outcome.Winner).To(Equal(blocker.AttemptRapid))
			Expect(platform.Actions()).NotTo(ContainElement(domain.GlobalBack))
			series, err := testutil.GatherAndCount(collector.Registry(), "reelguard_blocks_total")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(Equal(1))
		})
	})

	Describe("Adult site in a browser", func() {
		BeforeEach(func() {
			writeSettings(`
[adult]
enabled = true
`)
		})

		It("launches the block page without classifying content", func() {
			root := fixtures.Root(
				fixtures.N("android.widget.EditText").WithID("com.android.chrome:id/url_bar").WithText("m.example.com/search?q=free+porn"),
				fixtures.N("android.widget.TextView").WithText("Reels"),
			)

			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowContentChanged, PackageName: chrome, Root: root,
			})

			Expect(d.Action).To(Equal(usecase.ActionBlocked))
			Expect(d.Strategy).To(Equal(domain.StrategyBlockPage))
			Expect(pages.Launched()).To(Equal([]string{chrome + ":" + blocker.ReasonAdult}))
			Expect(counter.Calls()).To(BeZero())

			events := recorded()
			Expect(events).To(HaveLen(1))
			Expect(events[0].ContentType).To(Equal(domain.EventLabelAdult))
		})
	})

	Describe("App outside the monitored set", func() {
		BeforeEach(func() {
			writeSettings(`
[apps]
monitored = ["com.google.android.youtube"]
`)
		})

		It("never invokes the classifier", func() {
			root := fixtures.Root(fixtures.N("android.widget.TextView").WithText("Reels"))

			d := gate.HandleEvent(context.Background(), domain.AccessibilityEvent{
				Type: domain.EventWindowContentChanged, PackageName: instagram, Root: root,
			})

			Expect(d.Action).To(Equal(usecase.ActionIgnored))
			Expect(counter.Calls()).To(BeZero())
			Expect(platform.GestureNames()).To(BeEmpty())
			Expect(recorded()).To(BeEmpty())
		})
	})

	Describe("Monitor loop", func() {
		BeforeEach(func() {
			writeSettings("")
		})

		It("feeds polled screens to the gate and honours the cooldown", func() {
			source := fixedSource{pkg: instagram, root: fixtures.Root(fixtures.N("android.widget.TextView").WithText("Reels"))}
			monitor := daemon.NewMonitor(daemon.DefaultMonitorConfig(), source, gate, nil, nil, zap.NewNop())

			first := monitor.Poll(context.Background())
			second := monitor.Poll(context.Background())

			Expect(first.Action).To(Equal(usecase.ActionBlocked))
			Expect(second.Action).To(Equal(usecase.ActionSkipped))
			Expect(platform.GestureNames()).To(HaveLen(1))
		})

		It("applies settings edits picked up by the watcher", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() { _ = store.Watch(ctx, nil) }()

			root := fixtures.Root(fixtures.N("android.widget.TextView").WithText("Reels"))
			Eventually(func() string {
				_ = os.WriteFile(settingsPath, []byte("[content]\nreels = false\n"), 0644)
				return gate.HandleEvent(ctx, domain.AccessibilityEvent{
					Type: domain.EventWindowContentChanged, PackageName: instagram, Root: root,
				}).Reason
			}, 3*time.Second, 50*time.Millisecond).Should(Equal("content type allowed"))
		})
	})
})
