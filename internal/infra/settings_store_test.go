package infra

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleSettings = `
mode = "focus"

[apps]
monitored = ["com.instagram.android", "com.google.android.youtube"]
focus_blocked = ["com.zhiliaoapp.musically"]

[content]
stories = false

[detection]
confidence_threshold = 0.75

[features]
overlay = false

[unblock]
until = 2026-05-01T10:00:00Z

[limits]
count = 3
mixed = ["a", 1]
`

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSettingsStore_Getters(t *testing.T) {
	s := NewSettingsStore(writeSettings(t, sampleSettings), zap.NewNop())

	assert.Equal(t, "focus", s.GetString("mode", "normal"))
	assert.Equal(t, []string{"com.instagram.android", "com.google.android.youtube"}, s.GetStrings("apps.monitored", nil))
	assert.Equal(t, []string{"com.zhiliaoapp.musically"}, s.GetStrings("apps.focus_blocked", nil))
	assert.False(t, s.GetBool("content.stories", true))
	assert.True(t, s.GetBool("content.reels", true), "absent key returns default")
	assert.Equal(t, 0.75, s.GetFloat("detection.confidence_threshold", 0.5))
	assert.Equal(t, 3.0, s.GetFloat("limits.count", 0), "integers widen to float")
	assert.False(t, s.GetBool("features.overlay", true))
	assert.True(t, s.GetTime("unblock.until", time.Time{}).Equal(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestSettingsStore_WrongTypeReturnsDefault(t *testing.T) {
	s := NewSettingsStore(writeSettings(t, sampleSettings), zap.NewNop())

	assert.Equal(t, "x", s.GetString("features.overlay", "x"))
	assert.True(t, s.GetBool("mode", true))
	assert.Equal(t, []string{"def"}, s.GetStrings("limits.mixed", []string{"def"}))
	assert.Equal(t, 0.1, s.GetFloat("mode", 0.1))
}

func TestSettingsStore_RFC3339String(t *testing.T) {
	s := NewSettingsStore(writeSettings(t, `[unblock]
until = "2026-05-01T10:00:00+02:00"
`), zap.NewNop())

	got := s.GetTime("unblock.until", time.Time{})
	assert.True(t, got.Equal(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)))
}

func TestSettingsStore_MissingFile(t *testing.T) {
	s := NewSettingsStore(filepath.Join(t.TempDir(), "absent.toml"), zap.NewNop())

	assert.Equal(t, "normal", s.GetString("mode", "normal"))
	assert.Nil(t, s.GetStrings("apps.monitored", nil))
}

func TestSettingsStore_BadFileKeepsPrevious(t *testing.T) {
	path := writeSettings(t, `mode = "focus"`)
	s := NewSettingsStore(path, zap.NewNop())
	require.NoError(t, s.Reload())
	v := s.Version()

	require.NoError(t, os.WriteFile(path, []byte("mode = ["), 0644))
	assert.Error(t, s.Reload())
	assert.Equal(t, "focus", s.GetString("mode", "normal"))
	assert.Equal(t, v, s.Version())
}

func TestSettingsStore_Watch(t *testing.T) {
	path := writeSettings(t, `mode = "normal"`)
	s := NewSettingsStore(path, zap.NewNop())
	require.Equal(t, "normal", s.GetString("mode", ""))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() { done <- s.Watch(ctx, func() { changes.Add(1) }) }()

	// the watcher registers asynchronously; keep rewriting until it sees one
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte(`mode = "focus"`), 0644)
		return s.GetString("mode", "") == "focus"
	}, 3*time.Second, 50*time.Millisecond)
	assert.Positive(t, changes.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
