package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// SettingsStore reads user settings from a TOML file. Nested tables are
// flattened into dotted keys, so
//
//	[features]
//	overlay = false
//
// is read as GetBool("features.overlay", ...). A missing file yields an empty
// store where every getter returns its default.
type SettingsStore struct {
	path   string
	logger *zap.Logger

	values   atomic.Pointer[map[string]any]
	loadOnce sync.Once
	version  atomic.Uint64
}

// NewSettingsStore creates a store for the file at path. Loading is lazy.
func NewSettingsStore(path string, logger *zap.Logger) *SettingsStore {
	return &SettingsStore{path: path, logger: logger}
}

// Path returns the settings file path.
func (s *SettingsStore) Path() string {
	return s.path
}

// Reload re-reads the file. On a parse error the previous values are kept.
func (s *SettingsStore) Reload() error {
	raw := make(map[string]any)
	if _, err := toml.DecodeFile(s.path, &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.swap(map[string]any{})
			return nil
		}
		return fmt.Errorf("parse settings %s: %w", s.path, err)
	}

	flat := make(map[string]any)
	flatten("", raw, flat)
	s.swap(flat)
	return nil
}

// Version increments on every successful reload.
func (s *SettingsStore) Version() uint64 {
	return s.version.Load()
}

func (s *SettingsStore) swap(values map[string]any) {
	s.values.Store(&values)
	s.version.Add(1)
}

func (s *SettingsStore) snapshot() map[string]any {
	s.loadOnce.Do(func() {
		if s.values.Load() != nil {
			return
		}
		if err := s.Reload(); err != nil {
			s.logger.Warn("failed to load settings, using defaults", zap.Error(err))
			s.swap(map[string]any{})
		}
	})
	return *s.values.Load()
}

// Watch reloads the store whenever the file changes, until ctx is done.
// onChange, if non-nil, runs after each successful reload.
func (s *SettingsStore) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save; watch the directory.
	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	name := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != name {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("settings reload failed, keeping previous values", zap.Error(err))
				continue
			}
			s.logger.Info("settings reloaded", zap.String("path", s.path))
			if onChange != nil {
				onChange()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("settings watcher error", zap.Error(err))
		}
	}
}

func (s *SettingsStore) GetBool(key string, def bool) bool {
	if v, ok := s.snapshot()[key].(bool); ok {
		return v
	}
	return def
}

func (s *SettingsStore) GetString(key, def string) string {
	if v, ok := s.snapshot()[key].(string); ok {
		return v
	}
	return def
}

func (s *SettingsStore) GetFloat(key string, def float64) float64 {
	switch v := s.snapshot()[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return def
}

// GetStrings accepts an array of strings. Arrays with non-string items fall
// back to def.
func (s *SettingsStore) GetStrings(key string, def []string) []string {
	items, ok := s.snapshot()[key].([]any)
	if !ok {
		return def
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, ok := item.(string)
		if !ok {
			return def
		}
		out = append(out, str)
	}
	return out
}

// GetTime accepts a TOML datetime or an RFC 3339 string.
func (s *SettingsStore) GetTime(key string, def time.Time) time.Time {
	switch v := s.snapshot()[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return def
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// Ensure SettingsStore implements domain.SettingsReader.
var _ domain.SettingsReader = (*SettingsStore)(nil)
