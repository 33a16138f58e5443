package infra

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mutecomm/go-sqlcipher/v4" // registers the "sqlite3" (SQLCipher) driver
	_ "modernc.org/sqlite"

	"github.com/AryanVBW/focus-sub000/internal/domain"
)

// Driver names registered by the two SQLite packages.
const (
	driverSQLCipher = "sqlite3"
	driverSQLite    = "sqlite"
)

// SQLEventLog implements domain.EventLog on SQLite. Rows are append-only.
type SQLEventLog struct {
	db   *sql.DB
	path string
}

// NewEncryptedEventLog opens (or creates) an SQLCipher database at path,
// keyed with the key stored at keyPath.
func NewEncryptedEventLog(path, keyPath string) (*SQLEventLog, error) {
	key, err := LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", path, hex.EncodeToString(key))
	return openEventLog(driverSQLCipher, dsn, path)
}

// NewPlainEventLog opens (or creates) an unencrypted database at path.
func NewPlainEventLog(path string) (*SQLEventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return openEventLog(driverSQLite, path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
}

// NewMemoryEventLog opens an in-memory log, used by replay and tests.
func NewMemoryEventLog() (*SQLEventLog, error) {
	return openEventLog(driverSQLite, ":memory:", "")
}

func openEventLog(driver, dsn, path string) (*SQLEventLog, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	// one writer; also keeps :memory: on a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to event log: %w", err)
	}

	l := &SQLEventLog{db: db, path: path}
	if err := l.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return l, nil
}

func (l *SQLEventLog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocked_events (
		id TEXT PRIMARY KEY,
		app_package TEXT NOT NULL,
		content_type TEXT NOT NULL,
		strategy TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_blocked_events_created ON blocked_events(created_at);
	`
	_, err := l.db.Exec(schema)
	return err
}

// Append stores ev, assigning an ID and timestamp when missing.
func (l *SQLEventLog) Append(ctx context.Context, ev domain.BlockedContentEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO blocked_events (id, app_package, content_type, strategy, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ev.ID, ev.AppPackage, ev.ContentType, string(ev.Strategy), ev.Timestamp.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// List returns up to limit events, newest first. limit <= 0 returns all.
func (l *SQLEventLog) List(ctx context.Context, limit int) ([]domain.BlockedContentEvent, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, app_package, content_type, strategy, created_at
		FROM blocked_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []domain.BlockedContentEvent
	for rows.Next() {
		var (
			ev       domain.BlockedContentEvent
			strategy string
			nanos    int64
		)
		if err := rows.Scan(&ev.ID, &ev.AppPackage, &ev.ContentType, &strategy, &nanos); err != nil {
			return nil, err
		}
		ev.Strategy = domain.Strategy(strategy)
		ev.Timestamp = time.Unix(0, nanos)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountByApp returns the number of blocks per package since the given time.
func (l *SQLEventLog) CountByApp(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT app_package, COUNT(*)
		FROM blocked_events
		WHERE created_at >= ?
		GROUP BY app_package`, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			pkg string
			n   int
		)
		if err := rows.Scan(&pkg, &n); err != nil {
			return nil, err
		}
		counts[pkg] = n
	}
	return counts, rows.Err()
}

// Path returns the database file path, empty for in-memory logs.
func (l *SQLEventLog) Path() string {
	return l.path
}

// Close releases the database connection.
func (l *SQLEventLog) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Ensure SQLEventLog implements domain.EventLog.
var _ domain.EventLog = (*SQLEventLog)(nil)
