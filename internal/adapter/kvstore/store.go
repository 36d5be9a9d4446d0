// Package kvstore is the durable list cache: a time-boxed key-value store
// backed by SQLite, the service's stand-in for the browser localStorage the
// map client used to persist coarse entity lists across sessions.
package kvstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// Entry is one persisted cache row: a JSON payload under a key with its
// write timestamp in epoch milliseconds.
type Entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Timestamp int64  `gorm:"column:timestamp"`
	Payload   []byte `gorm:"column:payload"`
}

// TableName fixes the table name independent of gorm pluralization.
func (Entry) TableName() string { return "cache_entries" }

// Store is a TTL key-value cache. Reads of expired entries evict and report
// absent; write failures are logged and swallowed, caching is best-effort.
type Store struct {
	db      *gorm.DB
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Open opens (or creates) the cache database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{
		db:      db,
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
		logger:  logger,
	}, nil
}

// SetClock swaps the time source so tests can advance past the TTL.
// Pass nil to reset to real time.
func (s *Store) SetClock(c clockwork.Clock) {
	if c == nil {
		s.clock = clockwork.NewRealClock()
		return
	}
	s.clock = c
}

// Get unmarshals the cached value for key into dest and reports whether a
// live entry was found. Expired entries are evicted on the way out.
func (s *Store) Get(key string, dest any) bool {
	var entry Entry
	if err := s.db.First(&entry, "key = ?", key).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("cache read failed", "key", key, "error", err)
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			return false
		}
		s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		return false
	}

	age := s.clock.Now().UnixMilli() - entry.Timestamp
	if age > s.ttl.Milliseconds() {
		s.db.Delete(&Entry{}, "key = ?", key)
		s.metrics.CacheLookups.WithLabelValues("expired").Inc()
		return false
	}

	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		s.logger.Warn("cache entry is corrupt, evicting", "key", key, "error", err)
		s.db.Delete(&Entry{}, "key = ?", key)
		s.metrics.CacheLookups.WithLabelValues("error").Inc()
		return false
	}
	s.metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true
}

// Set stores value under key with the current timestamp, replacing any
// previous entry.
func (s *Store) Set(key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache write skipped, value not serializable", "key", key, "error", err)
		return
	}
	entry := Entry{Key: key, Timestamp: s.clock.Now().UnixMilli(), Payload: payload}
	if err := s.db.Save(&entry).Error; err != nil {
		s.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
