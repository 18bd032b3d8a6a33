package iotdb

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/config"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
)

// Store persists metric snapshots into Apache IoTDB and serves history
// queries from it. It implements warehouse.HistoryStore.
//
// Availability is probed once during Connect. A store that fails its probe
// still constructs, but every data-path method becomes a silent no-op; there
// is no background reconnection.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines. Snapshot writes are serialised internally so per-device
// timestamps stay strictly increasing across concurrent callers.
type Store struct {
	pool    SessionPool
	version Version
	logger  *logging.Logger

	available bool
	mu        sync.RWMutex

	// writeMu serialises snapshot writes so per-device timestamps stay
	// strictly increasing across concurrent callers.
	writeMu sync.Mutex
}

// Connect initialises the IoTDB warehouse store.
//
// It performs the following:
//  1. Validates config (disabled returns ErrDisabled)
//  2. Creates a REST session pool and pings the backend
//  3. Ensures the storage database exists (v1.0 and later)
//  4. Applies the configured retention TTL
//
// Connectivity and setup failures do not return an error: the store is
// handed back in the unavailable state so the rest of the system keeps
// running without history persistence. Only a disabled backend fails
// construction outright.
//
// Parameters:
//   - ctx: Context for cancellation during the probe
//   - cfg: IoTDB configuration from config.yaml
//   - logger: Structured logger, annotated with the store component
//
// Returns:
//   - *Store: Store ready for use (possibly unavailable)
//   - error: ErrDisabled when the backend is switched off in config
func Connect(ctx context.Context, cfg config.IoTDBConfig, logger *logging.Logger) (*Store, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	log := logger.With("component", "warehouse.iotdb")

	endpoint := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	if len(cfg.NodeURLs) > 0 {
		endpoint = "http://" + strings.TrimPrefix(cfg.NodeURLs[0], "http://")
	}

	s := &Store{
		pool:    NewRESTPool(endpoint, cfg.Username, cfg.Password, cfg.QueryTimeout),
		version: versionFromTag(cfg.Version),
		logger:  log,
	}

	if err := s.pool.Ping(ctx); err != nil {
		log.Error("iotdb probe failed, history persistence disabled",
			"endpoint", endpoint, "error", err)
		return s, nil
	}

	if err := s.ensureDatabase(ctx); err != nil {
		log.Error("iotdb database setup failed, history persistence disabled",
			"error", err)
		return s, nil
	}

	s.mu.Lock()
	s.available = true
	s.mu.Unlock()

	s.initRetention(ctx, cfg.ExpireTime)

	log.Info("iotdb store connected",
		"endpoint", endpoint, "version", cfg.Version)
	return s, nil
}

// Available reports whether the startup probe succeeded. Once false it
// stays false for the lifetime of the store.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Close tears down the session pool. Safe to call on an unavailable store.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	s.available = false
	s.mu.Unlock()

	return s.pool.Close()
}

// ensureDatabase creates the storage namespace when missing. Pre-1.0
// backends auto-create storage groups on first insert, so only newer
// versions need the explicit statement.
func (s *Store) ensureDatabase(ctx context.Context) error {
	if s.version != V10 {
		return nil
	}

	rs, err := s.pool.ExecuteQuery(ctx, sqlShowDatabases)
	if err != nil {
		return err
	}

	exists := false
	for rs.Next() {
		rec := rs.Record()
		for _, v := range rec.Values {
			if name, ok := v.(string); ok && name == storageGroup {
				exists = true
			}
		}
	}
	if cerr := rs.Close(); cerr != nil {
		return cerr
	}
	if rs.Err() != nil {
		return rs.Err()
	}
	if exists {
		return nil
	}

	return s.pool.ExecuteStatement(ctx, fmt.Sprintf(sqlCreateDatabase, storageGroup))
}

// initRetention applies the configured TTL to the storage namespace.
// "-1" cancels any existing TTL, any other non-empty value sets one, and
// failures are logged but never fatal.
func (s *Store) initRetention(ctx context.Context, expireTime string) {
	if expireTime == "" {
		return
	}

	var err error
	if expireTime == "-1" {
		err = s.pool.ExecuteStatement(ctx, fmt.Sprintf(sqlUnsetTTL, storageGroup))
	} else {
		err = s.pool.ExecuteStatement(ctx, fmt.Sprintf(sqlSetTTL, storageGroup, expireTime))
	}
	if err != nil {
		s.logger.Warn("iotdb retention setup failed",
			"expire_time", expireTime, "error", err)
	}
}
