package influxdb

import (
	"context"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/config"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
)

// Default timeouts for InfluxDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultQueryTimeout   = 60 * time.Second
)

// Store persists metric snapshots into InfluxDB v2 and serves history
// queries from it. It implements warehouse.HistoryStore.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines. Writes are non-blocking and batched by the underlying
// client.
type Store struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	queryAPI api.QueryAPI
	bucket   string
	logger   *logging.Logger

	queryTimeout time.Duration

	available bool
	mu        sync.RWMutex
}

// Connect initialises the InfluxDB warehouse store.
//
// It performs the following:
//  1. Validates config (disabled returns ErrDisabled)
//  2. Creates the client with token authentication
//  3. Verifies connectivity with a ping
//  4. Configures the non-blocking write API and error drain
//
// A failed ping does not return an error: the store comes back in the
// unavailable state and every data-path method becomes a silent no-op,
// mirroring the IoTDB store's startup policy.
//
// Parameters:
//   - ctx: Context for cancellation during the probe
//   - cfg: InfluxDB configuration from config.yaml
//   - logger: Structured logger, annotated with the store component
//
// Returns:
//   - *Store: Store ready for use (possibly unavailable)
//   - error: ErrDisabled when the backend is switched off in config
func Connect(ctx context.Context, cfg config.InfluxDBConfig, logger *logging.Logger) (*Store, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	log := logger.With("component", "warehouse.influxdb")

	queryTimeout := defaultQueryTimeout
	if cfg.QueryTimeout > 0 {
		queryTimeout = time.Duration(cfg.QueryTimeout) * time.Millisecond
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	s := &Store{
		client:       client,
		bucket:       cfg.Bucket,
		logger:       log,
		queryTimeout: queryTimeout,
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil || !healthy {
		log.Error("influxdb probe failed, history persistence disabled",
			"url", cfg.URL, "error", err)
		return s, nil
	}

	s.writeAPI = client.WriteAPI(cfg.Org, cfg.Bucket)
	s.queryAPI = client.QueryAPI(cfg.Org)

	go s.drainWriteErrors(s.writeAPI.Errors())

	s.mu.Lock()
	s.available = true
	s.mu.Unlock()

	log.Info("influxdb store connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return s, nil
}

// drainWriteErrors logs async write failures from the batching write API.
func (s *Store) drainWriteErrors(errorsCh <-chan error) {
	for err := range errorsCh {
		s.logger.Error("influxdb write failed", "error", err)
	}
}

// Available reports whether the startup probe succeeded.
func (s *Store) Available() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.available
}

// Close flushes pending writes and shuts the client down. Safe to call on
// an unavailable store.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}

	s.mu.Lock()
	s.available = false
	s.mu.Unlock()

	if s.writeAPI != nil {
		s.writeAPI.Flush()
	}
	s.client.Close()
	return nil
}
