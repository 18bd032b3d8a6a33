// Ferrite Core - Metrics History Service
//
// This is the main entry point for the Ferrite Core application. Ferrite
// ingests metric snapshots published by collectors over MQTT, persists
// them into a time-series warehouse (Apache IoTDB, with InfluxDB as an
// alternative backend), and serves monitor registry and history queries
// over a REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ferritewatch/ferrite-core/migrations"

	"github.com/ferritewatch/ferrite-core/internal/api"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/config"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/database"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/mqtt"
	"github.com/ferritewatch/ferrite-core/internal/ingest"
	"github.com/ferritewatch/ferrite-core/internal/monitor"
	"github.com/ferritewatch/ferrite-core/internal/warehouse"
	"github.com/ferritewatch/ferrite-core/internal/warehouse/influxdb"
	"github.com/ferritewatch/ferrite-core/internal/warehouse/iotdb"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Ferrite Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the monitor registry database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	monitorRepo := monitor.NewSQLiteRepository(db.DB)

	// Connect the history stores. The configured primary serves API
	// queries; every enabled store receives writes.
	stores, primary, err := connectStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		for _, store := range stores {
			if closeErr := store.Close(); closeErr != nil {
				log.Error("error closing history store", "error", closeErr)
			}
		}
	}()

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Start the snapshot consumer
	consumer := ingest.New(stores, monitorRepo, log)
	if err := consumer.Start(mqttClient); err != nil {
		return fmt.Errorf("starting snapshot consumer: %w", err)
	}

	// Start the REST API
	apiServer, err := api.New(api.Deps{
		Config:  cfg.API,
		Logger:  log,
		Repo:    monitorRepo,
		Store:   primary,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. MQTT
	// 3. History stores
	// 4. Database

	log.Info("Ferrite Core stopped")
	return nil
}

// connectStores initialises every enabled history store, returning them
// in write order plus the configured primary for API reads.
//
// A store whose backend probe fails still joins the list in its
// unavailable no-op state; only a completely misconfigured setup (no
// store enabled at all) is fatal.
func connectStores(ctx context.Context, cfg *config.Config, log *logging.Logger) ([]warehouse.HistoryStore, warehouse.HistoryStore, error) {
	var (
		stores  []warehouse.HistoryStore
		primary warehouse.HistoryStore
	)

	if cfg.Warehouse.IoTDB.Enabled {
		store, err := iotdb.Connect(ctx, cfg.Warehouse.IoTDB, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to IoTDB: %w", err)
		}
		stores = append(stores, store)
		if cfg.Warehouse.Store == config.StoreIoTDB {
			primary = store
		}
	}

	if cfg.Warehouse.InfluxDB.Enabled {
		store, err := influxdb.Connect(ctx, cfg.Warehouse.InfluxDB, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		stores = append(stores, store)
		if cfg.Warehouse.Store == config.StoreInfluxDB {
			primary = store
		}
	}

	if len(stores) == 0 {
		return nil, nil, fmt.Errorf("no history store enabled; enable warehouse.iotdb or warehouse.influxdb")
	}
	if primary == nil {
		primary = stores[0]
		log.Warn("configured primary store is not enabled, using first enabled store",
			"configured", cfg.Warehouse.Store)
	}

	return stores, primary, nil
}

// getConfigPath returns the configuration file path.
// Uses FERRITE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("FERRITE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
