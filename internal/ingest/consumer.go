package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ferritewatch/ferrite-core/internal/infrastructure/logging"
	"github.com/ferritewatch/ferrite-core/internal/infrastructure/mqtt"
	"github.com/ferritewatch/ferrite-core/internal/metrics"
	"github.com/ferritewatch/ferrite-core/internal/monitor"
	"github.com/ferritewatch/ferrite-core/internal/warehouse"
)

// snapshotQoS is the subscription QoS for collector snapshots. At-least-
// once is enough: duplicate snapshots land as separate timestamped rows.
const snapshotQoS = 1

// saveTimeout bounds how long one snapshot may spend in the stores.
const saveTimeout = 30 * time.Second

// Subscriber is the slice of the MQTT client the consumer needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Consumer decodes collector snapshots and routes them to the history
// stores.
//
// Thread Safety: HandleMessage is safe for concurrent use; the MQTT
// client may deliver messages from multiple goroutines.
type Consumer struct {
	stores []warehouse.HistoryStore
	repo   monitor.Repository
	logger *logging.Logger
}

// New creates a snapshot consumer.
//
// Parameters:
//   - stores: History stores to fan snapshots out to, in order
//   - repo: Monitor registry for last-seen bookkeeping, may be nil
//   - logger: Structured logger, annotated with the ingest component
func New(stores []warehouse.HistoryStore, repo monitor.Repository, logger *logging.Logger) *Consumer {
	return &Consumer{
		stores: stores,
		repo:   repo,
		logger: logger.With("component", "ingest"),
	}
}

// Start subscribes the consumer to the collector metrics namespace.
func (c *Consumer) Start(sub Subscriber) error {
	topic := mqtt.Topics{}.AllMetrics()
	if err := sub.Subscribe(topic, snapshotQoS, c.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	c.logger.Info("snapshot consumer started", "topic", topic)
	return nil
}

// HandleMessage processes one snapshot payload.
//
// The returned error reports decode problems only; persistence failures
// are logged by the stores themselves and do not bounce the message.
func (c *Consumer) HandleMessage(topic string, payload []byte) error {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("snapshot handler panicked", "topic", topic, "panic", r)
		}
	}()

	var snapshot metrics.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("decoding snapshot from %s: %w", topic, err)
	}
	if snapshot.ID <= 0 || snapshot.App == "" || snapshot.Metrics == "" {
		return fmt.Errorf("snapshot from %s missing identity (id=%d app=%q metrics=%q)",
			topic, snapshot.ID, snapshot.App, snapshot.Metrics)
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	if c.repo != nil {
		up := snapshot.Code == metrics.CodeSuccess
		if err := c.repo.MarkSeen(ctx, snapshot.ID, snapshot.App, up, time.Now()); err != nil {
			c.logger.Warn("monitor bookkeeping failed",
				"monitor_id", snapshot.ID, "error", err)
		}
	}

	for _, store := range c.stores {
		store.SaveData(ctx, &snapshot)
	}
	return nil
}
