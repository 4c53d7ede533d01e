package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"pinscraper/pkg/config"
	"pinscraper/pkg/logger"
)

// RedisMirror copies every snapshot into a redis key and publishes it on a
// channel, so dashboards outside the process can follow a run.
type RedisMirror struct {
	client  *redis.Client
	key     string
	channel string
	ttl     time.Duration
	logger  logger.Logger
}

// NewRedisMirror creates a mirror for cfg. It does not dial until the first publish.
func NewRedisMirror(cfg config.ProgressConfig, log logger.Logger) *RedisMirror {
	return &RedisMirror{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}),
		key:     cfg.RedisKey,
		channel: cfg.RedisChannel,
		ttl:     cfg.RedisTTL,
		logger:  log,
	}
}

// Publish stores snap under the key and announces it on the channel.
func (m *RedisMirror) Publish(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, m.key, data, m.ttl)
	pipe.Publish(ctx, m.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("mirror progress to redis: %w", err)
	}
	return nil
}

// Run publishes snapshots from updates until ctx is done or updates closes.
// Failures are logged and do not affect the run being mirrored.
func (m *RedisMirror) Run(ctx context.Context, updates <-chan Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			pubCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := m.Publish(pubCtx, snap); err != nil {
				m.logger.WarnWithFields("progress mirror failed", map[string]interface{}{
					"run_id": snap.RunID,
					"error":  err.Error(),
				})
			}
			cancel()
		}
	}
}

// Close releases the redis connection pool.
func (m *RedisMirror) Close() error {
	return m.client.Close()
}

// Mirror subscribes m to store and runs it in the background. The returned
// func stops mirroring and closes the client.
func Mirror(ctx context.Context, store *Store, m *RedisMirror) func() {
	updates, unsubscribe := store.Subscribe()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx, updates)
	}()
	return func() {
		cancel()
		unsubscribe()
		<-done
		m.Close()
	}
}
