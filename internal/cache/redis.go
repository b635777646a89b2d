package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("herbal.internal.cache")

// Redis stores the snapshot as a hash of id to JSON record.
type Redis struct {
	client  *redis.Client
	owner   string
	version int
	logger  *logging.Logger
}

// NewRedis creates a cache for one board.
func NewRedis(client *redis.Client, owner string, logger *logging.Logger) *Redis {
	if client == nil {
		panic("cache: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Redis{client: client, owner: owner, version: CurrentVersion, logger: logger}
}

// Key is the hash holding the snapshot of owner under a layout version.
func Key(version int, owner string) string {
	return fmt.Sprintf("board:patients:v%d:%s", version, owner)
}

func (c *Redis) key() string {
	return Key(c.version, c.owner)
}

// LoadAll implements Cache. Entries that fail to decode are skipped.
func (c *Redis) LoadAll(ctx context.Context) ([]*patients.Patient, error) {
	ctx, span := tracer.Start(ctx, "cache.load_all", trace.WithAttributes(attribute.String("board.cache_key", c.key())))
	defer span.End()

	entries, err := c.client.HGetAll(ctx, c.key()).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("cache: load all: %w", err)
	}
	out := make([]*patients.Patient, 0, len(entries))
	for id, raw := range entries {
		var p patients.Patient
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			c.logger.Warn("cache: skipping unreadable entry", "patient_id", id, "error", err)
			continue
		}
		p.Normalize()
		out = append(out, &p)
	}
	sortNewestCreated(out)
	span.SetAttributes(attribute.Int("board.patients", len(out)))
	return out, nil
}

// Put implements Cache.
func (c *Redis) Put(ctx context.Context, p *patients.Patient) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("cache: marshal patient: %w", err)
	}
	if err := c.client.HSet(ctx, c.key(), p.ID, data).Err(); err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Delete implements Cache.
func (c *Redis) Delete(ctx context.Context, id string) error {
	if err := c.client.HDel(ctx, c.key(), id).Err(); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Replace implements Cache. The swap is atomic for readers.
func (c *Redis) Replace(ctx context.Context, list []*patients.Patient) error {
	ctx, span := tracer.Start(ctx, "cache.replace", trace.WithAttributes(attribute.Int("board.patients", len(list))))
	defer span.End()

	fields := make(map[string]any, len(list))
	for _, p := range list {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("cache: marshal patient: %w", err)
		}
		fields[p.ID] = data
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.key())
		if len(fields) > 0 {
			pipe.HSet(ctx, c.key(), fields)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache: replace: %w", err)
	}
	return nil
}

// CleanupStale implements Cache.
func (c *Redis) CleanupStale(ctx context.Context) (int, error) {
	pattern := fmt.Sprintf("board:patients:v*:%s", c.owner)
	current := c.key()

	var stale []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if key := iter.Val(); key != current {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("cache: scan stale keys: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := c.client.Del(ctx, stale...).Err(); err != nil {
		return 0, fmt.Errorf("cache: delete stale keys: %w", err)
	}
	c.logger.Info("cache: removed stale snapshots", "keys", stale)
	return len(stale), nil
}
