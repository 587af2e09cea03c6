// Package redisstorage keeps projects in Redis. Each project is a body key
// plus a metadata key, and a set indexes the project names.
package redisstorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/storage"
)

// Backend stores projects in Redis
type Backend struct {
	cfg    config.RedisConfig
	client *redis.Client
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Redis backend. No connection is made until Init.
func New(cfg config.RedisConfig, log *slog.Logger) *Backend {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "tmc"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Backend{cfg: cfg, log: log, now: time.Now}
}

func (b *Backend) bodyKey(name string) string {
	return b.cfg.KeyPrefix + ":project:" + name
}

func (b *Backend) metaKey(name string) string {
	return b.cfg.KeyPrefix + ":meta:" + name
}

func (b *Backend) indexKey() string {
	return b.cfg.KeyPrefix + ":projects"
}

// Init connects and pings the server
func (b *Backend) Init() error {
	b.client = redis.NewClient(&redis.Options{
		Addr:     b.cfg.Addr,
		Password: b.cfg.Password,
		DB:       b.cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := b.client.Ping(ctx).Err(); err != nil {
		_ = b.client.Close()
		b.client = nil
		return fmt.Errorf("failed to connect to redis at %s: %w", b.cfg.Addr, err)
	}
	b.log.Info("Connected to Redis", "component", "redis", "addr", b.cfg.Addr, "prefix", b.cfg.KeyPrefix)
	return nil
}

// Close closes the client
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	err := b.client.Close()
	b.client = nil
	return err
}

// Save writes body, metadata and index entry in one transaction
func (b *Backend) Save(ctx context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	meta, err := json.Marshal(storage.NewInfo(name, data, b.now()))
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, b.bodyKey(name), data, 0)
		pipe.Set(ctx, b.metaKey(name), meta, 0)
		pipe.SAdd(ctx, b.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}

// Load returns the stored body
func (b *Backend) Load(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	data, err := b.client.Get(ctx, b.bodyKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return data, nil
}

// Delete removes every key of the project
func (b *Backend) Delete(ctx context.Context, name string) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}

	var del *redis.IntCmd
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, b.bodyKey(name), b.metaKey(name))
		pipe.SRem(ctx, b.indexKey(), name)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, name)
	}
	return nil
}

// List reads the metadata of every indexed project
func (b *Backend) List(ctx context.Context) ([]storage.ProjectInfo, error) {
	names, err := b.client.SMembers(ctx, b.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	infos := []storage.ProjectInfo{}
	if len(names) == 0 {
		return infos, nil
	}

	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = b.metaKey(n)
	}
	metas, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	for i, m := range metas {
		raw, ok := m.(string)
		if !ok {
			// index entry without metadata; a delete raced the read
			b.log.Debug("Skipping project without metadata", "component", "redis", "name", names[i])
			continue
		}
		var info storage.ProjectInfo
		if err := json.Unmarshal([]byte(raw), &info); err != nil {
			return nil, fmt.Errorf("decode metadata of %s: %w", names[i], err)
		}
		infos = append(infos, info)
	}
	return storage.SortInfos(infos), nil
}
