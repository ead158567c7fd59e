package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by Get when the key is absent.
var ErrMiss = errors.New("cache: miss")

// JSON stores JSON values under a namespace. Keys built with Key carry the
// namespace version, so Bump invalidates every entry at once. A nil JSON or
// one without a client degrades to calling the loader every time.
type JSON struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	group     singleflight.Group
	logger    *slog.Logger
}

// NewJSON constructs a namespaced JSON cache.
func NewJSON(client *redis.Client, namespace string, ttl time.Duration) *JSON {
	return &JSON{client: client, namespace: namespace, ttl: ttl, logger: slog.Default()}
}

// WithLogger sets the logger used for degraded reads and writes.
func (c *JSON) WithLogger(logger *slog.Logger) *JSON {
	if logger != nil {
		c.logger = logger
	}
	return c
}

func (c *JSON) enabled() bool {
	return c != nil && c.client != nil
}

func (c *JSON) versionKey() string {
	return c.namespace + ":version"
}

// Version returns the namespace version, initialising it when missing.
func (c *JSON) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, c.versionKey()).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		if err := c.client.SetNX(ctx, c.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, c.versionKey()).Int64()
	case err != nil:
		return 0, err
	case ver <= 0:
		if err := c.client.Set(ctx, c.versionKey(), 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	return ver, nil
}

// Key composes a versioned key inside the namespace.
func (c *JSON) Key(ctx context.Context, parts ...string) (string, error) {
	ns := "cache"
	if c != nil {
		ns = c.namespace
	}
	joined := ns + ":" + strings.Join(parts, ":")
	if !c.enabled() {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// Fetch loads key into dest, populating it with loader on a miss. Concurrent
// misses for the same key share one loader call. Redis failures are logged
// and treated as misses; only loader errors reach the caller.
func (c *JSON) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c.enabled() {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(payload, dest); err == nil {
				return nil
			}
			c.logger.Warn("cache: discarding undecodable entry", slog.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.logger.Warn("cache: read failed, loading", slog.String("key", key), slog.Any("error", err))
		}
	}
	load := func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if c.enabled() {
			if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
				c.logger.Warn("cache: write failed", slog.String("key", key), slog.Any("error", err))
			}
		}
		return raw, nil
	}
	var (
		raw any
		err error
	)
	if c != nil {
		raw, err, _ = c.group.Do(key, load)
	} else {
		raw, err = load()
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), dest)
}

// Get reads an unversioned key.
func (c *JSON) Get(ctx context.Context, key string, dest any) error {
	if !c.enabled() {
		return ErrMiss
	}
	payload, err := c.client.Get(ctx, c.namespace+":"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, dest)
}

// Set writes an unversioned key.
func (c *JSON) Set(ctx context.Context, key string, value any) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.namespace+":"+key, raw, c.ttl).Err()
}

// Bump invalidates every versioned key of the namespace.
func (c *JSON) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.client.Incr(ctx, c.versionKey()).Err()
}
