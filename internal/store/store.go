// Package store defines the key/value contract the cart persists through and
// opens the configured backend.
package store

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Makepad-fr/gomarket/internal/config"
	"github.com/Makepad-fr/gomarket/internal/store/jsonstore"
	"github.com/Makepad-fr/gomarket/internal/store/memstore"
	"github.com/Makepad-fr/gomarket/internal/store/redisstore"
)

// KV is durable storage addressed by string keys. Get reports ok=false for a
// key that was never set.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

var (
	_ KV = (*memstore.Store)(nil)
	_ KV = (*jsonstore.Store)(nil)
	_ KV = (*redisstore.Store)(nil)
)

const redisConnectAttempts = 5

// Open returns the backend selected by cfg.Store.
func Open(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (KV, error) {
	switch cfg.Store {
	case config.BackendMemory:
		return memstore.New(), nil
	case config.BackendRedis:
		s, err := redisstore.New(cfg.RedisAddr, log)
		if err != nil {
			return nil, err
		}
		if err := s.Initialize(ctx, redisConnectAttempts); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	case config.BackendFile, "":
		s, err := jsonstore.New(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
}
