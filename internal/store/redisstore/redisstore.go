package redisstore

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Store keeps values as plain Redis strings with no expiry.
type Store struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// New builds a client for addr, which is either a redis:// URL or a bare
// host[:port]. It does not touch the network; call Initialize for that.
func New(addr string, log logrus.FieldLogger) (*Store, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("redis address is empty")
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr = addr + ":6379"
		}
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     4,
		}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		client: redis.NewClient(opts),
		log:    log.WithField("component", "redisstore"),
	}, nil
}

// Initialize pings until the server answers, backing off exponentially
// between attempts, or until attempts run out or ctx is done.
func (s *Store) Initialize(ctx context.Context, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	backoff := 100 * time.Millisecond
	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = s.Ping(ctx)
		if lastErr == nil {
			s.log.WithField("attempt", i).Debug("redis reachable")
			return nil
		}
		s.log.WithError(lastErr).WithField("attempt", i).Warn("redis ping failed")
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 5*time.Second {
			backoff = 5 * time.Second
		}
	}
	return errors.Wrapf(lastErr, "redis unreachable after %d attempts", attempts)
}

func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(pingCtx).Err()
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "redis GET")
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis SET")
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
