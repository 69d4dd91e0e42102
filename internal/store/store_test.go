package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/gomarket/internal/config"
	"github.com/Makepad-fr/gomarket/internal/store/jsonstore"
	"github.com/Makepad-fr/gomarket/internal/store/memstore"
	"github.com/Makepad-fr/gomarket/internal/store/redisstore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	log, _ := test.NewNullLogger()
	mr := miniredis.RunT(t)

	cases := []struct {
		name string
		cfg  config.Config
		want any
	}{
		{"memory", config.Config{Store: config.BackendMemory}, &memstore.Store{}},
		{"file", config.Config{Store: config.BackendFile, DataFile: filepath.Join(t.TempDir(), "c.json")}, &jsonstore.Store{}},
		{"redis", config.Config{Store: config.BackendRedis, RedisAddr: mr.Addr()}, &redisstore.Store{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kv, err := Open(ctx, tc.cfg, log)
			require.NoError(t, err)
			defer kv.Close()
			require.IsType(t, tc.want, kv)

			require.NoError(t, kv.Set(ctx, "k", "v"))
			v, ok, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "v", v)
		})
	}
}

func TestOpenUnknown(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := Open(context.Background(), config.Config{Store: "etcd"}, log)
	require.Error(t, err)
}
