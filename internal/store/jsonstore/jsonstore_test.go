package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMissingFileIsEmpty(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "cart.json"))
	require.NoError(t, err)

	_, ok, err := s.Get(context.Background(), "@GoMarketplace:products")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cart.json")

	s, err := New(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", `[{"id":"x"}]`))
	require.NoError(t, s.Set(ctx, "a", "2"))

	reopened, err := New(path)
	require.NoError(t, err)

	v, ok, err := reopened.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", v)

	v, ok, err = reopened.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[{"id":"x"}]`, v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := New(path)
	require.NoError(t, err)
	_, _, err = s.Get(context.Background(), "a")
	require.ErrorContains(t, err, "json unmarshal")
}

func TestDefaultPath(t *testing.T) {
	s, err := New("")
	require.NoError(t, err)
	require.Equal(t, DefaultFileName, filepath.Base(s.Path()))
}
