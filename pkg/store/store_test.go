package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bastiangx/pdfserve/pkg/cache"
	"github.com/bastiangx/pdfserve/pkg/config"
)

// exerciseBackend runs the behaviour every backend shares.
func exerciseBackend(t *testing.T, s cache.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set(ctx, "k", []byte("v2")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	binary := []byte{0x00, 0xff, 0x81, 0x0a}
	require.NoError(t, s.Set(ctx, "bin", binary))
	got, err = s.Get(ctx, "bin")
	require.NoError(t, err)
	assert.Equal(t, binary, got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrNotFound)

	assert.NoError(t, s.Delete(ctx, "k"), "deleting a missing key")
}

func TestMemory(t *testing.T) {
	exerciseBackend(t, NewMemory())
}

func TestMemoryCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'x'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestFile(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)
	exerciseBackend(t, f)
}

func TestFileSanitizesKeys(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Set(ctx, "../escape/key", []byte("v")))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape_key"+fileExt, entries[0].Name())

	got, err := f.Get(ctx, "../escape/key")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestFileRequiresDir(t *testing.T) {
	_, err := NewFile("")
	assert.Error(t, err)
}

func TestFileCancelledContext(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, f.Set(ctx, "k", []byte("v")), context.Canceled)
}

func TestSQLite(t *testing.T) {
	s, err := NewSQLite(t.TempDir())
	require.NoError(t, err)
	defer s.Close()
	exerciseBackend(t, s)
}

func TestSQLitePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewSQLite(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "k", []byte("kept")))
	require.NoError(t, s.Close())
	assert.Equal(t, filepath.Join(dir, sqliteFile), s.Path())

	reopened, err := NewSQLite(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("kept"), got)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, s := range []cache.Store{NewMemory(), f} {
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Set(ctx, "shared", []byte("value"))
				_, _ = s.Get(ctx, "shared")
			}()
		}
		wg.Wait()

		got, err := s.Get(ctx, "shared")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	testCases := []struct {
		backend string
		check   func(t *testing.T, b Backend)
	}{
		{config.BackendMemory, func(t *testing.T, b Backend) { assert.IsType(t, &Memory{}, b) }},
		{config.BackendFile, func(t *testing.T, b Backend) { assert.IsType(t, &File{}, b) }},
		{config.BackendSQLite, func(t *testing.T, b Backend) { assert.IsType(t, &SQLite{}, b) }},
	}

	for _, tc := range testCases {
		t.Run(tc.backend, func(t *testing.T) {
			b, err := Open(ctx, config.CacheConfig{Backend: tc.backend, Dir: dir})
			require.NoError(t, err)
			defer b.Close()
			tc.check(t, b)
		})
	}

	_, err := Open(ctx, config.CacheConfig{Backend: "tape"})
	assert.Error(t, err)

	_, err = Open(ctx, config.CacheConfig{Backend: config.BackendRedis})
	assert.Error(t, err, "redis without addrs")
}

func TestOpenOrMemoryFallsBack(t *testing.T) {
	b := OpenOrMemory(context.Background(), config.CacheConfig{Backend: config.BackendRedis})
	assert.IsType(t, &Memory{}, b)
}
