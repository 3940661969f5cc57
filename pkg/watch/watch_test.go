package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bastiangx/pdfserve/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresPath(t *testing.T) {
	_, err := New("", nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "doc.pdf"), nil)
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "thesis.pdf")
	w, err := New(source, nil)
	require.NoError(t, err)
	defer w.fsw.Close()

	tests := []struct {
		name string
		file string
		op   fsnotify.Op
		want bool
	}{
		{"write", source, fsnotify.Write, true},
		{"create", source, fsnotify.Create, true},
		{"remove", source, fsnotify.Remove, true},
		{"rename", source, fsnotify.Rename, true},
		{"chmod only", source, fsnotify.Chmod, false},
		{"write with chmod", source, fsnotify.Write | fsnotify.Chmod, true},
		{"other file", filepath.Join(dir, "notes.pdf"), fsnotify.Write, false},
		{"sidecar dump", source + ".lines.json", fsnotify.Create, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.relevant(fsnotify.Event{Name: tt.file, Op: tt.op}))
		})
	}
}

func TestRunDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "thesis.pdf")
	require.NoError(t, os.WriteFile(source, []byte("v1"), 0644))

	var calls atomic.Int32
	w, err := New(source, func(context.Context) { calls.Add(1) },
		WithDebounce(100*time.Millisecond),
		WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	assert.Equal(t, source, w.Path())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(source, []byte("v2"), 0644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	// writes to other files are ignored
	time.Sleep(300 * time.Millisecond)
	before := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, before, calls.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
