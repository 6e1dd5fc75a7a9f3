package excelparser

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for rebuild")
	}
}

func assertNoCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
		t.Fatal("unexpected rebuild")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onto.csv")
	require.NoError(t, os.WriteFile(path, []byte("prefLabel\nAtom\n"), 0644))

	w, err := NewWatcher(path, 20*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	calls := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(context.Context) error {
			calls <- struct{}{}
			return errors.New("rebuild errors do not stop the watcher")
		})
	}()

	waitForCall(t, calls)

	require.NoError(t, os.WriteFile(path, []byte("prefLabel\nAtom\nIon\n"), 0644))
	waitForCall(t, calls)

	require.NoError(t, os.WriteFile(path, []byte("prefLabel\nAtom\nIon\n"), 0644))
	assertNoCall(t, calls)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("prefLabel\nX\n"), 0644))
	assertNoCall(t, calls)

	require.NoError(t, os.Remove(path))
	assertNoCall(t, calls)
	require.NoError(t, os.WriteFile(path, []byte("prefLabel\nElectrolyte\n"), 0644))
	waitForCall(t, calls)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcher_Defaults(t *testing.T) {
	w, err := NewWatcher("onto.xlsx", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.debounce)
	assert.True(t, filepath.IsAbs(w.Path()))
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "missing", "onto.xlsx"), 0, nil)
	require.NoError(t, err)
	err = w.Run(context.Background(), func(context.Context) error { return nil })
	assert.Error(t, err)
}
