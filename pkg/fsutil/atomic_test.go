package fsutil_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaklabco/trackmcp/pkg/fsutil"
)

func TestWriteAtomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("writes new file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sitemap.xml")

		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("<urlset/>"), 0))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "<urlset/>", string(got))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "sitemap.xml")
		require.NoError(t, os.WriteFile(path, []byte("old"), 0o600))

		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("new"), 0o644))

		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "new", string(got))
	})

	t.Run("applies mode", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("file modes are not enforced on windows")
		}
		path := filepath.Join(t.TempDir(), "config.yml")

		require.NoError(t, fsutil.WriteAtomic(ctx, path, []byte("x"), 0o600))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("leaves no temp files", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		require.NoError(t, fsutil.WriteAtomic(ctx, filepath.Join(dir, "a.txt"), []byte("x"), 0))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("missing directory fails", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "missing", "a.txt")
		require.Error(t, fsutil.WriteAtomic(ctx, path, []byte("x"), 0))
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := fsutil.WriteAtomic(cancelled, filepath.Join(t.TempDir(), "a"), nil, 0)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteAtomicIfChanged(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sitemap.xml")

	written, err := fsutil.WriteAtomicIfChanged(ctx, path, []byte("v1"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("v1"), 0)
	require.NoError(t, err)
	assert.False(t, written)

	written, err = fsutil.WriteAtomicIfChanged(ctx, path, []byte("v2"), 0)
	require.NoError(t, err)
	assert.True(t, written)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}
