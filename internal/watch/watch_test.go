package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Vagrantfile")
	require.NoError(t, os.WriteFile(path, []byte("Vagrant.configure(\"2\") do |config|\nend\n"), 0o644))

	var calls atomic.Int32
	w, err := New(path, 50*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("# edited\n"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("# edited again\n"), 0o644))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Vagrantfile")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	var calls atomic.Int32
	w, err := New(path, 20*time.Millisecond, func() { calls.Add(1) })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("docs"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope", "Vagrantfile"), 0, func() {})
	assert.Error(t, err)
}

func TestWatcher_CloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Vagrantfile")
	w, err := New(path, 0, func() {})
	require.NoError(t, err)
	assert.Equal(t, path, w.Path())

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
