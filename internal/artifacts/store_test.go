package artifacts

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), 5*time.Minute, logrus.New())
	require.NoError(t, err)
	return s
}

func TestPersistAndDelete(t *testing.T) {
	s := testStore(t)

	path, err := s.Persist("u1", []byte("frame-bytes"))
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "u1_")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("frame-bytes"), data)

	require.NoError(t, s.Delete(path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDelete_MissingFileIsNoop(t *testing.T) {
	s := testStore(t)
	assert.NoError(t, s.Delete(filepath.Join(s.dir, "never-existed.jpg")))
	assert.NoError(t, s.Delete(filepath.Join(s.dir, "never-existed.jpg")))
}

func TestSweepOnce_RemovesOnlyExpired(t *testing.T) {
	s := testStore(t)

	oldPath, err := s.Persist("u1", []byte("old"))
	require.NoError(t, err)
	freshPath, err := s.Persist("u1", []byte("fresh"))
	require.NoError(t, err)

	// Age one file past the cutoff.
	stale := time.Now().Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(oldPath, stale, stale))

	n, err := s.sweepOnce()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(freshPath)
	assert.NoError(t, err)
}
