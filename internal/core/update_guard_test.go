package core

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateGuardSerializesSamePath(t *testing.T) {
	guard := NewUpdateGuard(false)
	path := filepath.Join(t.TempDir(), "repo")

	var updates atomic.Int32
	var running atomic.Int32
	var overlap atomic.Bool
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard.Serialize(path, func(needsUpdate bool) error {
				if running.Add(1) > 1 {
					overlap.Store(true)
				}
				defer running.Add(-1)
				if needsUpdate {
					time.Sleep(10 * time.Millisecond)
					updates.Add(1)
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), updates.Load())
	assert.False(t, overlap.Load())
	assert.True(t, guard.Updated(path))
}

func TestUpdateGuardRetriesAfterFailure(t *testing.T) {
	guard := NewUpdateGuard(false)
	path := t.TempDir()

	err := guard.Serialize(path, func(needsUpdate bool) error {
		require.True(t, needsUpdate)
		return errors.New("fetch failed")
	})
	require.Error(t, err)
	assert.False(t, guard.Updated(path))

	var second bool
	require.NoError(t, guard.Serialize(path, func(needsUpdate bool) error {
		second = needsUpdate
		return nil
	}))
	assert.True(t, second)
}

func TestUpdateGuardDisabled(t *testing.T) {
	guard := NewUpdateGuard(true)
	path := t.TempDir()
	for range 2 {
		require.NoError(t, guard.Serialize(path, func(needsUpdate bool) error {
			assert.False(t, needsUpdate)
			return nil
		}))
	}
}

func TestUpdateGuardKeysByAbsolutePath(t *testing.T) {
	guard := NewUpdateGuard(false)
	dir := t.TempDir()
	require.NoError(t, guard.Serialize(filepath.Join(dir, "a", "..", "repo"), func(bool) error { return nil }))
	assert.True(t, guard.Updated(filepath.Join(dir, "repo")))
}

func TestUpdateGuardsAreIndependent(t *testing.T) {
	path := t.TempDir()
	first := NewUpdateGuard(false)
	require.NoError(t, first.Serialize(path, func(bool) error { return nil }))
	assert.False(t, NewUpdateGuard(false).Updated(path))
}
