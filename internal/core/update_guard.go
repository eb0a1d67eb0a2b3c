package core

import (
	"path/filepath"
	"sync"
)

// UpdateGuard serializes work on a clone cache path and records which
// paths were already updated during one factory run.
type UpdateGuard struct {
	disabled bool

	mu    sync.Mutex
	paths map[string]*guardedPath
}

type guardedPath struct {
	mu      sync.Mutex
	updated bool
}

// NewUpdateGuard returns a guard; skipUpdates turns every update off.
func NewUpdateGuard(skipUpdates bool) *UpdateGuard {
	return &UpdateGuard{
		disabled: skipUpdates,
		paths:    map[string]*guardedPath{},
	}
}

// Serialize runs fn while holding the lock for path. needsUpdate is
// false when the path was already updated in this run or updates are
// disabled. A successful fn marks the path updated.
func (g *UpdateGuard) Serialize(path string, fn func(needsUpdate bool) error) error {
	entry := g.entry(path)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	needsUpdate := !g.disabled && !entry.updated
	if err := fn(needsUpdate); err != nil {
		return err
	}
	if needsUpdate {
		entry.updated = true
	}
	return nil
}

func (g *UpdateGuard) Updated(path string) bool {
	entry := g.entry(path)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.updated
}

func (g *UpdateGuard) entry(path string) *guardedPath {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.paths[key]
	if !ok {
		entry = &guardedPath{}
		g.paths[key] = entry
	}
	return entry
}
