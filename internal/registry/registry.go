// Package registry keeps loaded datasets resident in memory. Each dataset
// sits behind its own exclusive guard; the registry itself only coordinates
// lookup, insertion order and lifecycle.
package registry

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/chatfold/chatfold/internal/history"
	"github.com/chatfold/chatfold/internal/model"
)

// LoadFunc materializes the dataset for a key. It runs at most once per key
// at a time, outside any dataset guard.
type LoadFunc func(ctx context.Context) (*history.Loaded, error)

// Registry is safe for concurrent use.
type Registry struct {
	log   zerolog.Logger
	mu    sync.RWMutex
	order []string
	byKey map[string]*holder
	group singleflight.Group
}

// holder pairs one loaded dataset with its guard. A panic while the guard is
// held poisons the holder: every later access fails until the dataset is
// unloaded and loaded again.
type holder struct {
	mu       sync.Mutex
	poisoned atomic.Bool
	loaded   *history.Loaded
}

func New(log zerolog.Logger) *Registry {
	return &Registry{
		log:   log.With().Str("component", "registry").Logger(),
		byKey: make(map[string]*holder),
	}
}

// Keys lists loaded dataset keys in insertion order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Contains reports whether a key is loaded.
func (r *Registry) Contains(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key]
	return ok
}

// ResolveOrLoad ensures the dataset for key is resident, invoking load when
// it is not. Concurrent calls for the same key share a single load; the
// first error is returned to all of them and nothing is registered.
// Returns true when the dataset was already loaded.
func (r *Registry) ResolveOrLoad(ctx context.Context, key string, load LoadFunc) (bool, error) {
	if r.Contains(key) {
		return true, nil
	}
	_, err, _ := r.group.Do(key, func() (interface{}, error) {
		if r.Contains(key) {
			return nil, nil
		}
		r.log.Info().Str("key", key).Msg("loading dataset")
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.byKey[key]; !ok {
			r.byKey[key] = &holder{loaded: loaded}
			r.order = append(r.order, key)
		}
		r.log.Info().Str("key", key).Str("uuid", string(loaded.Dataset().UUID)).Msg("dataset loaded")
		return nil, nil
	})
	if err != nil {
		return false, err
	}
	return false, nil
}

// With runs fn with the dataset's guard held. fn must not retain the Loaded
// beyond the call. A missing key yields ErrNotLoaded; a poisoned guard
// yields ErrLockUnavailable.
func (r *Registry) With(key string, fn func(*history.Loaded) error) error {
	r.mu.RLock()
	h, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return errors.Wrapf(model.ErrNotLoaded, "dataset with key %q", key)
	}
	return h.with(key, fn)
}

func (h *holder) with(key string, fn func(*history.Loaded) error) (err error) {
	if h.poisoned.Load() {
		return errors.Wrapf(model.ErrLockUnavailable, "dataset %q", key)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	// Re-check: poisoning may have happened while we waited for the guard.
	if h.poisoned.Load() {
		return errors.Wrapf(model.ErrLockUnavailable, "dataset %q", key)
	}
	defer func() {
		if rec := recover(); rec != nil {
			h.poisoned.Store(true)
			err = errors.Wrapf(model.ErrLockUnavailable, "dataset %q poisoned by panic: %v", key, rec)
		}
	}()
	return fn(h.loaded)
}

// Unload removes a dataset. Operations already holding its guard finish
// undisturbed; the key simply stops resolving. Unloading is also the only
// way to clear a poisoned guard, followed by a fresh load.
func (r *Registry) Unload(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[key]; !ok {
		return errors.Wrapf(model.ErrNotLoaded, "dataset with key %q", key)
	}
	delete(r.byKey, key)
	for i, k := range r.order {
		if k == key {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.log.Info().Str("key", key).Msg("dataset unloaded")
	return nil
}
