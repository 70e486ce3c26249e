package commuter

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no profile exists for an id.
var ErrNotFound = errors.New("commuter not found")

// Directory is the searchable population of commuter profiles.
type Directory interface {
	// All returns every profile in insertion order.
	All(ctx context.Context) ([]Profile, error)
	Get(ctx context.Context, id string) (Profile, error)
	// GetMany returns one entry per id, in the order asked. Unknown ids map
	// to a nil profile.
	GetMany(ctx context.Context, ids []string) ([]*Profile, error)
	// Save fully replaces the profile with the same id, or appends it.
	Save(ctx context.Context, p Profile) error
}

// MemoryDirectory is a Directory held in process memory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Profile
}

// NewMemoryDirectory returns a directory pre-filled with profiles.
func NewMemoryDirectory(profiles ...Profile) *MemoryDirectory {
	d := &MemoryDirectory{byID: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		d.put(p)
	}
	return d
}

func (d *MemoryDirectory) put(p Profile) {
	if _, ok := d.byID[p.ID]; !ok {
		d.order = append(d.order, p.ID)
	}
	d.byID[p.ID] = clone(p)
}

func (d *MemoryDirectory) All(ctx context.Context) ([]Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Profile, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, clone(d.byID[id]))
	}
	return out, nil
}

func (d *MemoryDirectory) Get(ctx context.Context, id string) (Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return clone(p), nil
}

func (d *MemoryDirectory) GetMany(ctx context.Context, ids []string) ([]*Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Profile, len(ids))
	for i, id := range ids {
		if p, ok := d.byID[id]; ok {
			c := clone(p)
			out[i] = &c
		}
	}
	return out, nil
}

func (d *MemoryDirectory) Save(ctx context.Context, p Profile) error {
	if p.ID == "" {
		return errors.New("commuter: save without id")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.put(p)
	return nil
}

// clone keeps callers from sharing the interests backing array with the store.
func clone(p Profile) Profile {
	p.Interests = append([]string(nil), p.Interests...)
	return p
}
