package flag

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory implementation of Repository. A single
// mutex serializes map mutations; reads return copies to prevent callers
// from mutating stored state.
type MemoryRepository struct {
	mu    sync.RWMutex
	flags map[string]*Flag
	order []string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		flags: make(map[string]*Flag),
	}
}

// Store persists a new flag keyed by its ID.
func (r *MemoryRepository) Store(_ context.Context, f *Flag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.flags[f.ID]; !exists {
		r.order = append(r.order, f.ID)
	}
	r.flags[f.ID] = f.clone()
	return nil
}

// GetByID retrieves a flag by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.flags[id]
	if !ok {
		return nil, ErrFlagNotFound
	}
	return f.clone(), nil
}

// GetByName retrieves the first flag whose name matches, in insertion order.
// Name uniqueness is not enforced by the store.
func (r *MemoryRepository) GetByName(_ context.Context, name string) (*Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if f, ok := r.flags[id]; ok && f.Name == name {
			return f.clone(), nil
		}
	}
	return nil, ErrFlagNotFound
}

// GetAll retrieves flags matching the filter, up to the filter's limit.
func (r *MemoryRepository) GetAll(_ context.Context, filter ListFilter) ([]Flag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	result := make([]Flag, 0, len(r.flags))
	for _, id := range r.order {
		f, ok := r.flags[id]
		if !ok {
			continue
		}
		if filter.Name != nil && f.Name != *filter.Name {
			continue
		}
		if filter.Value != nil && f.Value != *filter.Value {
			continue
		}
		result = append(result, *f.clone())
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// Update replaces the stored record matching the flag's ID.
func (r *MemoryRepository) Update(_ context.Context, f *Flag) (*Flag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[f.ID]; !ok {
		return nil, ErrFlagNotFound
	}
	r.flags[f.ID] = f.clone()
	return f.clone(), nil
}

// Delete removes the flag with this ID.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flags[id]; !ok {
		return ErrFlagNotFound
	}
	delete(r.flags, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeleteAll removes every flag. Deleting from an empty store is a success.
func (r *MemoryRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.flags = make(map[string]*Flag)
	r.order = nil
	return nil
}

// Ping always succeeds; there is no backend to reach.
func (r *MemoryRepository) Ping(_ context.Context) error {
	return nil
}

// Ensure MemoryRepository implements Repository.
var _ Repository = (*MemoryRepository)(nil)
