package patients

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository persists patient records.
type Repository interface {
	// LoadAll returns every record of a board, newest created first.
	LoadAll(ctx context.Context, owner string) ([]*Patient, error)
	Get(ctx context.Context, id string) (*Patient, error)
	Insert(ctx context.Context, owner string, p *Patient) error
	// Update writes only the patched fields and returns the stored record.
	Update(ctx context.Context, id string, patch Patch) (*Patient, error)
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository keeps records in a map. It backs tests and local runs
// without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	patients map[string]*Patient
	now      func() time.Time
}

// NewInMemoryRepository creates an empty repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		patients: make(map[string]*Patient),
		now:      time.Now,
	}
}

// LoadAll implements Repository.
func (r *InMemoryRepository) LoadAll(ctx context.Context, owner string) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Patient, 0, len(r.patients))
	for _, p := range r.patients {
		if p.OwnerKey == owner {
			out = append(out, p.Clone())
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

// Get implements Repository.
func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return p.Clone(), nil
}

// Insert implements Repository.
func (r *InMemoryRepository) Insert(ctx context.Context, owner string, p *Patient) error {
	stored := p.Clone()
	stored.OwnerKey = owner
	if stored.ID == "" {
		stored.ID = NewID()
		p.ID = stored.ID
	}
	stored.Normalize()

	r.mu.Lock()
	r.patients[stored.ID] = stored
	r.mu.Unlock()
	return nil
}

// Update implements Repository.
func (r *InMemoryRepository) Update(ctx context.Context, id string, patch Patch) (*Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	p.Apply(patch, r.now())
	return p.Clone(), nil
}

// Delete implements Repository.
func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.patients[id]; !ok {
		return ErrPatientNotFound
	}
	delete(r.patients, id)
	return nil
}

func sortByCreatedDesc(list []*Patient) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
