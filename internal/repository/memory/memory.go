package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/photoflow/internal/entities"
	"github.com/avolkov/photoflow/internal/repository"
)

// Repository is an in-memory MediaRepository for tests and local runs.
type Repository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entities.Media
	byName  map[string]uuid.UUID // bucket/filename -> id
}

func New() *Repository {
	return &Repository{
		byID:   make(map[uuid.UUID]*entities.Media),
		byName: make(map[string]uuid.UUID),
	}
}

func nameKey(bucket, filename string) string { return bucket + "/" + filename }

func (r *Repository) Insert(ctx context.Context, m *entities.Media) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.byName[nameKey(m.Bucket, m.Filename)]; ok {
		rec := r.byID[existing]
		rec.Size = m.Size
		rec.UpdatedAt = now
		m.ID = existing
		return existing, nil
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	cp := *m
	r.byID[cp.ID] = &cp
	r.byName[nameKey(cp.Bucket, cp.Filename)] = cp.ID
	return cp.ID, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *Repository) GetByFilename(ctx context.Context, bucket, filename string) (*entities.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[nameKey(bucket, filename)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *Repository) Patch(ctx context.Context, id uuid.UUID, patch entities.MetadataPatch) error {
	if patch.Empty() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.ThumbID != nil && m.ThumbID == nil {
		v := *patch.ThumbID
		m.ThumbID = &v
	}
	if patch.Tags != nil {
		m.Tags = append([]string(nil), patch.Tags...)
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *Repository) ListByBusiness(ctx context.Context, bucket, businessID string) ([]entities.Media, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []entities.Media
	for _, m := range r.byID {
		if m.Bucket == bucket && m.BusinessID == businessID {
			out = append(out, *m)
		}
	}
	return out, nil
}
