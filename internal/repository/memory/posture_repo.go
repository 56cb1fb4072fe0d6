package memory

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"sort"
	"sync"
)

var _ repository.PostureRepository = (*PostureStore)(nil)

// PostureStore is a mutex-guarded PostureRepository.
type PostureStore struct {
	mu       sync.RWMutex
	postures map[string]domain.Posture
}

// NewPostureStore returns a catalog holding the given postures.
func NewPostureStore(postures []domain.Posture) *PostureStore {
	r := &PostureStore{postures: make(map[string]domain.Posture, len(postures))}
	for _, p := range postures {
		r.postures[p.ID] = p
	}
	return r
}

func (r *PostureStore) GetByID(_ context.Context, id string) (*domain.Posture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.postures[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *PostureStore) List(_ context.Context, therapyType domain.TherapyType) ([]domain.Posture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Posture{}
	for _, p := range r.postures {
		if therapyType != "" && !p.SupportsTherapy(therapyType) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
