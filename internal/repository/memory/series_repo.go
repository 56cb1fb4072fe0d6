package memory

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.SeriesRepository = (*SeriesStore)(nil)

// SeriesStore is a mutex-guarded SeriesRepository.
type SeriesStore struct {
	mu     sync.RWMutex
	series map[primitive.ObjectID]*domain.Series
}

// NewSeriesStore returns an empty in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{series: map[primitive.ObjectID]*domain.Series{}}
}

func cloneSeries(s *domain.Series) *domain.Series {
	c := *s
	c.Postures = append([]domain.SeriesStep(nil), s.Postures...)
	return &c
}

func (r *SeriesStore) Create(_ context.Context, series *domain.Series) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	series.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	series.CreatedAt = now
	series.UpdatedAt = now
	r.series[series.ID] = cloneSeries(series)
	return series.ID, nil
}

func (r *SeriesStore) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.series[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSeries(s), nil
}

func (r *SeriesStore) ListByOwner(_ context.Context, instructorID primitive.ObjectID) ([]domain.Series, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Series{}
	for _, s := range r.series {
		if s.OwnerInstructorID == instructorID {
			out = append(out, *cloneSeries(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *SeriesStore) CountByOwner(ctx context.Context, instructorID primitive.ObjectID) (int64, error) {
	list, err := r.ListByOwner(ctx, instructorID)
	if err != nil {
		return 0, err
	}
	return int64(len(list)), nil
}

func (r *SeriesStore) Update(_ context.Context, series *domain.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.series[series.ID]
	if !ok || existing.OwnerInstructorID != series.OwnerInstructorID {
		return repository.ErrNotFound
	}
	series.CreatedAt = existing.CreatedAt
	series.UpdatedAt = time.Now().UTC()
	r.series[series.ID] = cloneSeries(series)
	return nil
}

// Delete removes a series. Not part of the repository interface; tests use
// it to simulate a series that disappeared after being assigned.
func (r *SeriesStore) Delete(id primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.series, id)
}
