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

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore is a mutex-guarded SessionRepository.
type SessionStore struct {
	mu      sync.RWMutex
	entries []domain.SessionEntry
	// failNext makes the next Create fail; used to test write failures.
	failNext error
}

// NewSessionStore returns an empty in-memory session ledger.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (r *SessionStore) Create(_ context.Context, entry *domain.SessionEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if entry.IdempotencyKey != "" {
		for _, e := range r.entries {
			if e.PatientID == entry.PatientID && e.IdempotencyKey == entry.IdempotencyKey {
				return repository.ErrDuplicate
			}
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	r.entries = append(r.entries, *entry)
	return nil
}

// FailNextCreate arranges for the next Create call to return err.
func (r *SessionStore) FailNextCreate(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failNext = err
}

func (r *SessionStore) GetByIdempotencyKey(_ context.Context, patientID primitive.ObjectID, key string) (*domain.SessionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.PatientID == patientID && key != "" && e.IdempotencyKey == key {
			found := e
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *SessionStore) ListByPatient(_ context.Context, patientID primitive.ObjectID) ([]domain.SessionEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.SessionEntry{}
	for _, e := range r.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (r *SessionStore) CountByPatientsSince(_ context.Context, patientIDs []primitive.ObjectID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[primitive.ObjectID]struct{}, len(patientIDs))
	for _, id := range patientIDs {
		ids[id] = struct{}{}
	}
	var n int64
	for _, e := range r.entries {
		if _, ok := ids[e.PatientID]; ok && !e.OccurredAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (r *SessionStore) CountByPatientSeriesSince(_ context.Context, patientID, seriesID primitive.ObjectID, since time.Time) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, e := range r.entries {
		if e.PatientID == patientID && e.SeriesID == seriesID && !e.OccurredAt.Before(since) {
			n++
		}
	}
	return n, nil
}
