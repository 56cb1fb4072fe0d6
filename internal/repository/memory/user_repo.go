package memory

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repository.UserRepository = (*UserStore)(nil)

// UserStore is a mutex-guarded UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*domain.User
}

// NewUserStore returns an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{users: map[primitive.ObjectID]*domain.User{}}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	if u.InstructorID != nil {
		id := *u.InstructorID
		c.InstructorID = &id
	}
	if u.AssignedSeries != nil {
		a := *u.AssignedSeries
		c.AssignedSeries = &a
	}
	return &c
}

func (r *UserStore) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = cloneUser(user)
	return user.ID, nil
}

func (r *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserStore) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *UserStore) ListPatientsByInstructor(_ context.Context, instructorID primitive.ObjectID) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.User{}
	for _, u := range r.users {
		if u.IsPatient() && u.ManagedBy(instructorID) {
			out = append(out, *cloneUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *UserStore) UpdatePatient(_ context.Context, patientID primitive.ObjectID, upd repository.PatientUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[patientID]
	if !ok || !u.IsPatient() {
		return repository.ErrNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, upd.Name)
	set(&u.Phone, upd.Phone)
	set(&u.BirthDate, upd.BirthDate)
	set(&u.Gender, upd.Gender)
	set(&u.NationalID, upd.NationalID)
	set(&u.Notes, upd.Notes)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserStore) ActivateWithPassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.Status = domain.StatusActive
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserStore) SetAssignedSeries(_ context.Context, patientID primitive.ObjectID, assignment *domain.SeriesAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[patientID]
	if !ok || !u.IsPatient() {
		return repository.ErrNotFound
	}
	a := *assignment
	u.AssignedSeries = &a
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserStore) IncrementCompletedSessions(_ context.Context, patientID, seriesID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[patientID]
	if !ok || u.AssignedSeries == nil || u.AssignedSeries.SeriesID != seriesID {
		return repository.ErrNotFound
	}
	u.AssignedSeries.CompletedSessionCount++
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *UserStore) SetCompletedSessions(_ context.Context, patientID, seriesID primitive.ObjectID, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[patientID]
	if !ok || u.AssignedSeries == nil || u.AssignedSeries.SeriesID != seriesID {
		return repository.ErrNotFound
	}
	u.AssignedSeries.CompletedSessionCount = count
	u.UpdatedAt = time.Now().UTC()
	return nil
}
