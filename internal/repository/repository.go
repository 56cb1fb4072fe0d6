package repository

import (
	"alcyxob/therapy-app/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PatientUpdate carries the instructor-editable patient fields.
// Nil fields are left untouched.
type PatientUpdate struct {
	Name       *string
	Phone      *string
	BirthDate  *string
	Gender     *string
	NationalID *string
	Notes      *string
}

// UserRepository defines the interface for interacting with user data,
// including the patient progress record embedded in patient documents.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListPatientsByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.User, error)
	UpdatePatient(ctx context.Context, patientID primitive.ObjectID, upd PatientUpdate) error
	// ActivateWithPassword stores the hash and flips the account to active.
	ActivateWithPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error

	// SetAssignedSeries overwrites the whole progress record.
	SetAssignedSeries(ctx context.Context, patientID primitive.ObjectID, assignment *domain.SeriesAssignment) error
	// IncrementCompletedSessions atomically bumps the counter only while the
	// patient is still assigned seriesID. Returns ErrNotFound otherwise.
	IncrementCompletedSessions(ctx context.Context, patientID, seriesID primitive.ObjectID) error
	SetCompletedSessions(ctx context.Context, patientID, seriesID primitive.ObjectID, count int) error
}

// PostureRepository is the read-only posture catalog accessor.
type PostureRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Posture, error)
	// List returns every posture, or only those tagged with therapyType when non-empty.
	List(ctx context.Context, therapyType domain.TherapyType) ([]domain.Posture, error)
}

// SeriesRepository defines the interface for interacting with series data.
type SeriesRepository interface {
	Create(ctx context.Context, series *domain.Series) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Series, error)
	ListByOwner(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Series, error)
	CountByOwner(ctx context.Context, instructorID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, series *domain.Series) error
}

// SessionRepository is the append-only session ledger.
type SessionRepository interface {
	// Create inserts the entry. Returns ErrDuplicate when the patient already
	// has an entry with the same idempotency key.
	Create(ctx context.Context, entry *domain.SessionEntry) error
	GetByIdempotencyKey(ctx context.Context, patientID primitive.ObjectID, key string) (*domain.SessionEntry, error)
	ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.SessionEntry, error)
	CountByPatientsSince(ctx context.Context, patientIDs []primitive.ObjectID, since time.Time) (int64, error)
	CountByPatientSeriesSince(ctx context.Context, patientID, seriesID primitive.ObjectID, since time.Time) (int64, error)
}
