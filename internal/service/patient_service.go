package service

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrPatientNotManaged = errors.New("patient is not managed by this instructor")
	ErrNotAssigned       = errors.New("patient has no assigned series")
)

// PatientInput is what an instructor provides when registering a patient.
type PatientInput struct {
	Name       string
	Email      string
	NationalID string
	BirthDate  string
	Phone      string
	Gender     string
	Notes      string
}

type PatientService interface {
	RegisterPatient(ctx context.Context, instructorID primitive.ObjectID, in PatientInput) (*domain.User, error)
	ListPatients(ctx context.Context, instructorID primitive.ObjectID) ([]domain.User, error)
	GetPatient(ctx context.Context, instructorID, patientID primitive.ObjectID) (*domain.User, error)
	UpdatePatient(ctx context.Context, instructorID, patientID primitive.ObjectID, upd repository.PatientUpdate) (*domain.User, error)

	// AssignSeries overwrites the patient's progress record, resetting the counter.
	AssignSeries(ctx context.Context, instructorID, patientID, seriesID primitive.ObjectID) (*domain.SeriesAssignment, error)
	// RecountProgress rebuilds completedSessionCount from the ledger entries
	// recorded under the current assignment.
	RecountProgress(ctx context.Context, instructorID, patientID primitive.ObjectID) (*domain.SeriesAssignment, error)
	History(ctx context.Context, instructorID, patientID primitive.ObjectID) ([]domain.SessionEntry, error)

	// Patient-facing
	Profile(ctx context.Context, patientID primitive.ObjectID) (*domain.User, error)
	MyHistory(ctx context.Context, patientID primitive.ObjectID) ([]domain.SessionEntry, error)
}

type patientService struct {
	userRepo    repository.UserRepository
	seriesRepo  repository.SeriesRepository
	sessionRepo repository.SessionRepository
	now         func() time.Time
}

func NewPatientService(
	userRepo repository.UserRepository,
	seriesRepo repository.SeriesRepository,
	sessionRepo repository.SessionRepository,
) PatientService {
	return &patientService{
		userRepo:    userRepo,
		seriesRepo:  seriesRepo,
		sessionRepo: sessionRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *patientService) RegisterPatient(ctx context.Context, instructorID primitive.ObjectID, in PatientInput) (*domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidInput)
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	patient := &domain.User{
		Name:         name,
		Email:        email,
		Role:         domain.RolePatient,
		Status:       domain.StatusPending,
		InstructorID: &instructorID,
		NationalID:   strings.TrimSpace(in.NationalID),
		BirthDate:    in.BirthDate,
		Phone:        in.Phone,
		Gender:       in.Gender,
		Notes:        in.Notes,
	}
	if _, err = s.userRepo.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"instructor": instructorID.Hex(),
		"patient":    patient.ID.Hex(),
	}).Info("patient registered")
	return patient, nil
}

func (s *patientService) ListPatients(ctx context.Context, instructorID primitive.ObjectID) ([]domain.User, error) {
	patients, err := s.userRepo.ListPatientsByInstructor(ctx, instructorID)
	if err != nil {
		return nil, err
	}
	for i := range patients {
		patients[i].PasswordHash = ""
	}
	return patients, nil
}

// managedPatient loads a patient and checks it belongs to the instructor.
func (s *patientService) managedPatient(ctx context.Context, instructorID, patientID primitive.ObjectID) (*domain.User, error) {
	patient, err := s.loadPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.ManagedBy(instructorID) {
		return nil, ErrPatientNotManaged
	}
	return patient, nil
}

func (s *patientService) loadPatient(ctx context.Context, patientID primitive.ObjectID) (*domain.User, error) {
	return loadPatient(ctx, s.userRepo, patientID)
}

func loadPatient(ctx context.Context, users repository.UserRepository, patientID primitive.ObjectID) (*domain.User, error) {
	patient, err := users.GetByID(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if !patient.IsPatient() {
		return nil, ErrPatientNotFound
	}
	patient.PasswordHash = ""
	return patient, nil
}

func (s *patientService) GetPatient(ctx context.Context, instructorID, patientID primitive.ObjectID) (*domain.User, error) {
	return s.managedPatient(ctx, instructorID, patientID)
}

func (s *patientService) UpdatePatient(ctx context.Context, instructorID, patientID primitive.ObjectID, upd repository.PatientUpdate) (*domain.User, error) {
	if _, err := s.managedPatient(ctx, instructorID, patientID); err != nil {
		return nil, err
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
	}
	if err := s.userRepo.UpdatePatient(ctx, patientID, upd); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return s.loadPatient(ctx, patientID)
}

func (s *patientService) AssignSeries(ctx context.Context, instructorID, patientID, seriesID primitive.ObjectID) (*domain.SeriesAssignment, error) {
	if _, err := s.managedPatient(ctx, instructorID, patientID); err != nil {
		return nil, err
	}

	series, err := s.seriesRepo.GetByID(ctx, seriesID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	if series.OwnerInstructorID != instructorID {
		return nil, ErrSeriesAccessDenied
	}

	assignment := domain.NewSeriesAssignment(series, s.now())
	if err = s.userRepo.SetAssignedSeries(ctx, patientID, assignment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	log.WithFields(log.Fields{
		"patient": patientID.Hex(),
		"series":  seriesID.Hex(),
	}).Info("series assigned")
	return assignment, nil
}

func (s *patientService) RecountProgress(ctx context.Context, instructorID, patientID primitive.ObjectID) (*domain.SeriesAssignment, error) {
	patient, err := s.managedPatient(ctx, instructorID, patientID)
	if err != nil {
		return nil, err
	}
	assignment := patient.AssignedSeries
	if assignment == nil {
		return nil, ErrNotAssigned
	}

	count, err := s.sessionRepo.CountByPatientSeriesSince(ctx, patientID, assignment.SeriesID, assignment.AssignedAt)
	if err != nil {
		return nil, err
	}
	if err = s.userRepo.SetCompletedSessions(ctx, patientID, assignment.SeriesID, int(count)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Reassigned while counting
			return nil, ErrNotAssigned
		}
		return nil, err
	}

	if int(count) != assignment.CompletedSessionCount {
		log.WithFields(log.Fields{
			"patient": patientID.Hex(),
			"before":  assignment.CompletedSessionCount,
			"after":   count,
		}).Warn("completed session counter corrected from ledger")
	}
	assignment.CompletedSessionCount = int(count)
	return assignment, nil
}

func (s *patientService) History(ctx context.Context, instructorID, patientID primitive.ObjectID) ([]domain.SessionEntry, error) {
	if _, err := s.managedPatient(ctx, instructorID, patientID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByPatient(ctx, patientID)
}

func (s *patientService) Profile(ctx context.Context, patientID primitive.ObjectID) (*domain.User, error) {
	return s.loadPatient(ctx, patientID)
}

func (s *patientService) MyHistory(ctx context.Context, patientID primitive.ObjectID) ([]domain.SessionEntry, error) {
	if _, err := s.loadPatient(ctx, patientID); err != nil {
		return nil, err
	}
	return s.sessionRepo.ListByPatient(ctx, patientID)
}
