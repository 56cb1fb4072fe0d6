package service

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrSessionPersist = errors.New("failed to record session")
)

const SessionRecordedMessage = "Sesión registrada correctamente"

// SessionAck acknowledges a recorded session.
type SessionAck struct {
	Message   string              `json:"message"`
	SessionID primitive.ObjectID  `json:"sessionId"`
	Session   domain.SessionEntry `json:"session"`
	// Duplicate is set when the idempotency key matched an earlier submission
	// and nothing was written.
	Duplicate bool `json:"duplicate,omitempty"`
}

type SessionService interface {
	RecordSession(ctx context.Context, patientID primitive.ObjectID, report *domain.SessionReport) (*SessionAck, error)
}

type sessionService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	metrics     *metrics.Manager
	now         func() time.Time
}

func NewSessionService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, metricsManager *metrics.Manager) SessionService {
	return &sessionService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		metrics:     metricsManager,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RecordSession validates the report, appends it to the ledger under the
// patient's current series and then bumps the progress counter. The counter is
// only touched after the insert succeeded.
func (s *sessionService) RecordSession(ctx context.Context, patientID primitive.ObjectID, report *domain.SessionReport) (*SessionAck, error) {
	if report == nil {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidSession)
	}
	if err := report.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	patient, err := loadPatient(ctx, s.userRepo, patientID)
	if err != nil {
		return nil, err
	}
	if patient.AssignedSeries == nil {
		return nil, ErrNotAssigned
	}
	seriesID := patient.AssignedSeries.SeriesID

	logger := log.WithFields(log.Fields{
		"patient": patientID.Hex(),
		"series":  seriesID.Hex(),
	})

	if report.IdempotencyKey != "" {
		if ack, err := s.duplicateAck(ctx, patientID, report.IdempotencyKey); err != nil || ack != nil {
			return ack, err
		}
	}

	entry := domain.NewSessionEntry(patientID, seriesID, report, s.now())
	if err = s.sessionRepo.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with the same submission
			if ack, lookupErr := s.duplicateAck(ctx, patientID, report.IdempotencyKey); lookupErr == nil && ack != nil {
				return ack, nil
			}
		}
		logger.Errorf("insert session entry: %s", err)
		return nil, fmt.Errorf("%w: %v", ErrSessionPersist, err)
	}
	s.metrics.CounterSessionsRecorded.Inc()

	if err = s.userRepo.IncrementCompletedSessions(ctx, patientID, seriesID); err != nil {
		// The entry is in the ledger; a recount restores the counter.
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warn("series reassigned while recording session, counter not incremented")
		} else {
			logger.Errorf("increment completed sessions: %s", err)
		}
	}

	logger.WithField("session", entry.ID.Hex()).Info("session recorded")
	return &SessionAck{
		Message:   SessionRecordedMessage,
		SessionID: entry.ID,
		Session:   *entry,
	}, nil
}

// duplicateAck returns an ack for an earlier entry with the same key, or nil
// when there is none.
func (s *sessionService) duplicateAck(ctx context.Context, patientID primitive.ObjectID, key string) (*SessionAck, error) {
	existing, err := s.sessionRepo.GetByIdempotencyKey(ctx, patientID, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionPersist, err)
	}
	s.metrics.CounterSessionDuplicates.Inc()
	log.WithFields(log.Fields{
		"patient": patientID.Hex(),
		"session": existing.ID.Hex(),
	}).Info("duplicate session submission")
	return &SessionAck{
		Message:   SessionRecordedMessage,
		SessionID: existing.ID,
		Session:   *existing,
		Duplicate: true,
	}, nil
}
