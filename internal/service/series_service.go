package service

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/repository"
	"alcyxob/therapy-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// --- Error Definitions ---
var (
	ErrSeriesNotFound     = errors.New("series not found")
	ErrSeriesAccessDenied = errors.New("access denied to this series")
	ErrInvalidSeries      = errors.New("invalid series")
	ErrUnknownPosture     = errors.New("series references an unknown posture")

	// Execution screen
	ErrSeriesGone       = errors.New("assigned series no longer exists")
	ErrPostureMissing   = errors.New("assigned series references a posture that could not be loaded")
	ErrEnrichmentFailed = errors.New("failed to load the assigned series")
)

const (
	DefaultEnrichmentTimeout     = 5 * time.Second
	DefaultEnrichmentConcurrency = 4
)

// SeriesInput is the instructor-editable part of a series.
type SeriesInput struct {
	Name                    string
	TherapyType             domain.TherapyType
	RecommendedSessionCount int
	Postures                []domain.SeriesStep
}

// EnrichedStep is one entry of the execution sequence: the full posture
// record plus how long to hold it.
type EnrichedStep struct {
	domain.Posture
	DurationMinutes int `json:"durationMinutes"`
}

// EnrichedSeries is what the patient execution screen consumes. Only the
// resolved sequence is exposed, never the raw posture id list.
type EnrichedSeries struct {
	ID                      primitive.ObjectID `json:"id"`
	Name                    string             `json:"name"`
	TherapyType             domain.TherapyType `json:"therapyType"`
	RecommendedSessionCount int                `json:"recommendedSessionCount"`
	Sequence                []EnrichedStep     `json:"secuencia"`
}

// Steps converts the sequence into the per-posture durations the timer runs on.
func (e *EnrichedSeries) Steps() []domain.SeriesStep {
	steps := make([]domain.SeriesStep, len(e.Sequence))
	for i, s := range e.Sequence {
		steps[i] = domain.SeriesStep{PostureID: s.ID, DurationMinutes: s.DurationMinutes}
	}
	return steps
}

type SeriesService interface {
	CreateSeries(ctx context.Context, instructorID primitive.ObjectID, in SeriesInput) (*domain.Series, error)
	ListSeries(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Series, error)
	GetSeries(ctx context.Context, instructorID, seriesID primitive.ObjectID) (*domain.Series, error)
	UpdateSeries(ctx context.Context, instructorID, seriesID primitive.ObjectID, in SeriesInput) (*domain.Series, error)

	// GetAssignedSeriesForExecution resolves the patient's assigned series into
	// full posture records, in series order.
	GetAssignedSeriesForExecution(ctx context.Context, patientID primitive.ObjectID) (*EnrichedSeries, error)
}

// EnrichmentOptions bounds the posture lookups of one enrichment request.
type EnrichmentOptions struct {
	Timeout     time.Duration
	Concurrency int
}

type seriesService struct {
	seriesRepo  repository.SeriesRepository
	postureRepo repository.PostureRepository
	userRepo    repository.UserRepository
	media       *storage.MediaResolver
	metrics     *metrics.Manager
	opts        EnrichmentOptions
}

func NewSeriesService(
	seriesRepo repository.SeriesRepository,
	postureRepo repository.PostureRepository,
	userRepo repository.UserRepository,
	media *storage.MediaResolver,
	metricsManager *metrics.Manager,
	opts EnrichmentOptions,
) SeriesService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultEnrichmentTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultEnrichmentConcurrency
	}
	return &seriesService{
		seriesRepo:  seriesRepo,
		postureRepo: postureRepo,
		userRepo:    userRepo,
		media:       media,
		metrics:     metricsManager,
		opts:        opts,
	}
}

// build validates the input into a series owned by instructorID. Every posture
// id must exist in the catalog.
func (s *seriesService) build(ctx context.Context, instructorID primitive.ObjectID, in SeriesInput) (*domain.Series, error) {
	series := &domain.Series{
		Name:                    strings.TrimSpace(in.Name),
		TherapyType:             in.TherapyType,
		OwnerInstructorID:       instructorID,
		RecommendedSessionCount: in.RecommendedSessionCount,
		Postures:                in.Postures,
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeries, err)
	}

	seen := map[string]bool{}
	for _, step := range series.Postures {
		if seen[step.PostureID] {
			continue
		}
		seen[step.PostureID] = true
		if _, err := s.postureRepo.GetByID(ctx, step.PostureID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPosture, step.PostureID)
			}
			return nil, err
		}
	}
	return series, nil
}

func (s *seriesService) CreateSeries(ctx context.Context, instructorID primitive.ObjectID, in SeriesInput) (*domain.Series, error) {
	series, err := s.build(ctx, instructorID, in)
	if err != nil {
		return nil, err
	}
	if _, err = s.seriesRepo.Create(ctx, series); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"instructor": instructorID.Hex(),
		"series":     series.ID.Hex(),
	}).Info("series created")
	return series, nil
}

func (s *seriesService) ListSeries(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Series, error) {
	return s.seriesRepo.ListByOwner(ctx, instructorID)
}

func (s *seriesService) GetSeries(ctx context.Context, instructorID, seriesID primitive.ObjectID) (*domain.Series, error) {
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
	return series, nil
}

// UpdateSeries replaces the editable fields. Existing assignments keep their
// snapshotted name and recommended count until the series is reassigned.
func (s *seriesService) UpdateSeries(ctx context.Context, instructorID, seriesID primitive.ObjectID, in SeriesInput) (*domain.Series, error) {
	existing, err := s.GetSeries(ctx, instructorID, seriesID)
	if err != nil {
		return nil, err
	}
	series, err := s.build(ctx, instructorID, in)
	if err != nil {
		return nil, err
	}
	series.ID = existing.ID
	series.CreatedAt = existing.CreatedAt

	if err = s.seriesRepo.Update(ctx, series); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSeriesNotFound
		}
		return nil, err
	}
	return series, nil
}

func (s *seriesService) GetAssignedSeriesForExecution(ctx context.Context, patientID primitive.ObjectID) (*EnrichedSeries, error) {
	start := time.Now()
	defer func() {
		s.metrics.HistEnrichmentDuration.Observe(time.Since(start).Seconds())
	}()

	patient, err := loadPatient(ctx, s.userRepo, patientID)
	if err != nil {
		return nil, err
	}
	if patient.AssignedSeries == nil {
		return nil, ErrNotAssigned
	}

	series, err := s.seriesRepo.GetByID(ctx, patient.AssignedSeries.SeriesID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.CounterEnrichmentFailures.WithLabelValues("series_gone").Inc()
			return nil, ErrSeriesGone
		}
		return nil, err
	}

	sequence, err := s.resolveSequence(ctx, series.Postures)
	if err != nil {
		reason := "lookup"
		if errors.Is(err, ErrPostureMissing) {
			reason = "posture_missing"
		}
		s.metrics.CounterEnrichmentFailures.WithLabelValues(reason).Inc()
		log.WithFields(log.Fields{
			"patient": patientID.Hex(),
			"series":  series.ID.Hex(),
		}).Warnf("enrich assigned series: %s", err)
		return nil, err
	}

	return &EnrichedSeries{
		ID:                      series.ID,
		Name:                    series.Name,
		TherapyType:             series.TherapyType,
		RecommendedSessionCount: series.RecommendedSessionCount,
		Sequence:                sequence,
	}, nil
}

// resolveSequence fetches every posture concurrently and places each result
// at its step's index, so completion order never affects the sequence.
// Any failure fails the whole sequence.
func (s *seriesService) resolveSequence(ctx context.Context, steps []domain.SeriesStep) ([]EnrichedStep, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	sequence := make([]EnrichedStep, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, step := range steps {
		i, step := i, step
		g.Go(func() error {
			posture, err := s.postureRepo.GetByID(gctx, step.PostureID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("%w: %s", ErrPostureMissing, step.PostureID)
				}
				return fmt.Errorf("%w: posture %s: %v", ErrEnrichmentFailed, step.PostureID, err)
			}
			resolved := *posture
			if resolved.PhotoURL, err = s.media.Resolve(gctx, posture.PhotoURL); err != nil {
				return fmt.Errorf("%w: photo of %s: %v", ErrEnrichmentFailed, step.PostureID, err)
			}
			if resolved.VideoURL, err = s.media.Resolve(gctx, posture.VideoURL); err != nil {
				return fmt.Errorf("%w: video of %s: %v", ErrEnrichmentFailed, step.PostureID, err)
			}
			sequence[i] = EnrichedStep{Posture: resolved, DurationMinutes: step.DurationMinutes}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sequence, nil
}
