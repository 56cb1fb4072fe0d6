package service

import (
	"alcyxob/therapy-app/internal/repository"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// StatsWindow is the trailing window of the weekly session counter.
const StatsWindow = 7 * 24 * time.Hour

// InstructorStats are the dashboard counters.
type InstructorStats struct {
	RegisteredPatients int64 `json:"pacientesRegistrados"`
	SeriesCreated      int64 `json:"seriesCreadas"`
	SessionsThisWeek   int64 `json:"sesionesCompletadasSemana"`
}

type StatsService interface {
	// InstructorStats counts sessions whose occurredAt falls in [now-7d, now].
	InstructorStats(ctx context.Context, instructorID primitive.ObjectID, now time.Time) (*InstructorStats, error)
}

type statsService struct {
	userRepo    repository.UserRepository
	seriesRepo  repository.SeriesRepository
	sessionRepo repository.SessionRepository
}

func NewStatsService(userRepo repository.UserRepository, seriesRepo repository.SeriesRepository, sessionRepo repository.SessionRepository) StatsService {
	return &statsService{userRepo: userRepo, seriesRepo: seriesRepo, sessionRepo: sessionRepo}
}

func (s *statsService) InstructorStats(ctx context.Context, instructorID primitive.ObjectID, now time.Time) (*InstructorStats, error) {
	stats := &InstructorStats{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		patients, err := s.userRepo.ListPatientsByInstructor(gctx, instructorID)
		if err != nil {
			return err
		}
		stats.RegisteredPatients = int64(len(patients))
		if len(patients) == 0 {
			return nil
		}
		ids := make([]primitive.ObjectID, len(patients))
		for i, p := range patients {
			ids[i] = p.ID
		}
		stats.SessionsThisWeek, err = s.sessionRepo.CountByPatientsSince(gctx, ids, now.Add(-StatsWindow))
		return err
	})
	g.Go(func() error {
		var err error
		stats.SeriesCreated, err = s.seriesRepo.CountByOwner(gctx, instructorID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
