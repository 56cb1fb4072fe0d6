package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/repository/memory"
	"alcyxob/therapy-app/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "test-secret"

type fixture struct {
	users    *memory.UserStore
	series   *memory.SeriesStore
	sessions *memory.SessionStore
	postures *memory.PostureStore
	metrics  *metrics.Manager

	auth      AuthService
	patients  PatientService
	seriesSvc SeriesService
	recorder  SessionService
	stats     StatsService

	instructorID primitive.ObjectID
}

func testPostures() []domain.Posture {
	postures := memory.DefaultPostures()
	for i := 0; i < 6; i++ {
		postures = append(postures, domain.Posture{
			ID:           fmt.Sprintf("q%d", i),
			DisplayName:  gofakeit.Word(),
			PhotoURL:     fmt.Sprintf("/imagenes/q%d.jpg", i),
			TherapyTypes: []string{string(domain.TherapyInsomnia)},
		})
	}
	return postures
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    memory.NewUserStore(),
		series:   memory.NewSeriesStore(),
		sessions: memory.NewSessionStore(),
		postures: memory.NewPostureStore(testPostures()),
		metrics:  metrics.NewTestManager(),
	}
	media := storage.NewMediaResolver(nil, 0)
	f.auth = NewAuthService(f.users, testSecret, time.Hour)
	f.patients = NewPatientService(f.users, f.series, f.sessions)
	f.seriesSvc = NewSeriesService(f.series, f.postures, f.users, media, f.metrics, EnrichmentOptions{Timeout: time.Second, Concurrency: 3})
	f.recorder = NewSessionService(f.users, f.sessions, f.metrics)
	f.stats = NewStatsService(f.users, f.series, f.sessions)
	f.instructorID = f.newInstructor(t)
	return f
}

func (f *fixture) newInstructor(t *testing.T) primitive.ObjectID {
	t.Helper()
	id, err := f.users.Create(context.Background(), &domain.User{
		Name:   gofakeit.Name(),
		Email:  gofakeit.Email(),
		Role:   domain.RoleInstructor,
		Status: domain.StatusActive,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) newPatient(t *testing.T, instructorID primitive.ObjectID) *domain.User {
	t.Helper()
	p, err := f.patients.RegisterPatient(context.Background(), instructorID, PatientInput{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
		Phone: gofakeit.Phone(),
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) newSeries(t *testing.T, instructorID primitive.ObjectID, steps ...domain.SeriesStep) *domain.Series {
	t.Helper()
	if len(steps) == 0 {
		steps = []domain.SeriesStep{{PostureID: "p1", DurationMinutes: 1}, {PostureID: "p2", DurationMinutes: 2}}
	}
	s, err := f.seriesSvc.CreateSeries(context.Background(), instructorID, SeriesInput{
		Name:                    gofakeit.Word(),
		TherapyType:             domain.TherapyBackPain,
		RecommendedSessionCount: 10,
		Postures:                steps,
	})
	require.NoError(t, err)
	return s
}

// assignedPatient returns a patient of the fixture instructor with a fresh series assigned.
func (f *fixture) assignedPatient(t *testing.T) (*domain.User, *domain.Series) {
	t.Helper()
	patient := f.newPatient(t, f.instructorID)
	series := f.newSeries(t, f.instructorID)
	_, err := f.patients.AssignSeries(context.Background(), f.instructorID, patient.ID, series.ID)
	require.NoError(t, err)
	return patient, series
}

func (f *fixture) completed(t *testing.T, patientID primitive.ObjectID) int {
	t.Helper()
	u, err := f.users.GetByID(context.Background(), patientID)
	require.NoError(t, err)
	if u.AssignedSeries == nil {
		return -1
	}
	return u.AssignedSeries.CompletedSessionCount
}

func intPtr(v int) *int { return &v }

func validReport() *domain.SessionReport {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Minute)
	return &domain.SessionReport{
		PainBefore:             intPtr(3),
		PainAfter:              intPtr(1),
		Comment:                "me sentí mejor",
		SessionStartTime:       &start,
		SessionEndTime:         &end,
		EffectiveActiveMinutes: intPtr(3),
		PauseCount:             intPtr(1),
	}
}
