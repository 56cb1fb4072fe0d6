package execution_test

import (
	"context"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/execution"
	"alcyxob/therapy-app/internal/metrics"
	"alcyxob/therapy-app/internal/repository/memory"
	"alcyxob/therapy-app/internal/service"
	"alcyxob/therapy-app/internal/storage"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A patient with 3 of 10 sessions done runs [A 1 min, B 2 min], pauses once
// during B and reports pain 1 afterwards.
func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserStore()
	seriesRepo := memory.NewSeriesStore()
	sessions := memory.NewSessionStore()
	postures := memory.NewPostureStore(memory.DefaultPostures())
	mm := metrics.NewTestManager()

	patients := service.NewPatientService(users, seriesRepo, sessions)
	seriesSvc := service.NewSeriesService(seriesRepo, postures, users, storage.NewMediaResolver(nil, 0), mm, service.EnrichmentOptions{})
	recorder := service.NewSessionService(users, sessions, mm)

	instructorID, err := users.Create(ctx, &domain.User{
		Name:   gofakeit.Name(),
		Email:  gofakeit.Email(),
		Role:   domain.RoleInstructor,
		Status: domain.StatusActive,
	})
	require.NoError(t, err)
	patient, err := patients.RegisterPatient(ctx, instructorID, service.PatientInput{
		Name:  gofakeit.Name(),
		Email: gofakeit.Email(),
	})
	require.NoError(t, err)
	series, err := seriesSvc.CreateSeries(ctx, instructorID, service.SeriesInput{
		Name:                    "Espalda suave",
		TherapyType:             domain.TherapyBackPain,
		RecommendedSessionCount: 10,
		Postures: []domain.SeriesStep{
			{PostureID: "p1", DurationMinutes: 1},
			{PostureID: "p2", DurationMinutes: 2},
		},
	})
	require.NoError(t, err)
	_, err = patients.AssignSeries(ctx, instructorID, patient.ID, series.ID)
	require.NoError(t, err)

	earlier := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		c := execution.Completion{
			InitialPain:      2,
			SessionStartTime: earlier,
			SessionEndTime:   earlier.Add(3 * time.Minute),
		}
		_, err := recorder.RecordSession(ctx, patient.ID, c.Report(2, "ok", ""))
		require.NoError(t, err)
	}

	enriched, err := seriesSvc.GetAssignedSeriesForExecution(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, enriched.Sequence, 2)
	assert.Equal(t, "Postura del niño", enriched.Sequence[0].DisplayName)

	now := time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	initial := 2
	m, err := execution.NewMachine(enriched.Steps(), &initial, execution.WithClock(clock))
	require.NoError(t, err)
	m.Start()

	for i := 0; i < 60; i++ {
		m.Tick()
	}
	require.Equal(t, 1, m.Index())

	for i := 0; i < 30; i++ {
		m.Tick()
	}
	m.Pause()
	// Ticks while paused are ignored, and the page may be reloaded from the URL
	for i := 0; i < 45; i++ {
		m.Tick()
	}
	m, err = execution.Restore(enriched.Steps(), m.Snapshot().Encode(), execution.WithClock(clock))
	require.NoError(t, err)
	require.Equal(t, execution.Paused, m.State())
	m.Resume()
	now = now.Add(4 * time.Minute)
	for i := 0; i < 90; i++ {
		m.Tick()
	}
	require.Equal(t, execution.Finished, m.State())

	completion, err := m.Completion()
	require.NoError(t, err)
	decoded, err := execution.DecodeCompletion(completion.Encode())
	require.NoError(t, err)

	ack, err := recorder.RecordSession(ctx, patient.ID, decoded.Report(1, "better", ""))
	require.NoError(t, err)
	assert.Equal(t, service.SessionRecordedMessage, ack.Message)

	entry := ack.Session
	assert.Equal(t, series.ID, entry.SeriesID)
	assert.Equal(t, 2, entry.PainBefore)
	assert.Equal(t, 1, entry.PainAfter)
	assert.Equal(t, "better", entry.Comment)
	require.NotNil(t, entry.PauseCount)
	assert.Equal(t, 1, *entry.PauseCount)
	require.NotNil(t, entry.EffectiveActiveMinutes)
	assert.Equal(t, 3, *entry.EffectiveActiveMinutes)
	require.NotNil(t, entry.SessionStartTime)
	require.NotNil(t, entry.SessionEndTime)
	assert.Equal(t, 4*time.Minute, entry.SessionEndTime.Sub(*entry.SessionStartTime))

	profile, err := patients.Profile(ctx, patient.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.AssignedSeries)
	assert.Equal(t, 4, profile.AssignedSeries.CompletedSessionCount)
	assert.Equal(t, 10, profile.AssignedSeries.RecommendedSessionCount)
}
