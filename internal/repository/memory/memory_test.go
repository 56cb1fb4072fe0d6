package memory

import (
	"context"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUserStore_IncrementOnlyForCurrentSeries(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore()
	patientID, err := users.Create(ctx, &domain.User{Email: "p@example.com", Role: domain.RolePatient})
	require.NoError(t, err)

	seriesA := &domain.Series{ID: primitive.NewObjectID(), Name: "A", RecommendedSessionCount: 5}
	seriesB := &domain.Series{ID: primitive.NewObjectID(), Name: "B", RecommendedSessionCount: 3}
	require.NoError(t, users.SetAssignedSeries(ctx, patientID, domain.NewSeriesAssignment(seriesA, time.Now())))

	require.NoError(t, users.IncrementCompletedSessions(ctx, patientID, seriesA.ID))
	require.NoError(t, users.IncrementCompletedSessions(ctx, patientID, seriesA.ID))
	assert.ErrorIs(t, users.IncrementCompletedSessions(ctx, patientID, seriesB.ID), repository.ErrNotFound)

	u, err := users.GetByID(ctx, patientID)
	require.NoError(t, err)
	assert.Equal(t, 2, u.AssignedSeries.CompletedSessionCount)

	require.NoError(t, users.SetAssignedSeries(ctx, patientID, domain.NewSeriesAssignment(seriesB, time.Now())))
	u, err = users.GetByID(ctx, patientID)
	require.NoError(t, err)
	assert.Equal(t, seriesB.ID, u.AssignedSeries.SeriesID)
	assert.Equal(t, 0, u.AssignedSeries.CompletedSessionCount)
}

func TestUserStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := NewUserStore()
	_, err := users.Create(ctx, &domain.User{Email: "a@example.com", Role: domain.RoleInstructor})
	require.NoError(t, err)
	_, err = users.Create(ctx, &domain.User{Email: "A@example.com", Role: domain.RoleInstructor})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestSessionStore_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionStore()
	patientID := primitive.NewObjectID()

	first := &domain.SessionEntry{PatientID: patientID, OccurredAt: time.Now(), IdempotencyKey: "k1"}
	require.NoError(t, sessions.Create(ctx, first))
	err := sessions.Create(ctx, &domain.SessionEntry{PatientID: patientID, OccurredAt: time.Now(), IdempotencyKey: "k1"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	// Another patient may reuse the key; entries without a key never collide.
	require.NoError(t, sessions.Create(ctx, &domain.SessionEntry{PatientID: primitive.NewObjectID(), IdempotencyKey: "k1"}))
	require.NoError(t, sessions.Create(ctx, &domain.SessionEntry{PatientID: patientID}))
	require.NoError(t, sessions.Create(ctx, &domain.SessionEntry{PatientID: patientID}))

	found, err := sessions.GetByIdempotencyKey(ctx, patientID, "k1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	list, err := sessions.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestSessionStore_CountSince(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionStore()
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	p1, p2, other := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	series := primitive.NewObjectID()

	for _, e := range []domain.SessionEntry{
		{PatientID: p1, SeriesID: series, OccurredAt: now.Add(-time.Hour)},
		{PatientID: p1, SeriesID: series, OccurredAt: now.Add(-8 * 24 * time.Hour)},
		{PatientID: p2, SeriesID: series, OccurredAt: now.Add(-6 * 24 * time.Hour)},
		{PatientID: other, SeriesID: series, OccurredAt: now},
	} {
		e := e
		require.NoError(t, sessions.Create(ctx, &e))
	}

	n, err := sessions.CountByPatientsSince(ctx, []primitive.ObjectID{p1, p2}, now.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = sessions.CountByPatientSeriesSince(ctx, p1, series, time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestPostureStore_ListFiltersByTherapy(t *testing.T) {
	ctx := context.Background()
	postures := NewPostureStore(DefaultPostures())

	all, err := postures.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	arthritis, err := postures.List(ctx, domain.TherapyArthritis)
	require.NoError(t, err)
	require.Len(t, arthritis, 1)
	assert.Equal(t, "p2", arthritis[0].ID)

	_, err = postures.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
