package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/therapy-app/internal/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledger(t *testing.T, f *fixture, p *domain.User) []domain.SessionEntry {
	t.Helper()
	entries, err := f.sessions.ListByPatient(context.Background(), p.ID)
	require.NoError(t, err)
	return entries
}

func TestRecordSession_IncrementsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, series := f.assignedPatient(t)

	fixedNow := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	f.recorder.(*sessionService).now = func() time.Time { return fixedNow }

	ack, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
	require.NoError(t, err)
	assert.Equal(t, SessionRecordedMessage, ack.Message)
	assert.False(t, ack.Duplicate)

	entries := ledger(t, f, patient)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, f.completed(t, patient.ID))

	e := entries[0]
	assert.Equal(t, ack.SessionID, e.ID)
	assert.Equal(t, series.ID, e.SeriesID)
	assert.Equal(t, fixedNow, e.OccurredAt)
	assert.Equal(t, 3, e.PainBefore)
	assert.Equal(t, 1, e.PainAfter)
	assert.Equal(t, 3, *e.EffectiveActiveMinutes)
	assert.Equal(t, 1, *e.PauseCount)
	assert.EqualValues(t, 1, testutil.ToFloat64(f.metrics.CounterSessionsRecorded))
}

func TestRecordSession_WithoutAssignmentWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient := f.newPatient(t, f.instructorID)

	_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
	assert.ErrorIs(t, err, ErrNotAssigned)
	assert.Empty(t, ledger(t, f, patient))
	assert.Equal(t, -1, f.completed(t, patient.ID))
}

func TestRecordSession_ValidationWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	cases := map[string]func(r *domain.SessionReport){
		"missing painBefore":   func(r *domain.SessionReport) { r.PainBefore = nil },
		"painBefore too high":  func(r *domain.SessionReport) { r.PainBefore = intPtr(5) },
		"painAfter negative":   func(r *domain.SessionReport) { r.PainAfter = intPtr(-1) },
		"missing painAfter":    func(r *domain.SessionReport) { r.PainAfter = nil },
		"blank comment":        func(r *domain.SessionReport) { r.Comment = "   " },
		"missing start":        func(r *domain.SessionReport) { r.SessionStartTime = nil },
		"missing end":          func(r *domain.SessionReport) { r.SessionEndTime = nil },
		"end before start":     func(r *domain.SessionReport) { e := r.SessionStartTime.Add(-time.Second); r.SessionEndTime = &e },
		"negative pause count": func(r *domain.SessionReport) { r.PauseCount = intPtr(-2) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validReport()
			mutate(r)
			_, err := f.recorder.RecordSession(ctx, patient.ID, r)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
	_, err := f.recorder.RecordSession(ctx, patient.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.Empty(t, ledger(t, f, patient))
	assert.Equal(t, 0, f.completed(t, patient.ID))
}

func TestRecordSession_OptionalCountersDefaultToZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	r := validReport()
	r.EffectiveActiveMinutes = nil
	r.PauseCount = nil
	ack, err := f.recorder.RecordSession(ctx, patient.ID, r)
	require.NoError(t, err)
	assert.Equal(t, 0, *ack.Session.EffectiveActiveMinutes)
	assert.Equal(t, 0, *ack.Session.PauseCount)
}

func TestRecordSession_NoKeyIsNotDeduplicated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	for i := 0; i < 2; i++ {
		_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
		require.NoError(t, err)
	}
	assert.Len(t, ledger(t, f, patient), 2)
	assert.Equal(t, 2, f.completed(t, patient.ID))
}

func TestRecordSession_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	r := validReport()
	r.IdempotencyKey = "3f8a6c1e-0b7d-4e0a-9a57-7c1c2b9d1e11"
	first, err := f.recorder.RecordSession(ctx, patient.ID, r)
	require.NoError(t, err)
	again, err := f.recorder.RecordSession(ctx, patient.ID, r)
	require.NoError(t, err)

	assert.True(t, again.Duplicate)
	assert.Equal(t, first.SessionID, again.SessionID)
	assert.Len(t, ledger(t, f, patient), 1)
	assert.Equal(t, 1, f.completed(t, patient.ID))
	assert.EqualValues(t, 1, testutil.ToFloat64(f.metrics.CounterSessionDuplicates))
}

func TestRecordSession_FailedInsertLeavesCounter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	f.sessions.FailNextCreate(errors.New("disk full"))
	_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
	assert.ErrorIs(t, err, ErrSessionPersist)
	assert.Empty(t, ledger(t, f, patient))
	assert.Equal(t, 0, f.completed(t, patient.ID))

	// Manual retry succeeds
	_, err = f.recorder.RecordSession(ctx, patient.ID, validReport())
	require.NoError(t, err)
	assert.Equal(t, 1, f.completed(t, patient.ID))
}

func TestRecordSession_ConcurrentSubmissionsAllCounted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, _ := f.assignedPatient(t)

	const n = 20
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}
	assert.Len(t, ledger(t, f, patient), n)
	assert.Equal(t, n, f.completed(t, patient.ID))
}
