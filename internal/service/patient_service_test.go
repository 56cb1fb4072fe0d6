package service

import (
	"context"
	"testing"

	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestPatientService_RegisterAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := f.newInstructor(t)

	p1 := f.newPatient(t, f.instructorID)
	f.newPatient(t, f.instructorID)
	f.newPatient(t, other)

	list, err := f.patients.ListPatients(ctx, f.instructorID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = f.patients.RegisterPatient(ctx, f.instructorID, PatientInput{Name: "Dup", Email: p1.Email})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = f.patients.RegisterPatient(ctx, f.instructorID, PatientInput{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.patients.GetPatient(ctx, other, p1.ID)
	assert.ErrorIs(t, err, ErrPatientNotManaged)
	_, err = f.patients.GetPatient(ctx, f.instructorID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrPatientNotFound)
	_, err = f.patients.GetPatient(ctx, f.instructorID, f.instructorID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestPatientService_UpdatePatient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.newPatient(t, f.instructorID)

	phone, notes := "555-0101", "rodilla izquierda"
	updated, err := f.patients.UpdatePatient(ctx, f.instructorID, p.ID, repository.PatientUpdate{Phone: &phone, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, notes, updated.Notes)
	assert.Equal(t, p.Name, updated.Name)

	empty := " "
	_, err = f.patients.UpdatePatient(ctx, f.instructorID, p.ID, repository.PatientUpdate{Name: &empty})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestPatientService_ReassignmentResetsProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, seriesA := f.assignedPatient(t)
	seriesB := f.newSeries(t, f.instructorID)

	for i := 0; i < 3; i++ {
		_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.completed(t, patient.ID))

	assignment, err := f.patients.AssignSeries(ctx, f.instructorID, patient.ID, seriesB.ID)
	require.NoError(t, err)
	assert.Equal(t, seriesB.ID, assignment.SeriesID)
	assert.Equal(t, seriesB.Name, assignment.SeriesName)
	assert.Equal(t, 0, f.completed(t, patient.ID))

	// Reassigning the same series is still a full reset
	_, err = f.recorder.RecordSession(ctx, patient.ID, validReport())
	require.NoError(t, err)
	_, err = f.patients.AssignSeries(ctx, f.instructorID, patient.ID, seriesB.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.completed(t, patient.ID))

	// Ledger keeps the snapshotted series ids
	history, err := f.patients.History(ctx, f.instructorID, patient.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	var bySeries = map[primitive.ObjectID]int{}
	for _, e := range history {
		bySeries[e.SeriesID]++
	}
	assert.Equal(t, 3, bySeries[seriesA.ID])
	assert.Equal(t, 1, bySeries[seriesB.ID])
}

func TestPatientService_AssignChecksOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	other := f.newInstructor(t)
	patient := f.newPatient(t, f.instructorID)
	foreign := f.newSeries(t, other)

	_, err := f.patients.AssignSeries(ctx, f.instructorID, patient.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrSeriesAccessDenied)
	_, err = f.patients.AssignSeries(ctx, f.instructorID, patient.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrSeriesNotFound)
	_, err = f.patients.AssignSeries(ctx, other, patient.ID, foreign.ID)
	assert.ErrorIs(t, err, ErrPatientNotManaged)
	assert.Equal(t, -1, f.completed(t, patient.ID))
}

func TestPatientService_RecountProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, series := f.assignedPatient(t)

	_, err := f.patients.RecountProgress(ctx, f.instructorID, f.newPatient(t, f.instructorID).ID)
	assert.ErrorIs(t, err, ErrNotAssigned)

	// Ledger entries without counter bumps
	for i := 0; i < 2; i++ {
		entry := domain.NewSessionEntry(patient.ID, series.ID, validReport(), f.patients.(*patientService).now())
		require.NoError(t, f.sessions.Create(ctx, entry))
	}
	require.Equal(t, 0, f.completed(t, patient.ID))

	assignment, err := f.patients.RecountProgress(ctx, f.instructorID, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, assignment.CompletedSessionCount)
	assert.Equal(t, 2, f.completed(t, patient.ID))
}

func TestPatientService_ProfileAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	patient, series := f.assignedPatient(t)
	_, err := f.recorder.RecordSession(ctx, patient.ID, validReport())
	require.NoError(t, err)

	profile, err := f.patients.Profile(ctx, patient.ID)
	require.NoError(t, err)
	require.NotNil(t, profile.AssignedSeries)
	assert.Equal(t, series.ID, profile.AssignedSeries.SeriesID)
	assert.Equal(t, 1, profile.AssignedSeries.CompletedSessionCount)
	assert.Equal(t, 10, profile.AssignedSeries.RecommendedSessionCount)

	history, err := f.patients.MyHistory(ctx, patient.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	_, err = f.patients.Profile(ctx, f.instructorID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
}
