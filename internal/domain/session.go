package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinPainLevel = 0
	MaxPainLevel = 4
)

// ValidPainLevel reports whether v is on the 0..4 discomfort scale.
func ValidPainLevel(v int) bool {
	return v >= MinPainLevel && v <= MaxPainLevel
}

// SessionEntry is one immutable row of the session ledger.
type SessionEntry struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientID              primitive.ObjectID `bson:"patientId" json:"patientId"`
	SeriesID               primitive.ObjectID `bson:"seriesId" json:"seriesId"` // Snapshot of the assignment at record time
	OccurredAt             time.Time          `bson:"occurredAt" json:"occurredAt"`
	PainBefore             int                `bson:"painBefore" json:"painBefore"`
	PainAfter              int                `bson:"painAfter" json:"painAfter"`
	Comment                string             `bson:"comment" json:"comment"`
	SessionStartTime       *time.Time         `bson:"sessionStartTime,omitempty" json:"sessionStartTime,omitempty"`
	SessionEndTime         *time.Time         `bson:"sessionEndTime,omitempty" json:"sessionEndTime,omitempty"`
	EffectiveActiveMinutes *int               `bson:"effectiveActiveMinutes,omitempty" json:"effectiveActiveMinutes,omitempty"`
	PauseCount             *int               `bson:"pauseCount,omitempty" json:"pauseCount,omitempty"`
	IdempotencyKey         string             `bson:"idempotencyKey,omitempty" json:"-"`
}

// SessionReport is what a patient submits after finishing a session.
// Pointers distinguish "absent" from zero.
type SessionReport struct {
	PainBefore             *int
	PainAfter              *int
	Comment                string
	SessionStartTime       *time.Time
	SessionEndTime         *time.Time
	EffectiveActiveMinutes *int
	PauseCount             *int
	IdempotencyKey         string
}

// Validate checks required fields and ranges. It never mutates the report.
func (r *SessionReport) Validate() error {
	var errs []error
	switch {
	case r.PainBefore == nil:
		errs = append(errs, errors.New("painBefore is required"))
	case !ValidPainLevel(*r.PainBefore):
		errs = append(errs, fmt.Errorf("painBefore must be between %d and %d", MinPainLevel, MaxPainLevel))
	}
	switch {
	case r.PainAfter == nil:
		errs = append(errs, errors.New("painAfter is required"))
	case !ValidPainLevel(*r.PainAfter):
		errs = append(errs, fmt.Errorf("painAfter must be between %d and %d", MinPainLevel, MaxPainLevel))
	}
	if strings.TrimSpace(r.Comment) == "" {
		errs = append(errs, errors.New("comment is required"))
	}
	if r.SessionStartTime == nil || r.SessionStartTime.IsZero() {
		errs = append(errs, errors.New("sessionStartTime is required"))
	}
	if r.SessionEndTime == nil || r.SessionEndTime.IsZero() {
		errs = append(errs, errors.New("sessionEndTime is required"))
	}
	if r.SessionStartTime != nil && r.SessionEndTime != nil && r.SessionEndTime.Before(*r.SessionStartTime) {
		errs = append(errs, errors.New("sessionEndTime cannot be before sessionStartTime"))
	}
	if r.EffectiveActiveMinutes != nil && *r.EffectiveActiveMinutes < 0 {
		errs = append(errs, errors.New("effectiveActiveMinutes cannot be negative"))
	}
	if r.PauseCount != nil && *r.PauseCount < 0 {
		errs = append(errs, errors.New("pauseCount cannot be negative"))
	}
	return errors.Join(errs...)
}

// NewSessionEntry builds a ledger entry from a validated report.
// Missing effective minutes and pause count default to 0.
func NewSessionEntry(patientID, seriesID primitive.ObjectID, r *SessionReport, occurredAt time.Time) *SessionEntry {
	effective, pauses := 0, 0
	if r.EffectiveActiveMinutes != nil {
		effective = *r.EffectiveActiveMinutes
	}
	if r.PauseCount != nil {
		pauses = *r.PauseCount
	}
	start := r.SessionStartTime.UTC()
	end := r.SessionEndTime.UTC()
	return &SessionEntry{
		ID:                     primitive.NewObjectID(),
		PatientID:              patientID,
		SeriesID:               seriesID,
		OccurredAt:             occurredAt.UTC(),
		PainBefore:             *r.PainBefore,
		PainAfter:              *r.PainAfter,
		Comment:                strings.TrimSpace(r.Comment),
		SessionStartTime:       &start,
		SessionEndTime:         &end,
		EffectiveActiveMinutes: &effective,
		PauseCount:             &pauses,
		IdempotencyKey:         r.IdempotencyKey,
	}
}
