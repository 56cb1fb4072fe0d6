package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TherapyType is the condition a series is designed for.
type TherapyType string

const (
	TherapyAnxiety     TherapyType = "anxiety"
	TherapyArthritis   TherapyType = "arthritis"
	TherapyBackPain    TherapyType = "back_pain"
	TherapyHeadache    TherapyType = "headache"
	TherapyInsomnia    TherapyType = "insomnia"
	TherapyPoorPosture TherapyType = "poor_posture"
)

var therapyTypes = []TherapyType{
	TherapyAnxiety,
	TherapyArthritis,
	TherapyBackPain,
	TherapyHeadache,
	TherapyInsomnia,
	TherapyPoorPosture,
}

// TherapyTypes returns every supported therapy type.
func TherapyTypes() []TherapyType {
	out := make([]TherapyType, len(therapyTypes))
	copy(out, therapyTypes)
	return out
}

// Valid reports whether t is one of the supported therapy types.
func (t TherapyType) Valid() bool {
	for _, tt := range therapyTypes {
		if t == tt {
			return true
		}
	}
	return false
}

// SeriesStep is one entry of a series: a posture held for a number of minutes.
type SeriesStep struct {
	PostureID       string `bson:"postureId" json:"postureId"`
	DurationMinutes int    `bson:"durationMinutes" json:"durationMinutes"`
}

// Series is an ordered list of postures prescribed by an instructor.
type Series struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                    string             `bson:"name" json:"name"`
	TherapyType             TherapyType        `bson:"therapyType" json:"therapyType"`
	OwnerInstructorID       primitive.ObjectID `bson:"ownerInstructorId" json:"ownerInstructorId"`
	RecommendedSessionCount int                `bson:"recommendedSessionCount" json:"recommendedSessionCount"`
	Postures                []SeriesStep       `bson:"postures" json:"postures"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the series invariants. Ownership is not checked here.
func (s *Series) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !s.TherapyType.Valid() {
		errs = append(errs, fmt.Errorf("unknown therapy type %q", s.TherapyType))
	}
	if s.RecommendedSessionCount <= 0 {
		errs = append(errs, errors.New("recommendedSessionCount must be greater than 0"))
	}
	if len(s.Postures) == 0 {
		errs = append(errs, errors.New("at least one posture is required"))
	}
	for i, step := range s.Postures {
		if step.PostureID == "" {
			errs = append(errs, fmt.Errorf("postures[%d]: postureId is required", i))
		}
		if step.DurationMinutes < 0 {
			errs = append(errs, fmt.Errorf("postures[%d]: durationMinutes cannot be negative", i))
		}
	}
	return errors.Join(errs...)
}

// TotalMinutes is the planned length of one session of the series.
func (s *Series) TotalMinutes() int {
	total := 0
	for _, step := range s.Postures {
		total += step.DurationMinutes
	}
	return total
}
