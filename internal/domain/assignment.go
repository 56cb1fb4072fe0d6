package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SeriesAssignment is the patient's progress record: which series they follow
// and how many sessions they have completed under it.
// Assigning a series always replaces the whole record, the counter included.
type SeriesAssignment struct {
	SeriesID                primitive.ObjectID `bson:"seriesId" json:"seriesId"`
	SeriesName              string             `bson:"seriesName" json:"seriesName"`
	AssignedAt              time.Time          `bson:"assignedAt" json:"assignedAt"`
	RecommendedSessionCount int                `bson:"recommendedSessionCount" json:"recommendedSessionCount"`
	CompletedSessionCount   int                `bson:"completedSessionCount" json:"completedSessionCount"`
}

// NewSeriesAssignment builds a fresh progress record for the series.
func NewSeriesAssignment(series *Series, now time.Time) *SeriesAssignment {
	return &SeriesAssignment{
		SeriesID:                series.ID,
		SeriesName:              series.Name,
		AssignedAt:              now,
		RecommendedSessionCount: series.RecommendedSessionCount,
		CompletedSessionCount:   0,
	}
}
