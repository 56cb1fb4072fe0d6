package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleInstructor Role = "instructor"
	RolePatient    Role = "patient"
)

// AccountStatus tracks whether a patient has set a password yet.
type AccountStatus string

const (
	StatusPending AccountStatus = "pending" // Registered by an instructor, no password yet
	StatusActive  AccountStatus = "active"
)

// User represents a user in the system (either an Instructor or a Patient).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	Status       AccountStatus      `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Patient-specific ---
	InstructorID   *primitive.ObjectID `bson:"instructorId,omitempty" json:"instructorId,omitempty"`
	NationalID     string              `bson:"nationalId,omitempty" json:"nationalId,omitempty"` // cedula
	BirthDate      string              `bson:"birthDate,omitempty" json:"birthDate,omitempty"`
	Phone          string              `bson:"phone,omitempty" json:"phone,omitempty"`
	Gender         string              `bson:"gender,omitempty" json:"gender,omitempty"`
	Notes          string              `bson:"notes,omitempty" json:"notes,omitempty"`
	AssignedSeries *SeriesAssignment   `bson:"assignedSeries,omitempty" json:"assignedSeries,omitempty"`
}

func (u *User) IsInstructor() bool {
	return u.Role == RoleInstructor
}

func (u *User) IsPatient() bool {
	return u.Role == RolePatient
}

// ManagedBy reports whether the patient belongs to the given instructor.
func (u *User) ManagedBy(instructorID primitive.ObjectID) bool {
	return u.InstructorID != nil && *u.InstructorID == instructorID
}
