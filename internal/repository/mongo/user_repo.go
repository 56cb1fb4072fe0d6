package mongo

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email and role are required")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	return user.ID, nil
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func patientsOf(instructorID primitive.ObjectID) bson.M {
	return bson.M{"role": domain.RolePatient, "instructorId": instructorID}
}

// ListPatientsByInstructor returns the instructor's patients, newest first.
func (r *mongoUserRepository) ListPatientsByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.User, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, patientsOf(instructorID), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	patients := []domain.User{}
	if err = cursor.All(ctx, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// UpdatePatient sets only the provided profile fields.
func (r *mongoUserRepository) UpdatePatient(ctx context.Context, patientID primitive.ObjectID, upd repository.PatientUpdate) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for field, v := range map[string]*string{
		"name":       upd.Name,
		"phone":      upd.Phone,
		"birthDate":  upd.BirthDate,
		"gender":     upd.Gender,
		"nationalId": upd.NationalID,
		"notes":      upd.Notes,
	} {
		if v != nil {
			set[field] = *v
		}
	}

	filter := bson.M{"_id": patientID, "role": domain.RolePatient}
	return r.updateOne(ctx, filter, bson.M{"$set": set})
}

func (r *mongoUserRepository) ActivateWithPassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{"$set": bson.M{
		"passwordHash": passwordHash,
		"status":       domain.StatusActive,
		"updatedAt":    time.Now().UTC(),
	}}
	return r.updateOne(ctx, bson.M{"_id": id}, update)
}

// SetAssignedSeries replaces the whole embedded progress record.
func (r *mongoUserRepository) SetAssignedSeries(ctx context.Context, patientID primitive.ObjectID, assignment *domain.SeriesAssignment) error {
	filter := bson.M{"_id": patientID, "role": domain.RolePatient}
	update := bson.M{"$set": bson.M{
		"assignedSeries": assignment,
		"updatedAt":      time.Now().UTC(),
	}}
	return r.updateOne(ctx, filter, update)
}

// IncrementCompletedSessions is a single $inc guarded by the series id, so a
// concurrent reassignment is never bumped by a session of the old series.
func (r *mongoUserRepository) IncrementCompletedSessions(ctx context.Context, patientID, seriesID primitive.ObjectID) error {
	filter := bson.M{"_id": patientID, "assignedSeries.seriesId": seriesID}
	update := bson.M{
		"$inc": bson.M{"assignedSeries.completedSessionCount": 1},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, filter, update)
}

func (r *mongoUserRepository) SetCompletedSessions(ctx context.Context, patientID, seriesID primitive.ObjectID, count int) error {
	filter := bson.M{"_id": patientID, "assignedSeries.seriesId": seriesID}
	update := bson.M{"$set": bson.M{
		"assignedSeries.completedSessionCount": count,
		"updatedAt":                            time.Now().UTC(),
	}}
	return r.updateOne(ctx, filter, update)
}

func (r *mongoUserRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Listing and counting patients by instructor
			Keys:    bson.D{{Key: "instructorId", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
