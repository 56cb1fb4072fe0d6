package mongo

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionCollectionName = "sessions"

// mongoSessionRepository is the append-only session ledger.
type mongoSessionRepository struct {
	collection *mongo.Collection
}

func NewMongoSessionRepository(db *mongo.Database) repository.SessionRepository {
	return &mongoSessionRepository{
		collection: db.Collection(sessionCollectionName),
	}
}

// Create inserts the entry. The unique (patientId, idempotencyKey) index turns
// a resubmission into repository.ErrDuplicate.
func (r *mongoSessionRepository) Create(ctx context.Context, entry *domain.SessionEntry) error {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *mongoSessionRepository) GetByIdempotencyKey(ctx context.Context, patientID primitive.ObjectID, key string) (*domain.SessionEntry, error) {
	if key == "" {
		return nil, repository.ErrNotFound
	}
	var entry domain.SessionEntry
	err := r.collection.FindOne(ctx, bson.M{"patientId": patientID, "idempotencyKey": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// ListByPatient returns the patient's sessions, most recent first.
func (r *mongoSessionRepository) ListByPatient(ctx context.Context, patientID primitive.ObjectID) ([]domain.SessionEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"patientId": patientID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []domain.SessionEntry{}
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *mongoSessionRepository) CountByPatientsSince(ctx context.Context, patientIDs []primitive.ObjectID, since time.Time) (int64, error) {
	if len(patientIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"patientId":  bson.M{"$in": patientIDs},
		"occurredAt": bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

func (r *mongoSessionRepository) CountByPatientSeriesSince(ctx context.Context, patientID, seriesID primitive.ObjectID, since time.Time) (int64, error) {
	filter := bson.M{
		"patientId":  patientID,
		"seriesId":   seriesID,
		"occurredAt": bson.M{"$gte": since},
	}
	return r.collection.CountDocuments(ctx, filter)
}

// EnsureSessionIndexes creates necessary indexes for the sessions collection.
func EnsureSessionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patientId", Value: 1}, {Key: "occurredAt", Value: -1}},
			Options: options.Index(),
		},
		{
			// Only entries that carry a key take part in deduplication
			Keys: bson.D{{Key: "patientId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
