package mongo

import (
	"alcyxob/therapy-app/internal/domain"
	"alcyxob/therapy-app/internal/repository"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const postureCollectionName = "postures"

type mongoPostureRepository struct {
	collection *mongo.Collection
}

// NewMongoPostureRepository returns a read-only accessor over the posture catalog.
func NewMongoPostureRepository(db *mongo.Database) repository.PostureRepository {
	return &mongoPostureRepository{
		collection: db.Collection(postureCollectionName),
	}
}

func (r *mongoPostureRepository) GetByID(ctx context.Context, id string) (*domain.Posture, error) {
	var posture domain.Posture
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&posture)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &posture, nil
}

func (r *mongoPostureRepository) List(ctx context.Context, therapyType domain.TherapyType) ([]domain.Posture, error) {
	filter := bson.M{}
	if therapyType != "" {
		filter["therapyTypes"] = string(therapyType)
	}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	postures := []domain.Posture{}
	if err = cursor.All(ctx, &postures); err != nil {
		return nil, err
	}
	return postures, nil
}

// SeedPostures upserts the given catalog entries by id. Existing entries are
// left as they are.
func SeedPostures(ctx context.Context, collection *mongo.Collection, postures []domain.Posture) error {
	if len(postures) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(postures))
	for _, p := range postures {
		raw, err := bson.Marshal(p)
		if err != nil {
			return err
		}
		var doc bson.M
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return err
		}
		delete(doc, "_id")
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetUpdate(bson.M{"$setOnInsert": doc}).
			SetUpsert(true))
	}
	_, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

// EnsurePostureIndexes creates necessary indexes for the postures collection.
func EnsurePostureIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "therapyTypes", Value: 1}},
		Options: options.Index(),
	})
	return err
}
