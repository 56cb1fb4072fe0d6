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

const seriesCollectionName = "series"

type mongoSeriesRepository struct {
	collection *mongo.Collection
}

// NewMongoSeriesRepository creates a new instance of mongoSeriesRepository.
func NewMongoSeriesRepository(db *mongo.Database) repository.SeriesRepository {
	return &mongoSeriesRepository{
		collection: db.Collection(seriesCollectionName),
	}
}

// Create inserts a new series.
func (r *mongoSeriesRepository) Create(ctx context.Context, series *domain.Series) (primitive.ObjectID, error) {
	series.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	series.CreatedAt = now
	series.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, series); err != nil {
		return primitive.NilObjectID, err
	}
	return series.ID, nil
}

// GetByID retrieves a series by its ObjectID.
func (r *mongoSeriesRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Series, error) {
	var series domain.Series
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&series)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &series, nil
}

// ListByOwner retrieves all series authored by an instructor, newest first.
func (r *mongoSeriesRepository) ListByOwner(ctx context.Context, instructorID primitive.ObjectID) ([]domain.Series, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"ownerInstructorId": instructorID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	series := []domain.Series{}
	if err = cursor.All(ctx, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (r *mongoSeriesRepository) CountByOwner(ctx context.Context, instructorID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"ownerInstructorId": instructorID})
}

// Update replaces the editable fields. The owner is part of the filter and is never changed.
func (r *mongoSeriesRepository) Update(ctx context.Context, series *domain.Series) error {
	if series.ID == primitive.NilObjectID {
		return errors.New("series ID is required for update")
	}
	series.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": series.ID, "ownerInstructorId": series.OwnerInstructorID}
	update := bson.M{
		"$set": bson.M{
			"name":                    series.Name,
			"therapyType":             series.TherapyType,
			"recommendedSessionCount": series.RecommendedSessionCount,
			"postures":                series.Postures,
			"updatedAt":               series.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureSeriesIndexes creates necessary indexes for the series collection.
func EnsureSeriesIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerInstructorId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
