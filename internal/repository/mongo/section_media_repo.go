package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSectionMediaRepository implements repository.SectionMediaRepository
type mongoSectionMediaRepository struct {
	collection *mongo.Collection
}

// NewMongoSectionMediaRepository creates a new SectionMedia repository.
func NewMongoSectionMediaRepository(db *mongo.Database) repository.SectionMediaRepository {
	return &mongoSectionMediaRepository{collection: db.Collection(sectionMediaCollectionName)}
}

// Create inserts sketch metadata. The object itself lives in S3.
func (r *mongoSectionMediaRepository) Create(ctx context.Context, media *domain.SectionMedia) (primitive.ObjectID, error) {
	if media.SectionID == primitive.NilObjectID || media.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("section media requires sectionId and objectKey")
	}
	media.ID = primitive.NewObjectID()
	media.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, media)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return insertedObjectID(result)
}

// LatestOK picks the newest ok sketch per section. ObjectIDs grow with
// insertion time, so sorting by _id gives insertion order.
func (r *mongoSectionMediaRepository) LatestOK(ctx context.Context, sectionIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.SectionMedia, error) {
	latest := make(map[primitive.ObjectID]domain.SectionMedia)
	if len(sectionIDs) == 0 {
		return latest, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"sectionId": bson.M{"$in": sectionIDs}, "status": domain.MediaStatusOK}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.M{"_id": "$sectionId", "doc": bson.M{"$first": "$$ROOT"}}}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$doc"}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []domain.SectionMedia
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, m := range rows {
		latest[m.SectionID] = m
	}
	return latest, nil
}

// EnsureSectionMediaIndexes creates necessary indexes. Call during startup.
func EnsureSectionMediaIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "sectionId", Value: 1}, {Key: "_id", Value: -1}},
			Options: options.Index(),
		},
	})
}
