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

// mongoPreferencesRepository implements repository.PreferencesRepository
type mongoPreferencesRepository struct {
	collection *mongo.Collection
}

// NewMongoPreferencesRepository creates a new preferences repository.
func NewMongoPreferencesRepository(db *mongo.Database) repository.PreferencesRepository {
	return &mongoPreferencesRepository{collection: db.Collection(preferencesCollectionName)}
}

func (r *mongoPreferencesRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPreferences, error) {
	var prefs domain.TrainingPreferences
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&prefs)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &prefs, nil
}

// Upsert replaces the user's baseline record, creating it on first save.
func (r *mongoPreferencesRepository) Upsert(ctx context.Context, prefs *domain.TrainingPreferences) error {
	if prefs.UserID == primitive.NilObjectID {
		return errors.New("preferences require userId")
	}
	now := time.Now().UTC()
	set := parameterFields(prefs.TrainingParameters)
	set["updatedAt"] = now

	var stored domain.TrainingPreferences
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"userId": prefs.UserID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return err
	}
	*prefs = stored
	return nil
}

// EnsurePreferencesIndexes creates necessary indexes. Call during startup.
func EnsurePreferencesIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
