package mongo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	userCollectionName         = "users"
	preferencesCollectionName  = "training_preferences"
	monthPlanCollectionName    = "month_plans"
	weekPlanCollectionName     = "week_plans"
	dayPlanCollectionName      = "day_plans"
	sectionCollectionName      = "sections"
	sectionMediaCollectionName = "section_media"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err = client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}
	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database) {
	EnsureUserIndexes(ctx, db.Collection(userCollectionName))
	EnsurePreferencesIndexes(ctx, db.Collection(preferencesCollectionName))
	EnsureMonthPlanIndexes(ctx, db.Collection(monthPlanCollectionName))
	EnsureWeekPlanIndexes(ctx, db.Collection(weekPlanCollectionName))
	EnsureDayPlanIndexes(ctx, db.Collection(dayPlanCollectionName))
	EnsureSectionIndexes(ctx, db.Collection(sectionCollectionName))
	EnsureSectionMediaIndexes(ctx, db.Collection(sectionMediaCollectionName))
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) {
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}

// mapInsertError turns a unique index violation into ErrDuplicatePeriod.
func mapInsertError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicatePeriod
	}
	return err
}

func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

// findIDs returns the _id of every document matching filter.
func findIDs(ctx context.Context, collection *mongo.Collection, filter bson.M) ([]primitive.ObjectID, error) {
	raw, err := collection.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func exists(ctx context.Context, collection *mongo.Collection, filter bson.M) (bool, error) {
	n, err := collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// markGenerated advances lastRunAt. $max never moves it backwards and never
// clears it.
func markGenerated(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID, at time.Time) error {
	result, err := collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$max": bson.M{"lastRunAt": at.UTC()},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// NewStores wires every MongoDB repository against db.
func NewStores(db *mongo.Database) repository.Stores {
	return repository.Stores{
		Users:        NewMongoUserRepository(db),
		Preferences:  NewMongoPreferencesRepository(db),
		Months:       NewMongoMonthPlanRepository(db),
		Weeks:        NewMongoWeekPlanRepository(db),
		Days:         NewMongoDayPlanRepository(db),
		Sections:     NewMongoSectionRepository(db),
		SectionMedia: NewMongoSectionMediaRepository(db),
	}
}
