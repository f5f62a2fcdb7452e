package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoDayPlanRepository implements repository.DayPlanRepository
type mongoDayPlanRepository struct {
	collection *mongo.Collection
	cascade    cascade
}

// NewMongoDayPlanRepository creates a new DayPlan repository.
func NewMongoDayPlanRepository(db *mongo.Database) repository.DayPlanRepository {
	return &mongoDayPlanRepository{
		collection: db.Collection(dayPlanCollectionName),
		cascade:    newCascade(db),
	}
}

func (r *mongoDayPlanRepository) Create(ctx context.Context, plan *domain.DayPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.WeekPlanID == primitive.NilObjectID || plan.TrainingDate == "" {
		return primitive.NilObjectID, errors.New("day plan requires userId, weekPlanId, and trainingDate")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	plan.LastRunAt = nil

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapInsertError(err)
	}
	return insertedObjectID(result)
}

func (r *mongoDayPlanRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.DayPlan, error) {
	var plan domain.DayPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *mongoDayPlanRepository) ListByWeek(ctx context.Context, weekPlanID, userID primitive.ObjectID) ([]domain.DayPlan, error) {
	return r.find(ctx, bson.M{"weekPlanId": weekPlanID, "userId": userID})
}

func (r *mongoDayPlanRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.DayPlan, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

func (r *mongoDayPlanRepository) find(ctx context.Context, filter bson.M) ([]domain.DayPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "trainingDate", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.DayPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoDayPlanRepository) ExistsForPeriod(ctx context.Context, userID, weekPlanID primitive.ObjectID, trainingDate string) (bool, error) {
	return exists(ctx, r.collection, bson.M{"userId": userID, "weekPlanId": weekPlanID, "trainingDate": trainingDate})
}

func (r *mongoDayPlanRepository) HasAnyForWeek(ctx context.Context, weekPlanID primitive.ObjectID) (bool, error) {
	return exists(ctx, r.collection, bson.M{"weekPlanId": weekPlanID})
}

func (r *mongoDayPlanRepository) Update(ctx context.Context, plan *domain.DayPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("day plan ID is required for update")
	}
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": plan.ID, "userId": plan.UserID},
		bson.M{"$set": bson.M{
			"dayNumber":    plan.DayNumber,
			"trainingGoal": plan.TrainingGoal,
			"focus1":       plan.Focus1,
			"focus2":       plan.Focus2,
			"focus3":       plan.Focus3,
			"rosterSize":   plan.RosterSize,
			"updatedAt":    time.Now().UTC(),
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoDayPlanRepository) MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return markGenerated(ctx, r.collection, id, at)
}

// Delete removes the day plan and its sections and sketches.
func (r *mongoDayPlanRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	owned, err := exists(ctx, r.collection, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if !owned {
		return repository.ErrNotFound
	}
	if err := r.cascade.underDays(ctx, []primitive.ObjectID{id}); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrDeleteFailed, err)
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureDayPlanIndexes creates necessary indexes. Call during startup.
func EnsureDayPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One day plan per date within a week
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "weekPlanId", Value: 1},
				{Key: "trainingDate", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "weekPlanId", Value: 1}},
			Options: options.Index(),
		},
	})
}
