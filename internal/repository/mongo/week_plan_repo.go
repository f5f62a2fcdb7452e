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

// mongoWeekPlanRepository implements repository.WeekPlanRepository
type mongoWeekPlanRepository struct {
	collection *mongo.Collection
	cascade    cascade
}

// NewMongoWeekPlanRepository creates a new WeekPlan repository.
func NewMongoWeekPlanRepository(db *mongo.Database) repository.WeekPlanRepository {
	return &mongoWeekPlanRepository{
		collection: db.Collection(weekPlanCollectionName),
		cascade:    newCascade(db),
	}
}

// Create inserts a new week plan.
func (r *mongoWeekPlanRepository) Create(ctx context.Context, plan *domain.WeekPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.MonthPlanID == primitive.NilObjectID || plan.CalendarWeek == 0 {
		return primitive.NilObjectID, errors.New("week plan requires userId, monthPlanId, and calendarWeek")
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

// GetByID retrieves a week plan owned by userID.
func (r *mongoWeekPlanRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.WeekPlan, error) {
	var plan domain.WeekPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByMonth returns the weeks of a month ordered by calendar week.
func (r *mongoWeekPlanRepository) ListByMonth(ctx context.Context, monthPlanID, userID primitive.ObjectID) ([]domain.WeekPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "calendarWeek", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"monthPlanId": monthPlanID, "userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.WeekPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// ListViews joins every week of the user with its month period and counts
// the days planned under it.
func (r *mongoWeekPlanRepository) ListViews(ctx context.Context, userID primitive.ObjectID) ([]domain.WeekPlanView, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         monthPlanCollectionName,
			"localField":   "monthPlanId",
			"foreignField": "_id",
			"as":           "month",
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         dayPlanCollectionName,
			"localField":   "_id",
			"foreignField": "weekPlanId",
			"as":           "days",
		}}},
		{{Key: "$addFields", Value: bson.M{
			"monthPeriod": bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$month.period", 0}}, ""}},
			"dayCount":    bson.M{"$size": "$days"},
		}}},
		{{Key: "$project", Value: bson.M{"month": 0, "days": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "monthPeriod", Value: 1}, {Key: "calendarWeek", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	views := []domain.WeekPlanView{}
	if err = cursor.All(ctx, &views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *mongoWeekPlanRepository) ExistsForPeriod(ctx context.Context, userID, monthPlanID primitive.ObjectID, calendarWeek int) (bool, error) {
	return exists(ctx, r.collection, bson.M{"userId": userID, "monthPlanId": monthPlanID, "calendarWeek": calendarWeek})
}

func (r *mongoWeekPlanRepository) HasAnyForMonth(ctx context.Context, monthPlanID primitive.ObjectID) (bool, error) {
	return exists(ctx, r.collection, bson.M{"monthPlanId": monthPlanID})
}

// Update rewrites goals, focus areas and the denormalized baseline.
func (r *mongoWeekPlanRepository) Update(ctx context.Context, plan *domain.WeekPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("week plan ID is required for update")
	}
	set := parameterFields(plan.TrainingParameters)
	set["trainingGoal"] = plan.TrainingGoal
	set["focus1"] = plan.Focus1
	set["focus2"] = plan.Focus2
	set["focus3"] = plan.Focus3
	set["weekStart"] = plan.WeekStart
	set["updatedAt"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": plan.ID, "userId": plan.UserID},
		bson.M{"$set": set},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWeekPlanRepository) MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return markGenerated(ctx, r.collection, id, at)
}

// Delete removes the week plan and its days, sections and sketches.
func (r *mongoWeekPlanRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	owned, err := exists(ctx, r.collection, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if !owned {
		return repository.ErrNotFound
	}
	if err := r.cascade.underWeeks(ctx, []primitive.ObjectID{id}); err != nil {
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

// EnsureWeekPlanIndexes creates necessary indexes. Call during startup.
func EnsureWeekPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One week plan per calendar week within a month
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "monthPlanId", Value: 1},
				{Key: "calendarWeek", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "monthPlanId", Value: 1}},
			Options: options.Index(),
		},
	})
}
