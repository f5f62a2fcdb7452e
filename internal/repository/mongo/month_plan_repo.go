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

// mongoMonthPlanRepository implements repository.MonthPlanRepository
type mongoMonthPlanRepository struct {
	collection *mongo.Collection
	cascade    cascade
}

// NewMongoMonthPlanRepository creates a new MonthPlan repository.
func NewMongoMonthPlanRepository(db *mongo.Database) repository.MonthPlanRepository {
	return &mongoMonthPlanRepository{
		collection: db.Collection(monthPlanCollectionName),
		cascade:    newCascade(db),
	}
}

// Create inserts a new month plan. The unique (userId, period) index turns a
// concurrent duplicate into ErrDuplicatePeriod.
func (r *mongoMonthPlanRepository) Create(ctx context.Context, plan *domain.MonthPlan) (primitive.ObjectID, error) {
	if plan.UserID == primitive.NilObjectID || plan.Period == "" {
		return primitive.NilObjectID, errors.New("month plan requires userId and period")
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

// GetByID retrieves a month plan owned by userID.
func (r *mongoMonthPlanRepository) GetByID(ctx context.Context, id, userID primitive.ObjectID) (*domain.MonthPlan, error) {
	var plan domain.MonthPlan
	err := r.collection.FindOne(ctx, bson.M{"_id": id, "userId": userID}).Decode(&plan)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ListByUser returns the user's month plans, oldest period first.
func (r *mongoMonthPlanRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.MonthPlan, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "period", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	plans := []domain.MonthPlan{}
	if err = cursor.All(ctx, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *mongoMonthPlanRepository) CountByUser(ctx context.Context, userID primitive.ObjectID) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID})
	return int(n), err
}

func (r *mongoMonthPlanRepository) ExistsForPeriod(ctx context.Context, userID primitive.ObjectID, period string) (bool, error) {
	return exists(ctx, r.collection, bson.M{"userId": userID, "period": period})
}

// Update rewrites the editable parameters. Period and lastRunAt are not
// touched here.
func (r *mongoMonthPlanRepository) Update(ctx context.Context, plan *domain.MonthPlan) error {
	if plan.ID == primitive.NilObjectID {
		return errors.New("month plan ID is required for update")
	}
	set := parameterFields(plan.TrainingParameters)
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

func (r *mongoMonthPlanRepository) MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return markGenerated(ctx, r.collection, id, at)
}

// Delete removes the month plan and everything under it.
func (r *mongoMonthPlanRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	owned, err := exists(ctx, r.collection, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if !owned {
		return repository.ErrNotFound
	}
	if err := r.cascade.underMonth(ctx, id); err != nil {
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

// EnsureMonthPlanIndexes creates necessary indexes. Call during startup.
func EnsureMonthPlanIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// One month plan per user and YYYY-MM
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "period", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

// parameterFields lists every baseline parameter for a $set, so cleared
// values are written as null rather than skipped.
func parameterFields(p domain.TrainingParameters) bson.M {
	return bson.M{
		"rosterSize":      p.RosterSize,
		"goalkeepers":     p.Goalkeepers,
		"sessionsPerWeek": p.SessionsPerWeek,
		"sessionDuration": p.SessionDuration,
		"monthCount":      p.MonthCount,
		"philosophy":      p.Philosophy,
		"ageGroup":        p.AgeGroup,
		"focus":           p.Focus,
		"weaknesses":      p.Weaknesses,
		"notes":           p.Notes,
		"seasonPhase":     p.SeasonPhase,
		"seasonGoal":      p.SeasonGoal,
		"gameIdea":        p.GameIdea,
		"matchFormation":  p.MatchFormation,
		"pitch":           p.Pitch,
	}
}
