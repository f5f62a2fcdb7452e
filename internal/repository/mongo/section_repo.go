package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSectionRepository implements repository.SectionRepository
type mongoSectionRepository struct {
	collection *mongo.Collection
}

// NewMongoSectionRepository creates a new Section repository.
func NewMongoSectionRepository(db *mongo.Database) repository.SectionRepository {
	return &mongoSectionRepository{collection: db.Collection(sectionCollectionName)}
}

// Upsert writes a section keyed by (dayPlanId, sectionIndex).
func (r *mongoSectionRepository) Upsert(ctx context.Context, section *domain.Section) error {
	if !domain.ValidSectionIndex(section.Index) {
		return fmt.Errorf("section index %d out of range", section.Index)
	}
	now := time.Now().UTC()
	filter := bson.M{"dayPlanId": section.DayPlanID, "sectionIndex": section.Index}
	update := bson.M{
		"$set": bson.M{
			"userId":         section.UserID,
			"phase":          section.Phase,
			"gameForm":       section.GameForm,
			"duration":       section.Duration,
			"organisation":   section.Organisation,
			"procedure":      section.Procedure,
			"coachingPoints": section.CoachingPoints,
			"variants":       section.Variants,
			"updatedAt":      now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	var stored domain.Section
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return err
	}
	*section = stored
	return nil
}

// ListByDay returns the sections of a day in index order.
func (r *mongoSectionRepository) ListByDay(ctx context.Context, dayPlanID primitive.ObjectID) ([]domain.Section, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "sectionIndex", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"dayPlanId": dayPlanID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	sections := []domain.Section{}
	if err = cursor.All(ctx, &sections); err != nil {
		return nil, err
	}
	return sections, nil
}

// CountByDays returns the number of sections per day. Days without
// sections are absent from the map.
func (r *mongoSectionRepository) CountByDays(ctx context.Context, dayPlanIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	counts := make(map[primitive.ObjectID]int)
	if len(dayPlanIDs) == 0 {
		return counts, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"dayPlanId": bson.M{"$in": dayPlanIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$dayPlanId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		DayPlanID primitive.ObjectID `bson:"_id"`
		Count     int                `bson:"count"`
	}
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.DayPlanID] = row.Count
	}
	return counts, nil
}

func (r *mongoSectionRepository) ExistsAtIndex(ctx context.Context, dayPlanID primitive.ObjectID, index int) (bool, error) {
	return exists(ctx, r.collection, bson.M{"dayPlanId": dayPlanID, "sectionIndex": index})
}

// EnsureSectionIndexes creates necessary indexes. Call during startup.
func EnsureSectionIndexes(ctx context.Context, collection *mongo.Collection) {
	createIndexes(ctx, collection, []mongo.IndexModel{
		{
			// Section indices are unique per day
			Keys:    bson.D{{Key: "dayPlanId", Value: 1}, {Key: "sectionIndex", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}
