package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// cascade removes descendants of a plan, leaves first. A failure part way
// leaves the parent in place so the delete can simply be retried.
type cascade struct {
	weeks    *mongo.Collection
	days     *mongo.Collection
	sections *mongo.Collection
	media    *mongo.Collection
}

func newCascade(db *mongo.Database) cascade {
	return cascade{
		weeks:    db.Collection(weekPlanCollectionName),
		days:     db.Collection(dayPlanCollectionName),
		sections: db.Collection(sectionCollectionName),
		media:    db.Collection(sectionMediaCollectionName),
	}
}

func (c cascade) underMonth(ctx context.Context, monthID primitive.ObjectID) error {
	weekIDs, err := findIDs(ctx, c.weeks, bson.M{"monthPlanId": monthID})
	if err != nil {
		return fmt.Errorf("collect weeks: %w", err)
	}
	if err := c.underWeeks(ctx, weekIDs); err != nil {
		return err
	}
	if len(weekIDs) == 0 {
		return nil
	}
	if _, err := c.weeks.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": weekIDs}}); err != nil {
		return fmt.Errorf("delete weeks: %w", err)
	}
	return nil
}

func (c cascade) underWeeks(ctx context.Context, weekIDs []primitive.ObjectID) error {
	if len(weekIDs) == 0 {
		return nil
	}
	dayIDs, err := findIDs(ctx, c.days, bson.M{"weekPlanId": bson.M{"$in": weekIDs}})
	if err != nil {
		return fmt.Errorf("collect days: %w", err)
	}
	if err := c.underDays(ctx, dayIDs); err != nil {
		return err
	}
	if len(dayIDs) == 0 {
		return nil
	}
	if _, err := c.days.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": dayIDs}}); err != nil {
		return fmt.Errorf("delete days: %w", err)
	}
	return nil
}

func (c cascade) underDays(ctx context.Context, dayIDs []primitive.ObjectID) error {
	if len(dayIDs) == 0 {
		return nil
	}
	sectionIDs, err := findIDs(ctx, c.sections, bson.M{"dayPlanId": bson.M{"$in": dayIDs}})
	if err != nil {
		return fmt.Errorf("collect sections: %w", err)
	}
	if len(sectionIDs) == 0 {
		return nil
	}
	if _, err := c.media.DeleteMany(ctx, bson.M{"sectionId": bson.M{"$in": sectionIDs}}); err != nil {
		return fmt.Errorf("delete section media: %w", err)
	}
	if _, err := c.sections.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": sectionIDs}}); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	return nil
}
