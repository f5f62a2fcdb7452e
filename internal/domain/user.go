package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a coach. Profile fields feed the dashboard header and the
// generation payload.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	DisplayName  string             `bson:"displayName,omitempty" json:"displayName,omitempty"`
	Club         string             `bson:"club,omitempty" json:"club,omitempty"`
	Team         string             `bson:"team,omitempty" json:"team,omitempty"`
	AgeGroup     string             `bson:"ageGroup,omitempty" json:"ageGroup,omitempty"`

	// How many month plans the coach may hold. Nil falls back to the
	// configured default.
	MonthPlanQuota *int `bson:"monthPlanQuota,omitempty" json:"monthPlanQuota,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TrainingPreferences is the coach's baseline record, one per user.
type TrainingPreferences struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	TrainingParameters `bson:",inline"`
	CreatedAt          time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time `bson:"updatedAt" json:"updatedAt"`
}
