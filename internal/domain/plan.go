package domain

import (
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainingParameters are the baseline values a coach sets once and every
// plan tier inherits. A nil field means "not set here, inherit".
type TrainingParameters struct {
	RosterSize      *int    `bson:"rosterSize,omitempty" json:"rosterSize,omitempty"`
	Goalkeepers     *int    `bson:"goalkeepers,omitempty" json:"goalkeepers,omitempty"`
	SessionsPerWeek *int    `bson:"sessionsPerWeek,omitempty" json:"sessionsPerWeek,omitempty"`
	SessionDuration *int    `bson:"sessionDuration,omitempty" json:"sessionDuration,omitempty"` // minutes
	MonthCount      *int    `bson:"monthCount,omitempty" json:"monthCount,omitempty"`
	Philosophy      *string `bson:"philosophy,omitempty" json:"philosophy,omitempty"`
	AgeGroup        *string `bson:"ageGroup,omitempty" json:"ageGroup,omitempty"`
	Focus           *string `bson:"focus,omitempty" json:"focus,omitempty"`
	Weaknesses      *string `bson:"weaknesses,omitempty" json:"weaknesses,omitempty"`
	Notes           *string `bson:"notes,omitempty" json:"notes,omitempty"`
	SeasonPhase     *string `bson:"seasonPhase,omitempty" json:"seasonPhase,omitempty"`
	SeasonGoal      *string `bson:"seasonGoal,omitempty" json:"seasonGoal,omitempty"`
	GameIdea        *string `bson:"gameIdea,omitempty" json:"gameIdea,omitempty"`
	MatchFormation  *string `bson:"matchFormation,omitempty" json:"matchFormation,omitempty"`
	Pitch           *string `bson:"pitch,omitempty" json:"pitch,omitempty"` // pitch and material notes
}

// MonthPlan is the root of the hierarchy. Period is YYYY-MM, unique per user.
type MonthPlan struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID `bson:"userId" json:"userId"`
	Period             string             `bson:"period" json:"period"`
	TrainingParameters `bson:",inline"`
	LastRunAt          *time.Time `bson:"lastRunAt,omitempty" json:"lastRunAt,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// WeekPlan belongs to a MonthPlan. CalendarWeek is unique within the month.
type WeekPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	MonthPlanID  primitive.ObjectID `bson:"monthPlanId" json:"monthPlanId"`
	CalendarWeek int                `bson:"calendarWeek" json:"calendarWeek"`
	WeekStart    *time.Time         `bson:"weekStart,omitempty" json:"weekStart,omitempty"`
	TrainingGoal string             `bson:"trainingGoal,omitempty" json:"trainingGoal,omitempty"`
	Focus1       string             `bson:"focus1,omitempty" json:"focus1,omitempty"`
	Focus2       string             `bson:"focus2,omitempty" json:"focus2,omitempty"`
	Focus3       string             `bson:"focus3,omitempty" json:"focus3,omitempty"`
	// Denormalized copy of the month's baseline for display.
	TrainingParameters `bson:",inline"`
	LastRunAt          *time.Time `bson:"lastRunAt,omitempty" json:"lastRunAt,omitempty"`
	CreatedAt          time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// WeekPlanView is a WeekPlan joined with its month's period and the number
// of days planned under it.
type WeekPlanView struct {
	WeekPlan    `bson:",inline"`
	MonthPeriod string `bson:"monthPeriod" json:"monthPeriod"`
	DayCount    int    `bson:"dayCount" json:"dayCount"`
}

// DayPlan belongs to a WeekPlan. TrainingDate (YYYY-MM-DD) is unique within
// the week.
type DayPlan struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	WeekPlanID   primitive.ObjectID `bson:"weekPlanId" json:"weekPlanId"`
	TrainingDate string             `bson:"trainingDate" json:"trainingDate"`
	DayNumber    int                `bson:"dayNumber,omitempty" json:"dayNumber,omitempty"`
	TrainingGoal string             `bson:"trainingGoal,omitempty" json:"trainingGoal,omitempty"`
	Focus1       string             `bson:"focus1,omitempty" json:"focus1,omitempty"`
	Focus2       string             `bson:"focus2,omitempty" json:"focus2,omitempty"`
	Focus3       string             `bson:"focus3,omitempty" json:"focus3,omitempty"`
	RosterSize   *int               `bson:"rosterSize,omitempty" json:"rosterSize,omitempty"`
	LastRunAt    *time.Time         `bson:"lastRunAt,omitempty" json:"lastRunAt,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// Filled on read, never stored.
	SectionCount int `bson:"-" json:"sectionCount"`
}

// Complete reports whether the day has any generated content.
func (d DayPlan) Complete() bool { return d.SectionCount > 0 }

// Generated reports whether generation has been confirmed for the plan.
func (m MonthPlan) Generated() bool { return m.LastRunAt != nil }
func (w WeekPlan) Generated() bool { return w.LastRunAt != nil }
func (d DayPlan) Generated() bool { return d.LastRunAt != nil }

// PeriodString returns the plan's period key in canonical form.
func (m MonthPlan) PeriodString() string { return m.Period }
func (w WeekPlan) PeriodString() string { return strconv.Itoa(w.CalendarWeek) }
func (d DayPlan) PeriodString() string { return d.TrainingDate }

// PlanRef addresses a single plan of any tier.
type PlanRef struct {
	Tier Tier
	ID   primitive.ObjectID
}

func (r PlanRef) String() string { return string(r.Tier) + ":" + r.ID.Hex() }
