package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Section indices within a day. The cool-down section is written last by the
// generator, so its presence marks the day as fully generated.
const (
	SectionWarmUp   = 0
	SectionCoolDown = 8
	MaxSections     = SectionCoolDown + 1
)

// SectionKind groups section indices by their role in a session.
type SectionKind string

const (
	KindWarmUp   SectionKind = "warm-up"
	KindExercise SectionKind = "exercise"
	KindCoolDown SectionKind = "cool-down"
)

// Section is one numbered block of a training day.
// The four note fields hold semicolon-delimited lists.
type Section struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	DayPlanID      primitive.ObjectID `bson:"dayPlanId" json:"dayPlanId"`
	Index          int                `bson:"sectionIndex" json:"sectionIndex"`
	Phase          string             `bson:"phase,omitempty" json:"phase,omitempty"`
	GameForm       string             `bson:"gameForm,omitempty" json:"gameForm,omitempty"`
	Duration       *int               `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Organisation   string             `bson:"organisation,omitempty" json:"organisation,omitempty"`
	Procedure      string             `bson:"procedure,omitempty" json:"procedure,omitempty"`
	CoachingPoints string             `bson:"coachingPoints,omitempty" json:"coachingPoints,omitempty"`
	Variants       string             `bson:"variants,omitempty" json:"variants,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ValidSectionIndex reports whether i lies in [0, 8].
func ValidSectionIndex(i int) bool {
	return i >= SectionWarmUp && i <= SectionCoolDown
}

// KindOf returns the role of a section index.
func KindOf(index int) SectionKind {
	switch index {
	case SectionWarmUp:
		return KindWarmUp
	case SectionCoolDown:
		return KindCoolDown
	}
	return KindExercise
}

// CarriesSketch reports whether sections at this index get a tactical sketch.
// Warm-up and cool-down never do.
func CarriesSketch(index int) bool {
	return KindOf(index) == KindExercise
}

// SplitItems splits a semicolon-delimited list, dropping empty entries.
func SplitItems(raw string) []string {
	parts := strings.Split(raw, ";")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// MediaStatusOK marks a sketch that rendered successfully.
const MediaStatusOK = "ok"

// SectionMedia references a rendered sketch in object storage.
// The newest row per section wins.
type SectionMedia struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SectionID       primitive.ObjectID `bson:"sectionId" json:"sectionId"`
	ObjectKey       string             `bson:"objectKey" json:"-"`
	TemplateVersion string             `bson:"templateVersion,omitempty" json:"templateVersion,omitempty"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
