// Package generation builds requests for the external plan generator, sends
// them, and watches the store until the generated rows show up.
package generation

import (
	"log"
	"strconv"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fallbacks used when neither override, plan nor baseline carries a value.
const (
	DefaultRosterSize      = 18
	DefaultGoalkeepers     = 0
	DefaultSessionsPerWeek = 3
	DefaultSessionDuration = 90
	DefaultMonthCount      = 1
	DefaultPlaceholder     = "–"
)

// Payload is the JSON body posted to the generator.
type Payload map[string]any

// Overrides are per-request values that beat everything stored.
type Overrides struct {
	AgeGroup   *string `json:"ageGroup,omitempty"`
	Philosophy *string `json:"philosophy,omitempty"`
	RosterSize *int    `json:"rosterSize,omitempty"`
}

// ResolvedPlanFields is the fully resolved parameter set of one plan.
type ResolvedPlanFields struct {
	RosterSize      int
	Goalkeepers     int
	SessionsPerWeek int
	SessionDuration int
	MonthCount      int
	Philosophy      string
	AgeGroup        string
	Focus           string
	Weaknesses      string
	Notes           string
	SeasonPhase     string
	SeasonGoal      string
	GameIdea        string
	MatchFormation  string
	Pitch           string
}

// Layer returns lower with every field that upper sets replaced. Use it to
// stack parent plan parameters under child plan parameters.
func Layer(lower, upper domain.TrainingParameters) domain.TrainingParameters {
	out := lower
	pickInt(&out.RosterSize, upper.RosterSize)
	pickInt(&out.Goalkeepers, upper.Goalkeepers)
	pickInt(&out.SessionsPerWeek, upper.SessionsPerWeek)
	pickInt(&out.SessionDuration, upper.SessionDuration)
	pickInt(&out.MonthCount, upper.MonthCount)
	pickString(&out.Philosophy, upper.Philosophy)
	pickString(&out.AgeGroup, upper.AgeGroup)
	pickString(&out.Focus, upper.Focus)
	pickString(&out.Weaknesses, upper.Weaknesses)
	pickString(&out.Notes, upper.Notes)
	pickString(&out.SeasonPhase, upper.SeasonPhase)
	pickString(&out.SeasonGoal, upper.SeasonGoal)
	pickString(&out.GameIdea, upper.GameIdea)
	pickString(&out.MatchFormation, upper.MatchFormation)
	pickString(&out.Pitch, upper.Pitch)
	return out
}

// Resolve merges the sources with precedence
// override > plan > baseline > default.
func Resolve(baseline, plan domain.TrainingParameters, o Overrides) ResolvedPlanFields {
	p := Layer(baseline, plan)
	pickInt(&p.RosterSize, o.RosterSize)
	pickString(&p.AgeGroup, o.AgeGroup)
	pickString(&p.Philosophy, o.Philosophy)

	return ResolvedPlanFields{
		RosterSize:      intOr(p.RosterSize, DefaultRosterSize),
		Goalkeepers:     intOr(p.Goalkeepers, DefaultGoalkeepers),
		SessionsPerWeek: intOr(p.SessionsPerWeek, DefaultSessionsPerWeek),
		SessionDuration: intOr(p.SessionDuration, DefaultSessionDuration),
		MonthCount:      intOr(p.MonthCount, DefaultMonthCount),
		Philosophy:      stringOr(p.Philosophy, ""),
		AgeGroup:        stringOr(p.AgeGroup, ""),
		Focus:           stringOr(p.Focus, DefaultPlaceholder),
		Weaknesses:      stringOr(p.Weaknesses, DefaultPlaceholder),
		Notes:           stringOr(p.Notes, ""),
		SeasonPhase:     stringOr(p.SeasonPhase, ""),
		SeasonGoal:      stringOr(p.SeasonGoal, ""),
		GameIdea:        stringOr(p.GameIdea, ""),
		MatchFormation:  stringOr(p.MatchFormation, ""),
		Pitch:           stringOr(p.Pitch, ""),
	}
}

// Target identifies the plan a payload is built for. Month is always set;
// Week is set for week and day targets; Day only for day targets.
type Target struct {
	Tier   domain.Tier
	UserID primitive.ObjectID
	Month  *domain.MonthPlan
	Week   *domain.WeekPlan
	Day    *domain.DayPlan
}

// Project builds the generator request body for the target's tier.
// An unrecognized tier yields the flattened fields alone and logs a warning.
func Project(fields ResolvedPlanFields, t Target) Payload {
	p := flatten(fields, t.UserID)

	if !t.Tier.Valid() {
		log.Printf("WARN: Unknown plan tier %q, sending resolved fields unchanged", t.Tier)
		return p
	}

	p["plan_type"] = t.Tier.Label()
	if t.Month != nil {
		p["month_plan_id"] = t.Month.ID.Hex()
		p["month_year"] = t.Month.Period
		p["period"] = t.Month.Period
	}
	if t.Tier == domain.TierMonth {
		return p
	}

	if t.Week != nil {
		p["week_plan_id"] = t.Week.ID.Hex()
		p["month_plan_id"] = t.Week.MonthPlanID.Hex()
		p["calendar_week"] = t.Week.CalendarWeek
		p["period"] = strconv.Itoa(t.Week.CalendarWeek)
		p["trainingsziel"] = t.Week.TrainingGoal
		p["schwerpunkt1"] = t.Week.Focus1
		p["schwerpunkt2"] = t.Week.Focus2
		p["schwerpunkt3"] = t.Week.Focus3
	}
	if t.Tier == domain.TierWeek {
		return p
	}

	if t.Day != nil {
		p["day_plan_id"] = t.Day.ID.Hex()
		p["week_plan_id"] = t.Day.WeekPlanID.Hex()
		p["training_date"] = t.Day.TrainingDate
		p["tag_nr"] = t.Day.DayNumber
		p["period"] = t.Day.TrainingDate
		p["trainingsziel"] = t.Day.TrainingGoal
		p["schwerpunkt1"] = t.Day.Focus1
		p["schwerpunkt2"] = t.Day.Focus2
		p["schwerpunkt3"] = t.Day.Focus3
	}
	return p
}

// flatten writes the resolved fields with the generator's key names.
func flatten(f ResolvedPlanFields, userID primitive.ObjectID) Payload {
	return Payload{
		"user_id":              userID.Hex(),
		"altersstufe":          f.AgeGroup,
		"trainingsphilosophie": f.Philosophy,
		"spielerkader":         f.RosterSize,
		"torhueter":            f.Goalkeepers,
		"tage_pro_woche":       f.SessionsPerWeek,
		"einheit_dauer":        f.SessionDuration,
		"anzahl_monate":        f.MonthCount,
		"fokus":                f.Focus,
		"schwachstellen":       f.Weaknesses,
		"notizen":              f.Notes,
		"saisonphase":          f.SeasonPhase,
		"saisonziel":           f.SeasonGoal,
		"spielidee":            f.GameIdea,
		"match_formation":      f.MatchFormation,
		"platz":                f.Pitch,
	}
}

func pickInt(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

func pickString(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
