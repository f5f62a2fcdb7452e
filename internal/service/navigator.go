package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"
	"github.com/Fussballversager/data-pipeline-buddy/internal/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Views ---

// MonthSummary is a month with the number of weeks planned under it.
type MonthSummary struct {
	domain.MonthPlan
	WeekCount int `json:"weekCount"`
}

// CurrentPlans points at the plans covering today, when they exist.
type CurrentPlans struct {
	MonthID *primitive.ObjectID `json:"monthId,omitempty"`
	WeekID  *primitive.ObjectID `json:"weekId,omitempty"`
	DayID   *primitive.ObjectID `json:"dayId,omitempty"`
}

// Overview is the entry screen: every month, the quota and what may be
// created next.
type Overview struct {
	Months        []MonthSummary `json:"months"`
	Quota         QuotaStatus    `json:"quota"`
	CanCreateWeek bool           `json:"canCreateWeek"`
	CanCreateDay  bool           `json:"canCreateDay"`
	Current       CurrentPlans   `json:"current"`
}

// WeekNode is a week with its days.
type WeekNode struct {
	domain.WeekPlanView
	Days []domain.DayPlan `json:"days"`
}

// MonthTree is a month with all weeks and days beneath it.
type MonthTree struct {
	Month domain.MonthPlan `json:"month"`
	Weeks []WeekNode       `json:"weeks"`
}

// WeekDays is a week with its days.
type WeekDays struct {
	Week domain.WeekPlanView `json:"week"`
	Days []domain.DayPlan    `json:"days"`
}

// SectionView is a section as shown in the day detail.
type SectionView struct {
	domain.Section
	Kind               domain.SectionKind `json:"kind"`
	Title              string             `json:"title"`
	OrganisationItems  []string           `json:"organisationItems"`
	ProcedureItems     []string           `json:"procedureItems"`
	CoachingPointItems []string           `json:"coachingPointItems"`
	VariantItems       []string           `json:"variantItems"`
	SketchURL          *string            `json:"sketchUrl,omitempty"`
}

// DayDetail is a day with its ordered sections.
type DayDetail struct {
	Day      domain.DayPlan `json:"day"`
	Sections []SectionView  `json:"sections"`
}

// --- Service Interface ---

// Navigator composes the read views over a user's plan hierarchy.
type Navigator interface {
	Overview(ctx context.Context, userID primitive.ObjectID) (*Overview, error)
	MonthTree(ctx context.Context, userID, monthID primitive.ObjectID) (*MonthTree, error)
	WeekDays(ctx context.Context, userID, weekID primitive.ObjectID) (*WeekDays, error)
	DayDetail(ctx context.Context, userID, dayID primitive.ObjectID) (*DayDetail, error)
	// Dashboard lists the days that already have generated content.
	Dashboard(ctx context.Context, userID primitive.ObjectID) ([]domain.DayPlan, error)
}

// --- Service Implementation ---

type navigator struct {
	plans       PlanService
	stores      repository.Stores
	fileStorage storage.FileStorage
	now         func() time.Time
}

// NewNavigator creates a new Navigator. fileStorage may be nil, in which
// case sketches are listed without URLs.
func NewNavigator(plans PlanService, stores repository.Stores, fileStorage storage.FileStorage) Navigator {
	return &navigator{
		plans:       plans,
		stores:      stores,
		fileStorage: fileStorage,
		now:         time.Now,
	}
}

func (n *navigator) Overview(ctx context.Context, userID primitive.ObjectID) (*Overview, error) {
	ws, err := n.plans.Workspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	quota, err := n.plans.Quota(ctx, ws)
	if err != nil {
		return nil, err
	}

	months := make([]MonthSummary, 0, len(ws.Months))
	for _, m := range ws.Months {
		months = append(months, MonthSummary{MonthPlan: m, WeekCount: len(ws.WeeksOf(m.ID))})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Period > months[j].Period })

	return &Overview{
		Months:        months,
		Quota:         quota,
		CanCreateWeek: ws.CanCreateWeek(),
		CanCreateDay:  ws.CanCreateDay(),
		Current:       currentPlans(ws, n.now()),
	}, nil
}

func currentPlans(ws *Workspace, today time.Time) CurrentPlans {
	var cur CurrentPlans
	period := today.Format(domain.MonthLayout)
	for _, m := range ws.Months {
		if m.Period != period {
			continue
		}
		id := m.ID
		cur.MonthID = &id

		week := domain.ISOWeekOf(today)
		for _, w := range ws.WeeksOf(m.ID) {
			if w.CalendarWeek != week {
				continue
			}
			wid := w.ID
			cur.WeekID = &wid

			date := today.Format(domain.DateLayout)
			for _, d := range ws.DaysOf(w.ID) {
				if d.TrainingDate == date {
					did := d.ID
					cur.DayID = &did
				}
			}
		}
	}
	return cur
}

func (n *navigator) MonthTree(ctx context.Context, userID, monthID primitive.ObjectID) (*MonthTree, error) {
	month, err := n.plans.GetMonth(ctx, userID, monthID)
	if err != nil {
		return nil, err
	}
	ws, err := n.plans.Workspace(ctx, userID)
	if err != nil {
		return nil, err
	}

	tree := &MonthTree{Month: *month, Weeks: []WeekNode{}}
	for _, w := range ws.WeeksOf(month.ID) {
		tree.Weeks = append(tree.Weeks, WeekNode{WeekPlanView: w, Days: ws.DaysOf(w.ID)})
	}
	return tree, nil
}

func (n *navigator) WeekDays(ctx context.Context, userID, weekID primitive.ObjectID) (*WeekDays, error) {
	ws, err := n.plans.Workspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, w := range ws.Weeks {
		if w.ID == weekID {
			return &WeekDays{Week: w, Days: ws.DaysOf(w.ID)}, nil
		}
	}
	return nil, ErrPlanNotFound
}

func (n *navigator) DayDetail(ctx context.Context, userID, dayID primitive.ObjectID) (*DayDetail, error) {
	day, err := n.plans.GetDay(ctx, userID, dayID)
	if err != nil {
		return nil, err
	}
	sections, err := n.stores.Sections.ListByDay(ctx, day.ID)
	if err != nil {
		return nil, err
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Index < sections[j].Index })

	var sketchIDs []primitive.ObjectID
	for _, sec := range sections {
		if domain.CarriesSketch(sec.Index) {
			sketchIDs = append(sketchIDs, sec.ID)
		}
	}
	media := map[primitive.ObjectID]domain.SectionMedia{}
	if n.fileStorage != nil && len(sketchIDs) > 0 {
		if media, err = n.stores.SectionMedia.LatestOK(ctx, sketchIDs); err != nil {
			return nil, err
		}
	}

	detail := &DayDetail{Day: *day, Sections: make([]SectionView, 0, len(sections))}
	for _, sec := range sections {
		view := SectionView{
			Section:            sec,
			Kind:               domain.KindOf(sec.Index),
			Title:              sectionTitle(sec),
			OrganisationItems:  domain.SplitItems(sec.Organisation),
			ProcedureItems:     domain.SplitItems(sec.Procedure),
			CoachingPointItems: domain.SplitItems(sec.CoachingPoints),
			VariantItems:       domain.SplitItems(sec.Variants),
		}
		if m, ok := media[sec.ID]; ok {
			url, err := n.fileStorage.GeneratePresignedDownloadURL(ctx, m.ObjectKey, 0)
			if err != nil {
				log.Printf("WARN: Failed to generate sketch URL for section %s: %v", sec.ID.Hex(), err)
			} else {
				view.SketchURL = &url
			}
		}
		detail.Sections = append(detail.Sections, view)
	}
	return detail, nil
}

func sectionTitle(sec domain.Section) string {
	if sec.Phase != "" {
		return sec.Phase
	}
	switch domain.KindOf(sec.Index) {
	case domain.KindWarmUp:
		return "Aufwärmen"
	case domain.KindCoolDown:
		return "Abschluss"
	}
	return fmt.Sprintf("Spielform %d", sec.Index)
}

func (n *navigator) Dashboard(ctx context.Context, userID primitive.ObjectID) ([]domain.DayPlan, error) {
	days, err := n.stores.Days.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := fillSectionCounts(ctx, n.stores.Sections, days); err != nil {
		return nil, err
	}

	done := []domain.DayPlan{}
	for _, d := range days {
		if d.Complete() {
			done = append(done, d)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].TrainingDate > done[j].TrainingDate })
	return done, nil
}
