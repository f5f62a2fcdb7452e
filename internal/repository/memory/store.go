// Package memory is an in-process implementation of the repository
// interfaces. It backs the "memory" database driver and the service tests,
// and enforces the same uniqueness and cascade rules as the MongoDB store.
package memory

import (
	"sync"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind a single lock.
type Store struct {
	mu sync.RWMutex

	users    map[primitive.ObjectID]domain.User
	prefs    map[primitive.ObjectID]domain.TrainingPreferences // by user id
	months   map[primitive.ObjectID]domain.MonthPlan
	weeks    map[primitive.ObjectID]domain.WeekPlan
	days     map[primitive.ObjectID]domain.DayPlan
	sections map[primitive.ObjectID]domain.Section
	media    []domain.SectionMedia // insertion order

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:    make(map[primitive.ObjectID]domain.User),
		prefs:    make(map[primitive.ObjectID]domain.TrainingPreferences),
		months:   make(map[primitive.ObjectID]domain.MonthPlan),
		weeks:    make(map[primitive.ObjectID]domain.WeekPlan),
		days:     make(map[primitive.ObjectID]domain.DayPlan),
		sections: make(map[primitive.ObjectID]domain.Section),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Users() repository.UserRepository { return userRepo{s} }
func (s *Store) Preferences() repository.PreferencesRepository { return prefsRepo{s} }
func (s *Store) Months() repository.MonthPlanRepository { return monthRepo{s} }
func (s *Store) Weeks() repository.WeekPlanRepository { return weekRepo{s} }
func (s *Store) Days() repository.DayPlanRepository { return dayRepo{s} }
func (s *Store) Sections() repository.SectionRepository { return sectionRepo{s} }
func (s *Store) SectionMedia() repository.SectionMediaRepository { return mediaRepo{s} }

// The delete helpers below expect s.mu to be held for writing.

func (s *Store) deleteMonthLocked(id primitive.ObjectID) {
	for wid, w := range s.weeks {
		if w.MonthPlanID == id {
			s.deleteWeekLocked(wid)
		}
	}
	delete(s.months, id)
}

func (s *Store) deleteWeekLocked(id primitive.ObjectID) {
	for did, d := range s.days {
		if d.WeekPlanID == id {
			s.deleteDayLocked(did)
		}
	}
	delete(s.weeks, id)
}

func (s *Store) deleteDayLocked(id primitive.ObjectID) {
	for sid, sec := range s.sections {
		if sec.DayPlanID != id {
			continue
		}
		kept := s.media[:0]
		for _, m := range s.media {
			if m.SectionID != sid {
				kept = append(kept, m)
			}
		}
		s.media = kept
		delete(s.sections, sid)
	}
	delete(s.days, id)
}

func advance(current *time.Time, at time.Time) *time.Time {
	at = at.UTC()
	if current != nil && !at.After(*current) {
		return current
	}
	return &at
}

// Bundle returns every repository backed by this store.
func (s *Store) Bundle() repository.Stores {
	return repository.Stores{
		Users:        s.Users(),
		Preferences:  s.Preferences(),
		Months:       s.Months(),
		Weeks:        s.Weeks(),
		Days:         s.Days(),
		Sections:     s.Sections(),
		SectionMedia: s.SectionMedia(),
	}
}
