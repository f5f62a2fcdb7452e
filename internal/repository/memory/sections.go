package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Sections ---

type sectionRepo struct{ s *Store }

func (r sectionRepo) Upsert(_ context.Context, section *domain.Section) error {
	if !domain.ValidSectionIndex(section.Index) {
		return fmt.Errorf("section index %d out of range", section.Index)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	for id, existing := range r.s.sections {
		if existing.DayPlanID == section.DayPlanID && existing.Index == section.Index {
			section.ID = id
			section.CreatedAt = existing.CreatedAt
			section.UpdatedAt = now
			r.s.sections[id] = *section
			return nil
		}
	}
	section.ID = primitive.NewObjectID()
	section.CreatedAt = now
	section.UpdatedAt = now
	r.s.sections[section.ID] = *section
	return nil
}

func (r sectionRepo) ListByDay(_ context.Context, dayPlanID primitive.ObjectID) ([]domain.Section, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sections := []domain.Section{}
	for _, sec := range r.s.sections {
		if sec.DayPlanID == dayPlanID {
			sections = append(sections, sec)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Index < sections[j].Index })
	return sections, nil
}

func (r sectionRepo) CountByDays(_ context.Context, dayPlanIDs []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[primitive.ObjectID]bool, len(dayPlanIDs))
	for _, id := range dayPlanIDs {
		wanted[id] = true
	}
	counts := make(map[primitive.ObjectID]int)
	for _, sec := range r.s.sections {
		if wanted[sec.DayPlanID] {
			counts[sec.DayPlanID]++
		}
	}
	return counts, nil
}

func (r sectionRepo) ExistsAtIndex(_ context.Context, dayPlanID primitive.ObjectID, index int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sec := range r.s.sections {
		if sec.DayPlanID == dayPlanID && sec.Index == index {
			return true, nil
		}
	}
	return false, nil
}

// --- Section media ---

type mediaRepo struct{ s *Store }

func (r mediaRepo) Create(_ context.Context, media *domain.SectionMedia) (primitive.ObjectID, error) {
	if media.SectionID == primitive.NilObjectID || media.ObjectKey == "" {
		return primitive.NilObjectID, errors.New("section media requires sectionId and objectKey")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	media.ID = primitive.NewObjectID()
	media.CreatedAt = r.s.now()
	r.s.media = append(r.s.media, *media)
	return media.ID, nil
}

func (r mediaRepo) LatestOK(_ context.Context, sectionIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.SectionMedia, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[primitive.ObjectID]bool, len(sectionIDs))
	for _, id := range sectionIDs {
		wanted[id] = true
	}
	latest := make(map[primitive.ObjectID]domain.SectionMedia)
	// Later entries overwrite earlier ones.
	for _, m := range r.s.media {
		if wanted[m.SectionID] && m.Status == domain.MediaStatusOK {
			latest[m.SectionID] = m
		}
	}
	return latest, nil
}

// --- Users and preferences ---

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" {
		return primitive.NilObjectID, errors.New("user email and password hash are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return primitive.NilObjectID, repository.ErrDuplicateKey
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r userRepo) UpdateProfile(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Name = user.Name
	u.DisplayName = user.DisplayName
	u.Club = user.Club
	u.Team = user.Team
	u.AgeGroup = user.AgeGroup
	u.MonthPlanQuota = user.MonthPlanQuota
	u.UpdatedAt = r.s.now()
	r.s.users[u.ID] = u
	return nil
}

type prefsRepo struct{ s *Store }

func (r prefsRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.TrainingPreferences, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.prefs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r prefsRepo) Upsert(_ context.Context, prefs *domain.TrainingPreferences) error {
	if prefs.UserID == primitive.NilObjectID {
		return errors.New("preferences require userId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	if existing, ok := r.s.prefs[prefs.UserID]; ok {
		prefs.ID = existing.ID
		prefs.CreatedAt = existing.CreatedAt
	} else {
		prefs.ID = primitive.NewObjectID()
		prefs.CreatedAt = now
	}
	prefs.UpdatedAt = now
	r.s.prefs[prefs.UserID] = *prefs
	return nil
}
