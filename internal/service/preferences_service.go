package service

import (
	"context"
	"errors"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/generation"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var ErrUserNotFound = errors.New("user not found")

// ProfileUpdate changes the coach's profile. Nil leaves a field as is.
type ProfileUpdate struct {
	Name        *string
	DisplayName *string
	Club        *string
	Team        *string
	AgeGroup    *string
}

// Me is the signed-in coach with their baseline and quota.
type Me struct {
	User        domain.User                `json:"user"`
	Preferences domain.TrainingPreferences `json:"preferences"`
	Quota       QuotaStatus                `json:"quota"`
}

// --- Service Interface ---

// PreferencesService manages the coach's profile and baseline parameters.
type PreferencesService interface {
	Me(ctx context.Context, userID primitive.ObjectID) (*Me, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileUpdate) (*domain.User, error)
	GetPreferences(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPreferences, error)
	// SavePreferences merges params into the stored baseline.
	SavePreferences(ctx context.Context, userID primitive.ObjectID, params domain.TrainingParameters) (*domain.TrainingPreferences, error)
}

// --- Service Implementation ---

type preferencesService struct {
	users repository.UserRepository
	prefs repository.PreferencesRepository
	plans PlanService
}

// NewPreferencesService creates a new instance of preferencesService.
func NewPreferencesService(stores repository.Stores, plans PlanService) PreferencesService {
	return &preferencesService{users: stores.Users, prefs: stores.Preferences, plans: plans}
}

func (s *preferencesService) Me(ctx context.Context, userID primitive.ObjectID) (*Me, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	ws, err := s.plans.Workspace(ctx, userID)
	if err != nil {
		return nil, err
	}
	quota, err := s.plans.Quota(ctx, ws)
	if err != nil {
		return nil, err
	}
	return &Me{User: *user, Preferences: *prefs, Quota: quota}, nil
}

func (s *preferencesService) user(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *preferencesService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileUpdate) (*domain.User, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, pair := range []struct{ dst, src *string }{
		{&user.Name, in.Name},
		{&user.DisplayName, in.DisplayName},
		{&user.Club, in.Club},
		{&user.Team, in.Team},
		{&user.AgeGroup, in.AgeGroup},
	} {
		if pair.src != nil {
			*pair.dst = *pair.src
		}
	}
	if user.Name == "" {
		return nil, errors.New("name cannot be empty")
	}
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *preferencesService) GetPreferences(ctx context.Context, userID primitive.ObjectID) (*domain.TrainingPreferences, error) {
	prefs, err := s.prefs.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.TrainingPreferences{UserID: userID}, nil
		}
		return nil, err
	}
	return prefs, nil
}

func (s *preferencesService) SavePreferences(ctx context.Context, userID primitive.ObjectID, params domain.TrainingParameters) (*domain.TrainingPreferences, error) {
	prefs, err := s.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	prefs.TrainingParameters = generation.Layer(prefs.TrainingParameters, params)
	if err := s.prefs.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}
