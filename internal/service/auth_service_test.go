package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Fussballversager/data-pipeline-buddy/internal/domain"
	"github.com/Fussballversager/data-pipeline-buddy/internal/repository/memory"
	"github.com/Fussballversager/data-pipeline-buddy/internal/service"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()
	auth := service.NewAuthService(memory.NewStore().Users(), "test-secret", time.Hour)

	user, err := auth.Register(ctx, "Jana", " Jana@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "jana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := auth.Register(ctx, "Jana", "jana@example.com", "other")
		assert.ErrorIs(t, err, service.ErrUserAlreadyExists)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := auth.Login(ctx, "jana@example.com", "nope")
		assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
		_, _, err = auth.Login(ctx, "nobody@example.com", "hunter22")
		assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	})

	t.Run("login issues a signed token", func(t *testing.T) {
		token, logged, err := auth.Login(ctx, "JANA@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, user.ID, logged.ID)

		claims := &service.Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.True(t, parsed.Valid)
		assert.Equal(t, user.ID.Hex(), claims.UserID)
		assert.Equal(t, service.TokenIssuer, claims.Issuer)
	})

	assert.Panics(t, func() { service.NewAuthService(memory.NewStore().Users(), "", time.Hour) })
}

func TestPreferencesService(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	prefs := service.NewPreferencesService(e.stores, e.plans)

	empty, err := prefs.GetPreferences(ctx, e.userID)
	require.NoError(t, err)
	assert.Nil(t, empty.RosterSize)

	_, err = prefs.SavePreferences(ctx, e.userID, domain.TrainingParameters{RosterSize: intPtr(20)})
	require.NoError(t, err)
	saved, err := prefs.SavePreferences(ctx, e.userID, domain.TrainingParameters{AgeGroup: strPtr("U12")})
	require.NoError(t, err)
	assert.Equal(t, 20, *saved.RosterSize)
	assert.Equal(t, "U12", *saved.AgeGroup)

	user, err := prefs.UpdateProfile(ctx, e.userID, service.ProfileUpdate{Club: strPtr("SV Musterstadt")})
	require.NoError(t, err)
	assert.Equal(t, "SV Musterstadt", user.Club)
	assert.Equal(t, "Coach", user.Name)

	_, err = prefs.UpdateProfile(ctx, e.userID, service.ProfileUpdate{Name: strPtr("")})
	assert.Error(t, err)

	e.hierarchy(t)
	me, err := prefs.Me(ctx, e.userID)
	require.NoError(t, err)
	assert.Equal(t, "SV Musterstadt", me.User.Club)
	assert.Empty(t, me.User.PasswordHash)
	assert.Equal(t, 1, me.Quota.Count)
	assert.Equal(t, 20, *me.Preferences.RosterSize)
}
