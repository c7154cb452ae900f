package services_test

import (
	"testing"

	"pulsefeed/internal/models"
	"pulsefeed/internal/services"
	"pulsefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAuthService_LoginIssuesFreshToken(t *testing.T) {
	g := testutil.SetupDB(t)
	hash := testutil.HashParams()

	_, err := services.NewUserService(g, hash).RegisterNew("Eva", "Green", "eva", "secret")
	require.NoError(t, err)

	auth := services.NewAuthService(g, hash)

	first, err := auth.Login("eva", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, first.Role)
	assert.NotEmpty(t, first.Token)

	second, err := auth.Login("eva", "secret")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
	assert.Equal(t, first.UserID, second.UserID)

	// Last login wins: the previous token no longer authorizes.
	info, err := auth.Authorize(first.Token)
	require.NoError(t, err)
	assert.False(t, info.IsAuthorized)
	assert.Equal(t, models.RoleGuest, info.Role)

	info, err = auth.Authorize(second.Token)
	require.NoError(t, err)
	assert.True(t, info.IsAuthorized)
	assert.Equal(t, second.UserID, info.UserID)
	assert.Equal(t, models.RoleUser, info.Role)
}

func TestAuthService_LoginBadCredentials(t *testing.T) {
	g := testutil.SetupDB(t)
	hash := testutil.HashParams()

	_, err := services.NewUserService(g, hash).RegisterNew("Eva", "Green", "eva", "secret")
	require.NoError(t, err)

	auth := services.NewAuthService(g, hash)

	tests := []struct {
		name     string
		login    string
		password string
	}{
		{name: "wrong password for existing login", login: "eva", password: "wrong"},
		{name: "unknown login", login: "nobody", password: "secret"},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := auth.Login(tt.login, tt.password)
			require.ErrorIs(t, err, services.ErrBadLoginCredentials)
			messages = append(messages, err.Error())
		})
	}

	// No login-enumeration signal: identical error either way.
	require.Len(t, messages, 2)
	assert.Equal(t, messages[0], messages[1])
}

func TestAuthService_Logout(t *testing.T) {
	g := testutil.SetupDB(t)
	hash := testutil.HashParams()

	_, err := services.NewUserService(g, hash).RegisterNew("Eva", "Green", "eva", "secret")
	require.NoError(t, err)

	auth := services.NewAuthService(g, hash)
	result, err := auth.Login("eva", "secret")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(result.Token))

	info, err := auth.Authorize(result.Token)
	require.NoError(t, err)
	assert.False(t, info.IsAuthorized)

	assert.ErrorIs(t, auth.Logout(result.Token), services.ErrUnknownToken)
	assert.ErrorIs(t, auth.Logout("never-issued"), services.ErrUnknownToken)
}

func TestUserService_RegisterDuplicateLogin(t *testing.T) {
	g := testutil.SetupDB(t)
	hash := testutil.HashParams()
	users := services.NewUserService(g, hash)

	_, err := users.RegisterNew("Eva", "Green", "eva", "secret")
	require.NoError(t, err)

	_, err = users.RegisterNew("Other", "Person", "eva", "different")
	assert.ErrorIs(t, err, services.ErrKnownLogin)
}

func TestAuthService_CreateCredentialsDuplicateRace(t *testing.T) {
	g := testutil.SetupDB(t)
	hash := testutil.HashParams()

	alice := testutil.CreateUser(t, g, models.RoleUser)
	bob := testutil.CreateUser(t, g, models.RoleUser)

	// Sneaks a conflicting credential in after the existence check passed
	// but before the insert runs, so the unique index fires instead of the
	// friendly check.
	var raced bool
	err := g.Callback().Create().Before("gorm:create").Register("race_credential", func(db *gorm.DB) {
		if raced {
			return
		}
		if _, ok := db.Statement.Dest.(*models.Credential); !ok {
			return
		}
		raced = true

		rival := models.Credential{UserID: alice.ID, Login: "eva", PasswordHash: hash.Hash("other")}
		require.NoError(t, g.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, g.Callback().Create().Remove("race_credential"))
	})

	err = services.NewAuthService(g, hash).CreateCredentials(bob.ID, "eva", "secret")
	assert.ErrorIs(t, err, services.ErrKnownLogin)
	assert.True(t, raced)
}

func TestUserService_RegisterAssignsUserRole(t *testing.T) {
	g := testutil.SetupDB(t)

	user, err := services.NewUserService(g, testutil.HashParams()).
		RegisterNew("Eva", "Green", "eva", "secret")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)

	var stored models.User
	require.NoError(t, g.First(&stored, user.ID).Error)
	assert.Equal(t, models.RoleUser, stored.Role)
}
