// Package testutil provides shared helpers for the test suite. Tests run
// against a throwaway SQLite database so no postgres server is needed.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"pulsefeed/internal/db"
	"pulsefeed/internal/models"
	"pulsefeed/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupDB opens a temporary database with the full schema migrated.
func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(g))
	return g
}

// HashParams returns cheap hashing parameters for tests.
func HashParams() utils.HashParams {
	return utils.HashParams{Salt: []byte("test_salt"), Iterations: 16}
}

func CreateUser(t *testing.T, g *gorm.DB, role models.Role) models.User {
	t.Helper()

	user := models.User{FirstName: "Test", LastName: "User", Role: role}
	require.NoError(t, g.Create(&user).Error)
	return user
}

func CreatePost(t *testing.T, g *gorm.DB, text string, createdAt time.Time) models.Post {
	t.Helper()

	post := models.Post{Text: text, ImageURL: "/storage/test.jpeg", CreatedAt: createdAt}
	require.NoError(t, g.Create(&post).Error)
	return post
}

// CreateToken stores a token row directly, bypassing login.
func CreateToken(t *testing.T, g *gorm.DB, userID uint, token string) {
	t.Helper()

	require.NoError(t, g.Create(&models.Token{UserID: userID, Token: token}).Error)
}
