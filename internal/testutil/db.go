// Package testutil provides shared test doubles and fixtures.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// TestConfig returns a configuration suitable for tests.
func TestConfig() *config.Config {
	return &config.Config{
		Port:                "0",
		Env:                 "test",
		DBDriver:            "sqlite",
		SessionSecret:       "test-secret-that-is-long-enough-for-hs256",
		SessionTTLHours:     24,
		PageCacheTTLSeconds: 20,
		PostsPerPage:        10,
		MediaBackend:        "local",
		MediaURL:            "/media/",
		MaxUploadSizeMB:     5,
		KafkaTopic:          "yatube.activity",
	}
}

// NewTestDB opens a migrated, isolated in-memory sqlite database with foreign keys enforced.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:yatube_test_%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := database.Open(TestConfig(), sqlite.Open(name))
	require.NoError(t, err)

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser persists a user with a cheap password hash.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := &models.User{Username: username, PasswordHash: string(hash)}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateGroup persists a group.
func CreateGroup(t *testing.T, db *gorm.DB, title, slug string) *models.Group {
	t.Helper()
	group := &models.Group{Title: title, Slug: slug, Description: "Тестовое описание"}
	require.NoError(t, db.Create(group).Error)
	return group
}

// CreatePost persists a post by author, optionally in group.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	post := &models.Post{Text: text, AuthorID: &author.ID}
	if group != nil {
		post.GroupID = &group.ID
	}
	require.NoError(t, db.Create(post).Error)
	return post
}
