package repository_test

import (
	"context"
	"regexp"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_GetOrCreateIsIdempotent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewFollowRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	reader := testutil.CreateUser(t, db, "reader")

	first, created, err := repo.GetOrCreate(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.GetOrCreate(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	followers, err := repo.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), followers)

	following, err := repo.CountFollowing(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), following)

	require.NoError(t, repo.Delete(ctx, reader.ID, author.ID))
	exists, err := repo.Exists(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting a missing edge is not an error
	assert.NoError(t, repo.Delete(ctx, reader.ID, author.ID))
}

func TestCommentRepository_ListByAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	reader := testutil.CreateUser(t, db, "reader")
	post := testutil.CreatePost(t, db, author, nil, "Тестовый пост")

	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "От автора"}))
	require.NoError(t, repo.Create(ctx, &models.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "От читателя"}))

	byAuthor, err := repo.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "От автора", byAuthor[0].Text)
	require.NotNil(t, byAuthor[0].Author)
	assert.Equal(t, "auth", byAuthor[0].Author.Username)
}

func TestCommentRepository_CreateSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewCommentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "comments"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	comment := &models.Comment{PostID: 1, AuthorID: 2, Text: "Nice post!"}
	require.NoError(t, repo.Create(context.Background(), comment))
	assert.Equal(t, uint(1), comment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "leo", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByUsername(ctx, "leo")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "missing")
	assert.True(t, models.IsNotFound(err))

	err = repo.Create(ctx, &models.User{Username: "leo", PasswordHash: "hash"})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestGroupRepository(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewGroupRepository(db)
	ctx := context.Background()

	group := &models.Group{Title: "Тестовая группа", Slug: "test-slug", Description: "Описание"}
	require.NoError(t, repo.Create(ctx, group))

	got, err := repo.GetBySlug(ctx, "test-slug")
	require.NoError(t, err)
	assert.Equal(t, "Тестовая группа", got.String())

	exists, err := repo.SlugExists(ctx, "test-slug")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetBySlug(ctx, "missing")
	assert.True(t, models.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, group.ID))
	groups, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}
