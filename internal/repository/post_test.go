package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func TestPostRepository_ListPaginatesNewestFirst(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, db, author, nil, fmt.Sprintf("Тестовый пост %d", i))
	}

	total, err := repo.Count(ctx, repository.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(13), total)

	first, err := repo.List(ctx, repository.PostFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, first, 10)
	assert.Equal(t, "Тестовый пост 12", first[0].Text)
	require.NotNil(t, first[0].Author)
	assert.Equal(t, "auth", first[0].Author.Username)

	second, err := repo.List(ctx, repository.PostFilter{}, 10, 10)
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, "Тестовый пост 0", second[2].Text)
}

func TestPostRepository_Filters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	other := testutil.CreateUser(t, db, "other")
	reader := testutil.CreateUser(t, db, "reader")
	group := testutil.CreateGroup(t, db, "Тестовая группа", "test-slug")

	inGroup := testutil.CreatePost(t, db, author, group, "Пост в группе")
	testutil.CreatePost(t, db, other, nil, "Пост без группы")
	require.NoError(t, db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	byGroup, err := repo.List(ctx, repository.PostFilter{GroupID: &group.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byGroup, 1)
	assert.Equal(t, inGroup.ID, byGroup[0].ID)
	require.NotNil(t, byGroup[0].Group)
	assert.Equal(t, "test-slug", byGroup[0].Group.Slug)

	byAuthor, err := repo.List(ctx, repository.PostFilter{AuthorID: &other.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Пост без группы", byAuthor[0].Text)

	followed, err := repo.List(ctx, repository.PostFilter{FollowerID: &reader.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, followed, 1)
	assert.Equal(t, inGroup.ID, followed[0].ID)

	nobody, err := repo.Count(ctx, repository.PostFilter{FollowerID: &author.ID})
	require.NoError(t, err)
	assert.Zero(t, nobody)
}

func TestPostRepository_GetByAuthor(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	other := testutil.CreateUser(t, db, "other")
	post := testutil.CreatePost(t, db, author, nil, "Тестовый пост")

	got, err := repo.GetByAuthor(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Text, got.Text)

	_, err = repo.GetByAuthor(ctx, other.ID, post.ID)
	assert.True(t, models.IsNotFound(err))

	_, err = repo.GetByID(ctx, 9999)
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	group := testutil.CreateGroup(t, db, "Тестовая группа", "test-slug")
	post := testutil.CreatePost(t, db, author, group, "Старый текст")

	post.Text = "Новый текст"
	post.GroupID = nil
	post.Image = "posts/new.gif"
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Новый текст", got.Text)
	assert.Nil(t, got.GroupID)
	assert.Equal(t, "posts/new.gif", got.Image)
	assert.True(t, got.IsAuthoredBy(author.ID))
}

func TestPostRepository_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	testutil.CreatePost(t, db, author, nil, "Hello World")
	testutil.CreatePost(t, db, author, nil, "another hello")
	testutil.CreatePost(t, db, author, nil, "100% sure")
	testutil.CreatePost(t, db, author, nil, "unrelated")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"case insensitive", "HELLO", 2},
		{"percent is literal", "%", 1},
		{"underscore is literal", "_", 0},
		{"empty query", "", 0},
		{"blank query", "   ", 0},
		{"no match", "absent", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, err := repo.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, posts, tt.want)
		})
	}
}

func TestPostRepository_SearchUsesILikeOnPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewPostRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE posts.text ILIKE $1 ESCAPE '\' ORDER BY posts.created_at DESC,posts.id DESC`)).
		WithArgs("%te\\_st%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text"}))

	posts, err := repo.Search(context.Background(), "te_st")
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPostRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "auth")
	reader := testutil.CreateUser(t, db, "reader")
	post := testutil.CreatePost(t, db, author, nil, "Тестовый пост")

	liked, err := repo.ToggleLike(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := repo.GetByAuthor(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesCount)

	listed, err := repo.List(ctx, repository.PostFilter{AuthorID: &author.ID}, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, int64(1), listed[0].LikesCount)

	isLiked, err := repo.IsLiked(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	liked, err = repo.ToggleLike(ctx, reader.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	got, err = repo.GetByAuthor(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Zero(t, got.LikesCount)
}
