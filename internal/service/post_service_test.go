package service

import (
	"context"
	"fmt"
	"testing"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPostService(t *testing.T) (*PostService, *gorm.DB, *memoryStore, *recordingPublisher) {
	t.Helper()
	db := testutil.NewTestDB(t)
	store := newMemoryStore()
	pub := &recordingPublisher{}
	svc := NewPostService(repository.NewPostRepository(db), repository.NewGroupRepository(db), store, pub, 10)
	return svc, db, store, pub
}

func TestPostService_FeedPagination(t *testing.T) {
	svc, db, _, _ := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	for i := 0; i < 13; i++ {
		testutil.CreatePost(t, db, author, nil, fmt.Sprintf("Пост номер %d", i))
	}

	tests := []struct {
		name       string
		rawPage    string
		wantNumber int
		wantItems  int
	}{
		{name: "missing page", rawPage: "", wantNumber: 1, wantItems: 10},
		{name: "second page", rawPage: "2", wantNumber: 2, wantItems: 3},
		{name: "not a number", rawPage: "abc", wantNumber: 1, wantItems: 10},
		{name: "past the end", rawPage: "99", wantNumber: 2, wantItems: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Feed(ctx, repository.PostFilter{}, tt.rawPage)
			require.NoError(t, err)
			assert.Equal(t, tt.wantNumber, page.Number)
			assert.Len(t, page.Items, tt.wantItems)
			assert.Equal(t, 2, page.NumPages)
		})
	}
}

func TestPostService_FeedEmpty(t *testing.T) {
	svc, _, _, _ := newPostService(t)
	page, err := svc.Feed(context.Background(), repository.PostFilter{}, "5")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Empty(t, page.Items)
}

func TestPostService_CreatePost(t *testing.T) {
	svc, db, store, pub := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	group := testutil.CreateGroup(t, db, "Котики", "cats")

	post, err := svc.CreatePost(ctx, CreatePostInput{
		AuthorID: author.ID, Text: "  Текст из формы ", GroupID: &group.ID,
		ImageName: "small.gif", ImageData: gifBytes,
	})
	require.NoError(t, err)
	assert.Equal(t, "Текст из формы", post.Text)
	assert.True(t, post.IsAuthoredBy(author.ID))
	require.NotEmpty(t, post.Image)
	assert.True(t, store.has(post.Image))
	assert.Equal(t, "/media/"+post.Image, svc.ImageURL(post.Image))
	assert.Equal(t, []string{events.PostCreated}, pub.types())

	n, err := svc.CountByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestPostService_CreatePostRejects(t *testing.T) {
	svc, db, _, pub := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	missing := uint(999)

	_, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "   "})
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "a", GroupID: &missing})
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "a", ImageName: "x.gif", ImageData: []byte("nope")})
	assertAppErrorCode(t, err, models.CodeValidation)

	assert.Empty(t, pub.types())
}

func TestPostService_UpdatePost(t *testing.T) {
	svc, db, store, _ := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	other := testutil.CreateUser(t, db, "tolstoy")

	post, err := svc.CreatePost(ctx, CreatePostInput{AuthorID: author.ID, Text: "Первый", ImageName: "a.gif", ImageData: gifBytes})
	require.NoError(t, err)
	firstImage := post.Image

	_, err = svc.UpdatePost(ctx, UpdatePostInput{EditorID: other.ID, PostID: post.ID, Text: "Чужая правка"})
	assertAppErrorCode(t, err, models.CodeUnauthorized)

	updated, err := svc.UpdatePost(ctx, UpdatePostInput{EditorID: author.ID, PostID: post.ID, Text: "Исправлено", ImageName: "b.gif", ImageData: gifBytes})
	require.NoError(t, err)
	assert.Equal(t, "Исправлено", updated.Text)
	assert.NotEqual(t, firstImage, updated.Image)
	assert.False(t, store.has(firstImage))
	assert.True(t, store.has(updated.Image))

	cleared, err := svc.UpdatePost(ctx, UpdatePostInput{EditorID: author.ID, PostID: post.ID, Text: "Без картинки", ClearImage: true})
	require.NoError(t, err)
	assert.Empty(t, cleared.Image)
	assert.False(t, store.has(updated.Image))

	_, err = svc.UpdatePost(ctx, UpdatePostInput{EditorID: author.ID, PostID: 12345, Text: "x"})
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestPostService_Search(t *testing.T) {
	svc, db, _, _ := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	testutil.CreatePost(t, db, author, nil, "Hello World")
	testutil.CreatePost(t, db, author, nil, "another HELLO")
	testutil.CreatePost(t, db, author, nil, "nothing here")

	found, err := svc.Search(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	empty, err := svc.Search(ctx, "   ")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestPostService_Likes(t *testing.T) {
	svc, db, _, _ := newPostService(t)
	ctx := context.Background()
	author := testutil.CreateUser(t, db, "leo")
	fan := testutil.CreateUser(t, db, "fan")
	post := testutil.CreatePost(t, db, author, nil, "Нравится?")

	liked, err := svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	got, err := svc.GetForAuthor(ctx, author.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.LikesCount)

	viewerLiked, err := svc.LikedBy(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, viewerLiked)

	viewerLiked, err = svc.LikedBy(ctx, 0, post.ID)
	require.NoError(t, err)
	assert.False(t, viewerLiked)

	liked, err = svc.ToggleLike(ctx, fan.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}
