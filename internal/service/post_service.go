package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"yatube/internal/events"
	"yatube/internal/media"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/pagination"
	"yatube/internal/repository"
)

// DefaultPerPage is the feed page size used when none is configured.
const DefaultPerPage = 10

type PostService struct {
	postRepo  repository.PostRepository
	groupRepo repository.GroupRepository
	store     media.Store
	publisher events.Publisher
	perPage   int
}

type CreatePostInput struct {
	AuthorID  uint
	Text      string
	GroupID   *uint
	ImageName string
	ImageData []byte
}

type UpdatePostInput struct {
	EditorID   uint
	PostID     uint
	Text       string
	GroupID    *uint
	ImageName  string
	ImageData  []byte
	ClearImage bool
}

func NewPostService(
	postRepo repository.PostRepository,
	groupRepo repository.GroupRepository,
	store media.Store,
	publisher events.Publisher,
	perPage int,
) *PostService {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &PostService{
		postRepo:  postRepo,
		groupRepo: groupRepo,
		store:     store,
		publisher: publisher,
		perPage:   perPage,
	}
}

// Feed returns one page of posts matching filter. rawPage is the unparsed page query value.
func (s *PostService) Feed(ctx context.Context, filter repository.PostFilter, rawPage string) (pagination.Page[*models.Post], error) {
	total, err := s.postRepo.Count(ctx, filter)
	if err != nil {
		return pagination.Page[*models.Post]{}, err
	}
	number := pagination.Resolve(rawPage, total, s.perPage)
	posts, err := s.postRepo.List(ctx, filter, s.perPage, pagination.Offset(number, s.perPage))
	if err != nil {
		return pagination.Page[*models.Post]{}, err
	}
	return pagination.New(posts, number, s.perPage, total), nil
}

// CountByAuthor returns how many posts authorID has published.
func (s *PostService) CountByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return s.postRepo.Count(ctx, repository.PostFilter{AuthorID: &authorID})
}

// Search returns all posts containing query, ignoring case. A blank query matches nothing.
func (s *PostService) Search(ctx context.Context, query string) ([]*models.Post, error) {
	if strings.TrimSpace(query) == "" {
		return []*models.Post{}, nil
	}
	return s.postRepo.Search(ctx, query)
}

// GetForAuthor fetches a post only when it belongs to authorID.
func (s *PostService) GetForAuthor(ctx context.Context, authorID, postID uint) (*models.Post, error) {
	return s.postRepo.GetByAuthor(ctx, authorID, postID)
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	post := &models.Post{
		Text:     text,
		AuthorID: &in.AuthorID,
		GroupID:  in.GroupID,
	}
	if len(in.ImageData) > 0 {
		key, err := s.saveImage(ctx, in.ImageName, in.ImageData)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discardImage(ctx, post.Image)
		return nil, err
	}

	observability.ContentCreated.WithLabelValues("post").Inc()
	events.Emit(ctx, s.publisher, events.Event{Type: events.PostCreated, ActorID: in.AuthorID, PostID: post.ID})
	return post, nil
}

// UpdatePost edits a post in place. Only the author may edit.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Post text is required")
	}
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsAuthoredBy(in.EditorID) {
		return nil, models.NewUnauthorizedError("Only the author can edit this post")
	}
	if err := s.checkGroup(ctx, in.GroupID); err != nil {
		return nil, err
	}

	oldImage := post.Image
	post.Text = text
	post.GroupID = in.GroupID
	switch {
	case len(in.ImageData) > 0:
		key, err := s.saveImage(ctx, in.ImageName, in.ImageData)
		if err != nil {
			return nil, err
		}
		post.Image = key
	case in.ClearImage:
		post.Image = ""
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if post.Image != oldImage {
			s.discardImage(ctx, post.Image)
		}
		return nil, err
	}
	if post.Image != oldImage {
		s.discardImage(ctx, oldImage)
	}

	events.Emit(ctx, s.publisher, events.Event{Type: events.PostUpdated, ActorID: in.EditorID, PostID: post.ID})
	return post, nil
}

// ToggleLike likes or unlikes a post for userID and reports whether it is now liked.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.postRepo.ToggleLike(ctx, userID, postID)
}

// LikedBy reports whether viewerID liked the post. viewerID 0 is anonymous.
func (s *PostService) LikedBy(ctx context.Context, viewerID, postID uint) (bool, error) {
	if viewerID == 0 {
		return false, nil
	}
	return s.postRepo.IsLiked(ctx, viewerID, postID)
}

// ImageURL resolves a stored image key to its public URL.
func (s *PostService) ImageURL(key string) string {
	if key == "" || s.store == nil {
		return ""
	}
	return s.store.URL(key)
}

func (s *PostService) checkGroup(ctx context.Context, groupID *uint) error {
	if groupID == nil || s.groupRepo == nil {
		return nil
	}
	if _, err := s.groupRepo.GetByID(ctx, *groupID); err != nil {
		if models.IsNotFound(err) {
			return models.NewValidationError("Unknown group")
		}
		return err
	}
	return nil
}

func (s *PostService) saveImage(ctx context.Context, name string, data []byte) (string, error) {
	if s.store == nil {
		return "", models.NewInternalError(fmt.Errorf("media store not configured"))
	}
	key, err := media.Save(ctx, s.store, media.PostsDir, name, data)
	if err != nil {
		if media.IsInvalidImage(err) {
			return "", models.NewValidationError("Upload a valid image")
		}
		return "", models.NewInternalError(err)
	}
	observability.MediaUploads.WithLabelValues(s.store.Backend()).Inc()
	return key, nil
}

func (s *PostService) discardImage(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete image",
			slog.String("key", key), slog.String("error", err.Error()))
	}
}
