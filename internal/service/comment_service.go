package service

import (
	"context"
	"strings"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	publisher   events.Publisher
}

type CreateCommentInput struct {
	PostID   uint
	AuthorID uint
	Text     string
}

func NewCommentService(commentRepo repository.CommentRepository, publisher events.Publisher) *CommentService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CommentService{commentRepo: commentRepo, publisher: publisher}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	comment := &models.Comment{PostID: in.PostID, AuthorID: in.AuthorID, Text: text}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("comment").Inc()
	events.Emit(ctx, s.publisher, events.Event{Type: events.CommentCreated, ActorID: in.AuthorID, PostID: in.PostID})
	return comment, nil
}

// ForPostDetail returns the comments shown under post: every comment written by the post's author.
func (s *CommentService) ForPostDetail(ctx context.Context, post *models.Post) ([]*models.Comment, error) {
	if post.AuthorID == nil {
		return []*models.Comment{}, nil
	}
	return s.commentRepo.ListByAuthor(ctx, *post.AuthorID)
}
