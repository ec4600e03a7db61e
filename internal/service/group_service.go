package service

import (
	"context"
	"strings"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type GroupService struct {
	groupRepo repository.GroupRepository
	publisher events.Publisher
}

type CreateGroupInput struct {
	ActorID     uint
	Title       string
	Slug        string
	Description string
}

func NewGroupService(groupRepo repository.GroupRepository, publisher events.Publisher) *GroupService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &GroupService{groupRepo: groupRepo, publisher: publisher}
}

func (s *GroupService) GetBySlug(ctx context.Context, slug string) (*models.Group, error) {
	return s.groupRepo.GetBySlug(ctx, slug)
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groupRepo.List(ctx)
}

func (s *GroupService) SlugTaken(ctx context.Context, slug string) (bool, error) {
	return s.groupRepo.SlugExists(ctx, slug)
}

func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	group := &models.Group{
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: strings.TrimSpace(in.Description),
	}
	if group.Title == "" || group.Slug == "" {
		return nil, models.NewValidationError("Title and slug are required")
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	observability.ContentCreated.WithLabelValues("group").Inc()
	events.Emit(ctx, s.publisher, events.Event{Type: events.GroupCreated, ActorID: in.ActorID, GroupSlug: group.Slug})
	return group, nil
}
