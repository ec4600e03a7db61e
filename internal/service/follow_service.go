package service

import (
	"context"

	"yatube/internal/events"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	publisher  events.Publisher
}

// FollowStats are the counters shown on a profile.
type FollowStats struct {
	Followers int64
	Following int64
}

func NewFollowService(followRepo repository.FollowRepository, publisher events.Publisher) *FollowService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &FollowService{followRepo: followRepo, publisher: publisher}
}

// Follow subscribes followerID to authorID. Following oneself is a no-op, as is a repeated follow.
func (s *FollowService) Follow(ctx context.Context, followerID, authorID uint) (bool, error) {
	if followerID == authorID {
		return false, nil
	}
	_, created, err := s.followRepo.GetOrCreate(ctx, followerID, authorID)
	if err != nil {
		return false, err
	}
	if created {
		observability.ContentCreated.WithLabelValues("follow").Inc()
		events.Emit(ctx, s.publisher, events.Event{Type: events.FollowCreated, ActorID: followerID, AuthorID: authorID})
	}
	return created, nil
}

// Unfollow removes every edge from followerID to authorID.
func (s *FollowService) Unfollow(ctx context.Context, followerID, authorID uint) error {
	if followerID == authorID {
		return nil
	}
	return s.followRepo.Delete(ctx, followerID, authorID)
}

// IsFollower reports whether viewer follows author. An anonymous viewer follows nobody.
func (s *FollowService) IsFollower(ctx context.Context, viewer, author *models.User) (bool, error) {
	if viewer == nil || author == nil {
		return false, nil
	}
	return s.followRepo.Exists(ctx, viewer.ID, author.ID)
}

func (s *FollowService) Stats(ctx context.Context, userID uint) (FollowStats, error) {
	followers, err := s.followRepo.CountFollowers(ctx, userID)
	if err != nil {
		return FollowStats{}, err
	}
	following, err := s.followRepo.CountFollowing(ctx, userID)
	if err != nil {
		return FollowStats{}, err
	}
	return FollowStats{Followers: followers, Following: following}, nil
}
