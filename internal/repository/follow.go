package repository

import (
	"context"

	"yatube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists follow edges between users.
type FollowRepository interface {
	// GetOrCreate returns the existing edge or creates one; created reports which happened.
	GetOrCreate(ctx context.Context, userID, authorID uint) (*models.Follow, bool, error)
	Delete(ctx context.Context, userID, authorID uint) error
	Exists(ctx context.Context, userID, authorID uint) (bool, error)
	CountFollowers(ctx context.Context, authorID uint) (int64, error)
	CountFollowing(ctx context.Context, userID uint) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) GetOrCreate(ctx context.Context, userID, authorID uint) (*models.Follow, bool, error) {
	var follow models.Follow
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND author_id = ?", userID, authorID).
			Order("id").Limit(1).Find(&follow)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		follow = models.Follow{UserID: userID, AuthorID: authorID}
		created = true
		return tx.Omit(clause.Associations).Create(&follow).Error
	})
	if err != nil {
		return nil, false, models.NewInternalError(err)
	}
	return &follow, created, nil
}

// Delete removes every edge from userID to authorID.
func (r *followRepository) Delete(ctx context.Context, userID, authorID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID uint) (int64, error) {
	return r.count(ctx, "author_id = ?", authorID)
}

func (r *followRepository) CountFollowing(ctx context.Context, userID uint) (int64, error) {
	return r.count(ctx, "user_id = ?", userID)
}

func (r *followRepository) count(ctx context.Context, cond string, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where(cond, id).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
