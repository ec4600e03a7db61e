package repository

import (
	"context"
	"strings"

	"yatube/internal/models"
	"yatube/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows a post listing. Zero value lists every post.
type PostFilter struct {
	GroupID *uint
	// AuthorID limits the listing to one author.
	AuthorID *uint
	// FollowerID limits the listing to authors the given user follows.
	FollowerID *uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByAuthor(ctx context.Context, authorID, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error)
	Count(ctx context.Context, filter PostFilter) (int64, error)
	Search(ctx context.Context, query string) ([]*models.Post, error)
	IsLiked(ctx context.Context, userID, postID uint) (bool, error)
	ToggleLike(ctx context.Context, userID, postID uint) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update saves the editable fields of an existing post.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image").
		Updates(map[string]interface{}{
			"text":     post.Text,
			"group_id": post.GroupID,
			"image":    post.Image,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.withRelations(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

// GetByAuthor fetches a post only if it was written by authorID.
func (r *postRepository) GetByAuthor(ctx context.Context, authorID, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withRelations(ctx).
		Where("posts.id = ? AND posts.author_id = ?", id, authorID).
		First(&post).Error
	if err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	if err := r.fillLikes(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, error) {
	ctx, span := observability.StartSpan(ctx, "repository.posts.List",
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
	)
	var posts []*models.Post
	err := r.filtered(r.withRelations(ctx), filter).
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.fillLikes(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filter PostFilter) (int64, error) {
	var total int64
	if err := r.filtered(r.db.WithContext(ctx).Model(&models.Post{}), filter).Count(&total).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return total, nil
}

// Search returns posts whose text contains query, ignoring case, newest first.
func (r *postRepository) Search(ctx context.Context, query string) ([]*models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*models.Post{}, nil
	}

	ctx, span := observability.StartSpan(ctx, "repository.posts.Search")
	operator := "LIKE"
	if r.db.Dialector.Name() == "postgres" {
		operator = "ILIKE"
	}

	var posts []*models.Post
	err := r.withRelations(ctx).
		Where("posts.text "+operator+" ? ESCAPE '\\'", "%"+escapeLike(query)+"%").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Find(&posts).Error
	observability.EndSpan(span, err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.fillLikes(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("post_likes").
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ToggleLike adds the like if absent and removes it otherwise; it reports whether the post is now liked.
func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, error) {
	liked := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Table("post_likes").
			Where("post_id = ? AND user_id = ?", postID, userID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return tx.Exec("DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID).Error
		}
		liked = true
		return tx.Table("post_likes").Create(map[string]interface{}{
			"post_id": postID,
			"user_id": userID,
		}).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return liked, nil
}

// fillLikes sets LikesCount on posts with one grouped query over post_likes.
func (r *postRepository) fillLikes(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).Table("post_likes").
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	for _, p := range posts {
		p.LikesCount = counts[p.ID]
	}
	return nil
}

func (r *postRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Author").Preload("Group")
}

func (r *postRepository) filtered(q *gorm.DB, filter PostFilter) *gorm.DB {
	if filter.GroupID != nil {
		q = q.Where("posts.group_id = ?", *filter.GroupID)
	}
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}
	if filter.FollowerID != nil {
		q = q.Where("posts.author_id IN (?)",
			r.db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", *filter.FollowerID))
	}
	return q
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
