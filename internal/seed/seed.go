// Package seed fills a database with demo users, groups, posts and social activity.
package seed

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options configuration for the seeder
type Options struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	// Seed makes the generated content reproducible; 0 picks a random seed.
	Seed  int64
	Clean bool
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Groups   int
	Posts    int
	Comments int
	Follows  int
	Likes    int
}

// Seeder generates demo content.
type Seeder struct {
	db   *gorm.DB
	fake *gofakeit.Faker
	hash string
}

func NewSeeder(db *gorm.DB, seed int64) (*Seeder, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Seeder{db: db, fake: gofakeit.New(seed), hash: string(hash)}, nil
}

// Run seeds the database according to opts.
func Run(db *gorm.DB, opts Options) (Summary, error) {
	s, err := NewSeeder(db, opts.Seed)
	if err != nil {
		return Summary{}, err
	}
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return Summary{}, fmt.Errorf("clear: %w", err)
		}
	}
	return s.Populate(opts)
}

// ClearAll deletes every row of the blog tables, children first.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"post_likes", "comments", "follows", "posts", "groups", "users"} {
		if err := s.db.Exec(`DELETE FROM "` + table + `"`).Error; err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) Populate(opts Options) (Summary, error) {
	var sum Summary

	users, err := s.createUsers(opts.Users)
	if err != nil {
		return sum, fmt.Errorf("users: %w", err)
	}
	sum.Users = len(users)
	if len(users) == 0 {
		return sum, nil
	}

	groups, err := s.createGroups(opts.Groups)
	if err != nil {
		return sum, fmt.Errorf("groups: %w", err)
	}
	sum.Groups = len(groups)

	posts, err := s.createPosts(users, groups, opts.Posts)
	if err != nil {
		return sum, fmt.Errorf("posts: %w", err)
	}
	sum.Posts = len(posts)

	if sum.Comments, err = s.createComments(users, posts, opts.Comments); err != nil {
		return sum, fmt.Errorf("comments: %w", err)
	}
	if sum.Follows, err = s.createFollows(users); err != nil {
		return sum, fmt.Errorf("follows: %w", err)
	}
	if sum.Likes, err = s.createLikes(users, posts); err != nil {
		return sum, fmt.Errorf("likes: %w", err)
	}

	middleware.Logger.Info("seeding complete",
		slog.Int("users", sum.Users), slog.Int("groups", sum.Groups), slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments), slog.Int("follows", sum.Follows), slog.Int("likes", sum.Likes))
	return sum, nil
}

func (s *Seeder) createUsers(n int) ([]models.User, error) {
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		users = append(users, models.User{
			Username:     fmt.Sprintf("%s%d", slugify(s.fake.FirstName(), "user"), i+1),
			PasswordHash: s.hash,
			FirstName:    s.fake.FirstName(),
			LastName:     s.fake.LastName(),
		})
	}
	if len(users) == 0 {
		return users, nil
	}
	return users, s.db.CreateInBatches(&users, 100).Error
}

func (s *Seeder) createGroups(n int) ([]models.Group, error) {
	groups := make([]models.Group, 0, n)
	for i := 0; i < n; i++ {
		word := s.fake.Noun()
		groups = append(groups, models.Group{
			Title:       strings.ToUpper(word[:1]) + word[1:],
			Slug:        fmt.Sprintf("%s-%d", slugify(word, "group"), i+1),
			Description: s.fake.Sentence(12),
		})
	}
	if len(groups) == 0 {
		return groups, nil
	}
	return groups, s.db.CreateInBatches(&groups, 100).Error
}

func (s *Seeder) createPosts(users []models.User, groups []models.Group, n int) ([]models.Post, error) {
	posts := make([]models.Post, 0, n)
	now := time.Now()
	for i := 0; i < n; i++ {
		author := &users[s.fake.Number(0, len(users)-1)]
		post := models.Post{
			Text:      s.fake.Paragraph(1, 3, 12, "\n"),
			AuthorID:  &author.ID,
			CreatedAt: s.fake.DateRange(now.AddDate(0, -3, 0), now),
		}
		if len(groups) > 0 && s.fake.Bool() {
			group := &groups[s.fake.Number(0, len(groups)-1)]
			post.GroupID = &group.ID
		}
		posts = append(posts, post)
	}
	if len(posts) == 0 {
		return posts, nil
	}
	return posts, s.db.Omit("Likes", "Author", "Group").CreateInBatches(&posts, 100).Error
}

func (s *Seeder) createComments(users []models.User, posts []models.Post, n int) (int, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	comments := make([]models.Comment, 0, n)
	for i := 0; i < n; i++ {
		comments = append(comments, models.Comment{
			PostID:   posts[s.fake.Number(0, len(posts)-1)].ID,
			AuthorID: users[s.fake.Number(0, len(users)-1)].ID,
			Text:     s.fake.Sentence(s.fake.Number(3, 15)),
		})
	}
	if len(comments) == 0 {
		return 0, nil
	}
	return len(comments), s.db.CreateInBatches(&comments, 100).Error
}

// createFollows gives each user up to three distinct authors to follow.
func (s *Seeder) createFollows(users []models.User) (int, error) {
	var follows []models.Follow
	for i := range users {
		seen := map[uint]bool{users[i].ID: true}
		for j := 0; j < 3 && len(seen) < len(users); j++ {
			author := users[s.fake.Number(0, len(users)-1)].ID
			if seen[author] {
				continue
			}
			seen[author] = true
			follows = append(follows, models.Follow{UserID: users[i].ID, AuthorID: author})
		}
	}
	if len(follows) == 0 {
		return 0, nil
	}
	return len(follows), s.db.CreateInBatches(&follows, 100).Error
}

func (s *Seeder) createLikes(users []models.User, posts []models.Post) (int, error) {
	type like struct {
		PostID uint
		UserID uint
	}
	seen := map[like]bool{}
	var rows []map[string]interface{}
	for i := range posts {
		for j := 0; j < s.fake.Number(0, 3); j++ {
			l := like{PostID: posts[i].ID, UserID: users[s.fake.Number(0, len(users)-1)].ID}
			if seen[l] {
				continue
			}
			seen[l] = true
			rows = append(rows, map[string]interface{}{"post_id": l.PostID, "user_id": l.UserID})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return len(rows), s.db.Table("post_likes").CreateInBatches(rows, 100).Error
}

// slugify keeps the URL-safe ASCII characters of word, lowercased.
func slugify(word, fallback string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(word) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}
