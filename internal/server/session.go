package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/cache"
	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionCookie = "yatube_session"
	sessionIssuer = "yatube"
	localViewer   = "viewer"
	loginURL      = "/auth/login/"
)

var errSessionRevoked = errors.New("session revoked")

// sessionManager issues and verifies the signed session cookie.
type sessionManager struct {
	secret []byte
	ttl    time.Duration
	redis  *redis.Client
}

func newSessionManager(secret string, ttl time.Duration, redisClient *redis.Client) *sessionManager {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &sessionManager{secret: []byte(secret), ttl: ttl, redis: redisClient}
}

func (m *sessionManager) issue(userID uint) (string, time.Time, error) {
	if len(m.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("session secret not configured")
	}
	now := time.Now()
	expires := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Issuer:    sessionIssuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	return token, expires, err
}

func (m *sessionManager) parse(ctx context.Context, raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(sessionIssuer))
	if err != nil {
		return nil, err
	}
	if claims.ID != "" && m.redis != nil {
		revoked, err := m.redis.Exists(ctx, "blacklist:"+claims.ID).Result()
		if err == nil && revoked > 0 {
			return nil, errSessionRevoked
		}
	}
	return claims, nil
}

// revoke blacklists the token id until the token would have expired anyway.
func (m *sessionManager) revoke(ctx context.Context, claims *jwt.RegisteredClaims) error {
	if m.redis == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := m.ttl
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return m.redis.Set(ctx, "blacklist:"+claims.ID, "1", ttl).Err()
}

// sessionMiddleware resolves the session cookie into the viewer. Invalid or
// stale cookies are dropped and the request continues anonymously.
func (s *Server) sessionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(sessionCookie)
		if raw == "" {
			return c.Next()
		}
		ctx := c.UserContext()
		claims, err := s.sessions.parse(ctx, raw)
		if err != nil {
			middleware.Logger.DebugContext(ctx, "ignoring session cookie", slog.String("error", err.Error()))
			s.clearSessionCookie(c)
			return c.Next()
		}
		id, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			s.clearSessionCookie(c)
			return c.Next()
		}
		user, err := s.userRepo.GetByID(ctx, uint(id))
		if err != nil {
			if !models.IsNotFound(err) {
				return err
			}
			s.clearSessionCookie(c)
			return c.Next()
		}
		c.Locals(localViewer, user)
		middleware.WithUserID(c, user.ID)
		return c.Next()
	}
}

func (s *Server) startSession(c *fiber.Ctx, user *models.User) error {
	token, expires, err := s.sessions.issue(user.ID)
	if err != nil {
		return models.NewInternalError(err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// viewerHandler is a page handler that receives the current user explicitly.
// viewer is nil for anonymous requests.
type viewerHandler func(c *fiber.Ctx, viewer *models.User) error

func viewerOf(c *fiber.Ctx) *models.User {
	viewer, _ := c.Locals(localViewer).(*models.User)
	return viewer
}

func (s *Server) withViewer(h viewerHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h(c, viewerOf(c))
	}
}

// loginRequired sends anonymous viewers to the login page, remembering where they were going.
func (s *Server) loginRequired(h viewerHandler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewer := viewerOf(c)
		if viewer == nil {
			return c.Redirect(loginRedirectURL(c.OriginalURL()), fiber.StatusFound)
		}
		return h(c, viewer)
	}
}

func loginRedirectURL(next string) string {
	return loginURL + "?next=" + strings.ReplaceAll(url.QueryEscape(next), "%2F", "/")
}

// safeNext accepts only local absolute paths as post-login destinations.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// pageKey varies cached pages by viewer.
func (s *Server) pageKey(c *fiber.Ctx) string {
	var viewerID uint
	if viewer := viewerOf(c); viewer != nil {
		viewerID = viewer.ID
	}
	return cache.PageKey(viewerID, c.OriginalURL())
}
