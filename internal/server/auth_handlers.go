package server

import (
	"errors"
	"log/slog"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Signup handles GET and POST /auth/signup/
func (s *Server) Signup(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	form := forms.NewSignupForm()
	if c.Method() == fiber.MethodPost {
		if err := c.BodyParser(form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ok, err := form.Validate(func(username string) (bool, error) {
			return s.accountService.UsernameTaken(ctx, username)
		})
		if err != nil {
			return err
		}
		if ok {
			user, err := s.accountService.Register(ctx, service.RegisterInput{
				Username:  form.Username,
				Password:  form.Password1,
				FirstName: form.FirstName,
				LastName:  form.LastName,
			})
			if err == nil {
				middleware.Logger.InfoContext(ctx, "user registered", slog.Uint64("user_id", uint64(user.ID)))
				if err := s.startSession(c, user); err != nil {
					return err
				}
				return c.Redirect("/", fiber.StatusFound)
			}
			if !formError(form.Errors, "username", forms.MsgUsernameTaken, err) {
				return err
			}
		}
	}
	return s.render(c, "users/signup", viewer, fiber.Map{"fields": form.Fields()})
}

// Login handles GET and POST /auth/login/
func (s *Server) Login(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	next := c.Query("next", c.FormValue("next"))
	form := forms.NewLoginForm()
	if c.Method() == fiber.MethodPost {
		if err := c.BodyParser(form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if form.Validate() {
			user, err := s.accountService.Authenticate(ctx, form.Username, form.Password)
			switch {
			case err == nil:
				if err := s.startSession(c, user); err != nil {
					return err
				}
				return c.Redirect(safeNext(next), fiber.StatusFound)
			case errors.Is(err, service.ErrInvalidCredentials):
				form.Reject()
			default:
				return err
			}
		}
	}
	return s.render(c, "users/login", viewer, fiber.Map{
		"fields": form.Fields(),
		"errors": form.Errors.Get("__all__"),
		"next":   next,
	})
}

// Logout handles GET /auth/logout/
func (s *Server) Logout(c *fiber.Ctx, _ *models.User) error {
	ctx := c.UserContext()
	if raw := c.Cookies(sessionCookie); raw != "" {
		if claims, err := s.sessions.parse(ctx, raw); err == nil {
			if err := s.sessions.revoke(ctx, claims); err != nil {
				middleware.Logger.WarnContext(ctx, "failed to revoke session", slog.String("error", err.Error()))
			}
		}
	}
	s.clearSessionCookie(c)
	return s.render(c, "users/logged_out", nil, nil)
}
