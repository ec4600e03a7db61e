package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
)

var months = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func newViewEngine(mediaURL func(string) string) (*html.Engine, error) {
	templates, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(templates), ".html")
	engine.AddFuncMap(map[string]interface{}{
		"media":      mediaURL,
		"date":       formatDate,
		"profileURL": profileURL,
		"postURL":    postURL,
		"year":       func() int { return time.Now().Year() },
	})
	return engine, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return strconv.Itoa(t.Day()) + " " + months[t.Month()-1] + " " + strconv.Itoa(t.Year()) + " г."
}

// profileURL escapes '+' too: path unescaping decodes a bare '+' as a space.
func profileURL(username string) string {
	return "/" + strings.ReplaceAll(url.PathEscape(username), "+", "%2B") + "/"
}

// usernameParam reads :username. Usernames never contain spaces, so a space
// can only be a '+' that path unescaping decoded.
func usernameParam(c *fiber.Ctx) string {
	return strings.ReplaceAll(c.Params("username"), " ", "+")
}

func postURL(username string, postID uint) string {
	return profileURL(username) + strconv.FormatUint(uint64(postID), 10) + "/"
}

// render executes a template inside the base layout with the data every page needs.
func (s *Server) render(c *fiber.Ctx, name string, viewer *models.User, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["viewer"] = viewer
	data["path"] = c.Path()
	c.Type("html", "utf-8")
	return c.Render(name, data)
}

// statusFor maps an application error code onto an HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeNotFound:
			return fiber.StatusNotFound
		case models.CodeValidation:
			return fiber.StatusBadRequest
		case models.CodeUnauthorized:
			return fiber.StatusForbidden
		}
	}
	return fiber.StatusInternalServerError
}

// errorHandler renders the error pages for anything a handler returns.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	ctx := c.UserContext()

	var page string
	switch {
	case code == fiber.StatusNotFound:
		page = "errors/404"
	case code >= fiber.StatusInternalServerError:
		page = "errors/500"
		middleware.Logger.ErrorContext(ctx, "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	default:
		return c.Status(code).SendString(http.StatusText(code))
	}

	c.Status(code)
	if rerr := s.render(c, page, viewerOf(c), fiber.Map{"requested_path": c.OriginalURL()}); rerr != nil {
		middleware.Logger.ErrorContext(ctx, "failed to render error page", slog.String("error", rerr.Error()))
		return c.Status(code).SendString(http.StatusText(code))
	}
	return nil
}

func notFound(resource string, id interface{}) error {
	return models.NewNotFoundError(resource, id)
}

// staticPage renders a template that needs no data.
func (s *Server) staticPage(name string) viewerHandler {
	return func(c *fiber.Ctx, viewer *models.User) error {
		return s.render(c, name, viewer, nil)
	}
}
