package server

import (
	"yatube/internal/forms"
	"yatube/internal/models"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProfileFollow handles GET /:username/follow/
func (s *Server) ProfileFollow(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, err := s.accountService.GetByUsername(ctx, usernameParam(c))
	if err != nil {
		return err
	}
	if _, err := s.followService.Follow(ctx, viewer.ID, author.ID); err != nil {
		return err
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// ProfileUnfollow handles GET /:username/unfollow/
func (s *Server) ProfileUnfollow(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, err := s.accountService.GetByUsername(ctx, usernameParam(c))
	if err != nil {
		return err
	}
	if err := s.followService.Unfollow(ctx, viewer.ID, author.ID); err != nil {
		return err
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}

// AddGroup handles GET and POST /add_group/
func (s *Server) AddGroup(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	form := forms.NewGroupForm()
	if c.Method() == fiber.MethodPost {
		if err := c.BodyParser(form); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		ok, err := form.Validate(func(slug string) (bool, error) {
			return s.groupService.SlugTaken(ctx, slug)
		})
		if err != nil {
			return err
		}
		if ok {
			group, err := s.groupService.CreateGroup(ctx, service.CreateGroupInput{
				ActorID:     viewer.ID,
				Title:       form.Title,
				Slug:        form.Slug,
				Description: form.Description,
			})
			if err == nil {
				return c.Redirect("/group/"+group.Slug+"/", fiber.StatusFound)
			}
			if !formError(form.Errors, "slug", forms.MsgSlugTaken, err) {
				return err
			}
		}
	}
	return s.render(c, "posts/add_group", viewer, fiber.Map{"fields": form.Fields()})
}
