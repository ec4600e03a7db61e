package server

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"yatube/internal/forms"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Index handles GET / with all posts, newest first.
func (s *Server) Index(c *fiber.Ctx, viewer *models.User) error {
	page, err := s.postService.Feed(c.UserContext(), repository.PostFilter{}, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, "posts/index", viewer, fiber.Map{"page_obj": page, "index": true})
}

// GroupPosts handles GET /group/:slug/
func (s *Server) GroupPosts(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	group, err := s.groupService.GetBySlug(ctx, c.Params("slug"))
	if err != nil {
		return err
	}
	page, err := s.postService.Feed(ctx, repository.PostFilter{GroupID: &group.ID}, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, "posts/group_list", viewer, fiber.Map{"group": group, "page_obj": page})
}

// Profile handles GET /:username/
func (s *Server) Profile(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, err := s.accountService.GetByUsername(ctx, usernameParam(c))
	if err != nil {
		return err
	}
	page, err := s.postService.Feed(ctx, repository.PostFilter{AuthorID: &author.ID}, c.Query("page"))
	if err != nil {
		return err
	}
	stats, err := s.followService.Stats(ctx, author.ID)
	if err != nil {
		return err
	}
	following, err := s.followService.IsFollower(ctx, viewer, author)
	if err != nil {
		return err
	}
	return s.render(c, "posts/profile", viewer, fiber.Map{
		"author":      author,
		"page_obj":    page,
		"post_count":  page.TotalItems,
		"followers":   stats.Followers,
		"following_n": stats.Following,
		"following":   following,
		"is_self":     viewer != nil && viewer.ID == author.ID,
	})
}

// PostView handles GET /:username/:post_id/
func (s *Server) PostView(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	postCount, err := s.postService.CountByAuthor(ctx, author.ID)
	if err != nil {
		return err
	}
	comments, err := s.commentService.ForPostDetail(ctx, post)
	if err != nil {
		return err
	}
	var viewerID uint
	if viewer != nil {
		viewerID = viewer.ID
	}
	liked, err := s.postService.LikedBy(ctx, viewerID, post.ID)
	if err != nil {
		return err
	}
	return s.render(c, "posts/post_detail", viewer, fiber.Map{
		"author":     author,
		"post":       post,
		"post_count": postCount,
		"comments":   comments,
		"form":       forms.NewCommentForm().Fields(),
		"likes":      post.LikesCount,
		"liked":      liked,
		"can_edit":   viewer != nil && post.IsAuthoredBy(viewer.ID),
	})
}

// PostCreate handles GET and POST /new/
func (s *Server) PostCreate(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	groups, err := s.groupService.List(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(nil).WithGroups(groups)
	if c.Method() != fiber.MethodPost {
		return s.renderPostForm(c, viewer, form, nil)
	}

	if err := s.bindPostForm(c, form); err != nil {
		return err
	}
	if form.Validate() {
		in := service.CreatePostInput{AuthorID: viewer.ID, Text: form.Text, GroupID: form.GroupID}
		if form.Image != nil {
			in.ImageName, in.ImageData = form.Image.Filename, form.Image.Data
		}
		_, err := s.postService.CreatePost(ctx, in)
		if err == nil {
			return c.Redirect("/", fiber.StatusFound)
		}
		if !formError(form.Errors, "image", forms.MsgInvalidImage, err) {
			return err
		}
	}
	return s.renderPostForm(c, viewer, form, nil)
}

// PostEdit handles GET and POST /:username/:post_id/edit/. Only the author
// may edit; everyone else is sent back to the post.
func (s *Server) PostEdit(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	detail := postURL(author.Username, post.ID)
	if !post.IsAuthoredBy(viewer.ID) {
		return c.Redirect(detail, fiber.StatusFound)
	}

	groups, err := s.groupService.List(ctx)
	if err != nil {
		return err
	}
	form := forms.NewPostForm(post).WithGroups(groups)
	if c.Method() != fiber.MethodPost {
		return s.renderPostForm(c, viewer, form, post)
	}

	if err := s.bindPostForm(c, form); err != nil {
		return err
	}
	if form.Validate() {
		in := service.UpdatePostInput{
			EditorID:   viewer.ID,
			PostID:     post.ID,
			Text:       form.Text,
			GroupID:    form.GroupID,
			ClearImage: form.ClearImage(),
		}
		if form.Image != nil {
			in.ImageName, in.ImageData = form.Image.Filename, form.Image.Data
		}
		_, err := s.postService.UpdatePost(ctx, in)
		if err == nil {
			return c.Redirect(detail, fiber.StatusFound)
		}
		if !formError(form.Errors, "image", forms.MsgInvalidImage, err) {
			return err
		}
	}
	return s.renderPostForm(c, viewer, form, post)
}

// AddComment handles POST /:username/:post_id/comment. It always returns to
// the post; blank comments are discarded.
func (s *Server) AddComment(c *fiber.Ctx, viewer *models.User) error {
	ctx := c.UserContext()
	author, post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	form := forms.NewCommentForm()
	if err := c.BodyParser(form); err != nil {
		middleware.Logger.DebugContext(ctx, "unreadable comment form", slog.String("error", err.Error()))
	}
	if form.Validate() {
		if _, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
			PostID:   post.ID,
			AuthorID: viewer.ID,
			Text:     form.Text,
		}); err != nil {
			return err
		}
	} else {
		middleware.Logger.DebugContext(ctx, "discarding invalid comment", slog.Uint64("post_id", uint64(post.ID)))
	}
	return c.Redirect(postURL(author.Username, post.ID), fiber.StatusFound)
}

// ToggleLike handles POST /:username/:post_id/like/
func (s *Server) ToggleLike(c *fiber.Ctx, viewer *models.User) error {
	author, post, err := s.lookupPost(c)
	if err != nil {
		return err
	}
	if _, err := s.postService.ToggleLike(c.UserContext(), viewer.ID, post.ID); err != nil {
		return err
	}
	return c.Redirect(postURL(author.Username, post.ID), fiber.StatusFound)
}

// FollowIndex handles GET /follow/ with posts of followed authors.
func (s *Server) FollowIndex(c *fiber.Ctx, viewer *models.User) error {
	page, err := s.postService.Feed(c.UserContext(), repository.PostFilter{FollowerID: &viewer.ID}, c.Query("page"))
	if err != nil {
		return err
	}
	return s.render(c, "posts/follow", viewer, fiber.Map{"page_obj": page, "follow": true})
}

// Search handles GET /search/?q=
func (s *Server) Search(c *fiber.Ctx, viewer *models.User) error {
	query := c.Query("q")
	posts, err := s.postService.Search(c.UserContext(), query)
	if err != nil {
		return err
	}
	return s.render(c, "posts/search", viewer, fiber.Map{"query": query, "posts": posts})
}

// lookupPost resolves the :username and :post_id params. The pair must match.
func (s *Server) lookupPost(c *fiber.Ctx) (*models.User, *models.Post, error) {
	ctx := c.UserContext()
	raw := c.Params("post_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, nil, notFound("Post", raw)
	}
	author, err := s.accountService.GetByUsername(ctx, usernameParam(c))
	if err != nil {
		return nil, nil, err
	}
	post, err := s.postService.GetForAuthor(ctx, author.ID, uint(id))
	if err != nil {
		return nil, nil, err
	}
	return author, post, nil
}

func (s *Server) bindPostForm(c *fiber.Ctx, form *forms.PostForm) error {
	if err := c.BodyParser(form); err != nil {
		middleware.Logger.DebugContext(c.UserContext(), "unreadable post form", slog.String("error", err.Error()))
	}
	upload, err := s.readUpload(c, "image")
	if err != nil {
		return err
	}
	form.Image = upload
	return nil
}

// readUpload returns the named multipart file, or nil when none was sent.
func (s *Server) readUpload(c *fiber.Ctx, field string) (*forms.Upload, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		return nil, nil
	}
	upload := &forms.Upload{Filename: fh.Filename}
	if fh.Size > int64(s.config.MaxUploadSize()) {
		upload.TooLarge = true
		return upload, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	upload.Data = data
	return upload, nil
}

func (s *Server) renderPostForm(c *fiber.Ctx, viewer *models.User, form *forms.PostForm, post *models.Post) error {
	var current string
	if post != nil {
		current = s.postService.ImageURL(post.Image)
	}
	return s.render(c, "posts/create_post", viewer, fiber.Map{
		"fields":   form.Fields(current),
		"is_edit":  post != nil,
		"post":     post,
		"errors":   form.Errors.Get("__all__"),
		"has_file": true,
	})
}

// formError records msg on field when err is a validation failure and reports
// whether it was one.
func formError(errs forms.Errors, field, msg string, err error) bool {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		errs.Add(field, msg)
		return true
	}
	return false
}
