package forms

import (
	"strconv"
	"strings"

	"yatube/internal/media"
	"yatube/internal/models"
)

// Upload is a file received with a form.
type Upload struct {
	Filename string
	Data     []byte
	// TooLarge is set when the file exceeded the upload limit and Data was discarded.
	TooLarge bool
}

// PostForm creates or edits a post.
type PostForm struct {
	Text       string `form:"text" validate:"required"`
	Group      string `form:"group"`
	ImageClear string `form:"image-clear" validate:"-"`

	GroupID *uint   `form:"-" validate:"-"`
	Image   *Upload `form:"-" validate:"-"`
	Errors  Errors  `form:"-" validate:"-"`
	groups  []models.Group
}

// NewPostForm returns an empty form, or one prefilled from post when editing.
func NewPostForm(post *models.Post) *PostForm {
	f := &PostForm{Errors: Errors{}}
	if post != nil {
		f.Text = post.Text
		if post.GroupID != nil {
			f.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
			f.GroupID = post.GroupID
		}
	}
	return f
}

// WithGroups sets the selectable groups.
func (f *PostForm) WithGroups(groups []models.Group) *PostForm {
	f.groups = groups
	return f
}

// ClearImage reports whether the clear checkbox was ticked.
func (f *PostForm) ClearImage() bool {
	return f.ImageClear != ""
}

// Validate normalizes input and records errors. It reports whether the form is valid.
func (f *PostForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Text = strings.TrimSpace(f.Text)
	structErrors(f, f.Errors)

	f.GroupID = nil
	if g := strings.TrimSpace(f.Group); g != "" {
		id, err := strconv.ParseUint(g, 10, 64)
		if err != nil || !containsGroup(f.groups, uint(id)) {
			f.Errors.Add("group", MsgInvalidChoice)
		} else {
			gid := uint(id)
			f.GroupID = &gid
		}
	}

	if f.Image != nil {
		switch {
		case f.Image.TooLarge:
			f.Errors.Add("image", MsgImageTooLarge)
		case len(f.Image.Data) == 0:
			// An empty file input means no new image.
			f.Image = nil
		default:
			if _, err := media.Inspect(f.Image.Data); err != nil {
				f.Errors.Add("image", MsgInvalidImage)
			}
		}
	}

	return !f.Errors.Any()
}

// Fields describes the form for rendering. currentImage is the URL of the stored image, if any.
func (f *PostForm) Fields(currentImage string) []Field {
	choices := []Choice{{Value: "", Label: "---------", Selected: f.Group == ""}}
	for _, g := range f.groups {
		v := strconv.FormatUint(uint64(g.ID), 10)
		choices = append(choices, Choice{Value: v, Label: g.Title, Selected: v == f.Group})
	}
	return []Field{
		{
			Name: "text", Label: "Текст поста", HelpText: "Напишите текст поста",
			Widget: "textarea", Value: f.Text, Required: true, Rows: 10, Cols: 40,
			Errors: f.Errors.Get("text"),
		},
		{
			Name: "group", Label: "Группа", HelpText: "Выберите группу",
			Widget: "select", Value: f.Group, Choices: choices,
			Errors: f.Errors.Get("group"),
		},
		{
			Name: "image", Label: "Картинка", HelpText: "Добавьте картинку",
			Widget: "file", Current: currentImage,
			Errors: f.Errors.Get("image"),
		},
	}
}

func containsGroup(groups []models.Group, id uint) bool {
	for _, g := range groups {
		if g.ID == id {
			return true
		}
	}
	return false
}
