package forms

import "strings"

// GroupForm creates a community.
type GroupForm struct {
	Title       string `form:"title" validate:"required,max=200"`
	Slug        string `form:"slug" validate:"required,max=50,slug"`
	Description string `form:"description" validate:"required"`
	Errors      Errors `form:"-" validate:"-"`
}

func NewGroupForm() *GroupForm {
	return &GroupForm{Errors: Errors{}}
}

// Validate checks the fields. slugTaken reports whether a slug is already used and may be nil.
func (f *GroupForm) Validate(slugTaken func(slug string) (bool, error)) (bool, error) {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.Description = strings.TrimSpace(f.Description)
	structErrors(f, f.Errors)

	if slugTaken != nil && len(f.Errors.Get("slug")) == 0 {
		taken, err := slugTaken(f.Slug)
		if err != nil {
			return false, err
		}
		if taken {
			f.Errors.Add("slug", MsgSlugTaken)
		}
	}
	return !f.Errors.Any(), nil
}

func (f *GroupForm) Fields() []Field {
	return []Field{
		{
			Name: "title", Label: "Название группы", HelpText: "Дайте название группе",
			Widget: "text", Value: f.Title, Required: true,
			Errors: f.Errors.Get("title"),
		},
		{
			Name: "slug", Label: "Адрес", HelpText: "Латинские буквы, цифры, дефис и подчеркивание",
			Widget: "text", Value: f.Slug, Required: true,
			Errors: f.Errors.Get("slug"),
		},
		{
			Name: "description", Label: "Описание", HelpText: "Опишите группу",
			Widget: "textarea", Value: f.Description, Required: true, Rows: 5, Cols: 40,
			Errors: f.Errors.Get("description"),
		},
	}
}
