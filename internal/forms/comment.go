package forms

import "strings"

// CommentForm adds a comment to a post.
type CommentForm struct {
	Text   string `form:"text" validate:"required"`
	Errors Errors `form:"-" validate:"-"`
}

// NewCommentForm returns an empty comment form.
func NewCommentForm() *CommentForm {
	return &CommentForm{Errors: Errors{}}
}

// Validate reports whether the comment has non-blank text.
func (f *CommentForm) Validate() bool {
	if f.Errors == nil {
		f.Errors = Errors{}
	}
	f.Text = strings.TrimSpace(f.Text)
	structErrors(f, f.Errors)
	return !f.Errors.Any()
}

func (f *CommentForm) Fields() []Field {
	return []Field{{
		Name: "text", Label: "Текст комментария", HelpText: "Напишите текст комментария",
		Widget: "textarea", Value: f.Text, Required: true, Rows: 5, Cols: 50,
		Errors: f.Errors.Get("text"),
	}}
}
