package forms

import (
	"strings"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gifBytes = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

func TestPostForm_Validate(t *testing.T) {
	groups := []models.Group{{ID: 1, Title: "Котики", Slug: "cats"}, {ID: 2, Title: "Собаки", Slug: "dogs"}}

	tests := []struct {
		name      string
		form      PostForm
		wantValid bool
		wantField string
		wantGroup *uint
	}{
		{name: "text only", form: PostForm{Text: "Текст из формы"}, wantValid: true},
		{name: "blank text", form: PostForm{Text: "   "}, wantField: "text"},
		{name: "known group", form: PostForm{Text: "a", Group: "2"}, wantValid: true, wantGroup: func() *uint { v := uint(2); return &v }()},
		{name: "unknown group", form: PostForm{Text: "a", Group: "9"}, wantField: "group"},
		{name: "garbage group", form: PostForm{Text: "a", Group: "x"}, wantField: "group"},
		{name: "valid image", form: PostForm{Text: "a", Image: &Upload{Filename: "small.gif", Data: gifBytes}}, wantValid: true},
		{name: "not an image", form: PostForm{Text: "a", Image: &Upload{Filename: "a.gif", Data: []byte("hello")}}, wantField: "image"},
		{name: "too large", form: PostForm{Text: "a", Image: &Upload{Filename: "a.gif", TooLarge: true}}, wantField: "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			f.WithGroups(groups)
			assert.Equal(t, tt.wantValid, f.Validate())
			if tt.wantField != "" {
				assert.NotEmpty(t, f.Errors.Get(tt.wantField))
			}
			if tt.wantValid {
				assert.Equal(t, tt.wantGroup, f.GroupID)
			}
		})
	}
}

func TestPostForm_EmptyUploadIgnored(t *testing.T) {
	f := &PostForm{Text: "a", Image: &Upload{Filename: ""}}
	assert.True(t, f.Validate())
	assert.Nil(t, f.Image)
}

func TestPostForm_FieldsPrefilled(t *testing.T) {
	gid := uint(1)
	post := &models.Post{Text: "Старый текст", GroupID: &gid}
	f := NewPostForm(post).WithGroups([]models.Group{{ID: 1, Title: "Котики"}})

	fields := f.Fields("/media/posts/a.gif")
	require.Len(t, fields, 3)
	assert.Equal(t, "Текст поста", fields[0].Label)
	assert.Equal(t, "Напишите текст поста", fields[0].HelpText)
	assert.Equal(t, "Старый текст", fields[0].Value)
	assert.Equal(t, "Выберите группу", fields[1].HelpText)
	require.Len(t, fields[1].Choices, 2)
	assert.True(t, fields[1].Choices[1].Selected)
	assert.Equal(t, "/media/posts/a.gif", fields[2].Current)
}

func TestCommentForm(t *testing.T) {
	f := &CommentForm{Text: "  "}
	assert.False(t, f.Validate())
	assert.Equal(t, []string{MsgRequired}, f.Errors.Get("text"))

	f = &CommentForm{Text: " Отличный пост "}
	assert.True(t, f.Validate())
	assert.Equal(t, "Отличный пост", f.Text)

	fields := f.Fields()
	assert.Equal(t, 50, fields[0].Cols)
	assert.Equal(t, 5, fields[0].Rows)
}

func TestGroupForm_Validate(t *testing.T) {
	taken := func(slug string) (bool, error) { return slug == "cats", nil }

	tests := []struct {
		name      string
		form      GroupForm
		wantValid bool
		wantMsg   string
		field     string
	}{
		{name: "valid", form: GroupForm{Title: "Собаки", Slug: "dogs", Description: "Про собак"}, wantValid: true},
		{name: "slug taken", form: GroupForm{Title: "Котики", Slug: "cats", Description: "x"}, field: "slug", wantMsg: MsgSlugTaken},
		{name: "bad slug", form: GroupForm{Title: "Котики", Slug: "кошки", Description: "x"}, field: "slug", wantMsg: MsgSlug},
		{name: "long title", form: GroupForm{Title: strings.Repeat("я", 201), Slug: "t", Description: "x"}, field: "title"},
		{name: "missing description", form: GroupForm{Title: "t", Slug: "t"}, field: "description", wantMsg: MsgRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			ok, err := f.Validate(taken)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, ok)
			if tt.field != "" {
				require.NotEmpty(t, f.Errors.Get(tt.field))
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, f.Errors.Get(tt.field)[0])
			}
		})
	}
}

func TestSignupForm_Validate(t *testing.T) {
	taken := func(u string) (bool, error) { return u == "leo", nil }

	f := &SignupForm{Username: "новый_автор", Password1: "password123", Password2: "password123"}
	ok, err := f.Validate(taken)
	require.NoError(t, err)
	assert.True(t, ok)

	f = &SignupForm{Username: "leo", Password1: "short", Password2: "other"}
	ok, err = f.Validate(taken)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{MsgUsernameTaken}, f.Errors.Get("username"))
	assert.Equal(t, []string{MsgPasswordShort}, f.Errors.Get("password1"))
	assert.Equal(t, []string{MsgPasswordMatch}, f.Errors.Get("password2"))

	f = &SignupForm{Username: "with space", Password1: "password123", Password2: "password123"}
	ok, _ = f.Validate(nil)
	assert.False(t, ok)
	assert.Equal(t, []string{MsgUsername}, f.Errors.Get("username"))
}

func TestLoginForm(t *testing.T) {
	f := &LoginForm{}
	assert.False(t, f.Validate())
	assert.NotEmpty(t, f.Errors.Get("username"))
	assert.NotEmpty(t, f.Errors.Get("password"))

	f = &LoginForm{Username: "leo", Password: "x"}
	assert.True(t, f.Validate())
	f.Reject()
	assert.Equal(t, []string{MsgBadLogin}, f.Errors.Get("__all__"))
}
