package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostString(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"long latin text", "Lorem ipsum dolor sit amet", "Lorem ipsum dol"},
		{"short text", "Hi there", "Hi there"},
		{"exactly fifteen", "123456789012345", "123456789012345"},
		{"cyrillic text is cut by characters", "Тестовый текст для проверки", "Тестовый текст "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Post{Text: tt.text}
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestGroupString(t *testing.T) {
	g := &Group{Title: "Тестовая группа", Slug: "test-slug"}
	assert.Equal(t, "Тестовая группа", g.String())
}

func TestPostIsAuthoredBy(t *testing.T) {
	id := uint(7)
	p := &Post{AuthorID: &id}
	assert.True(t, p.IsAuthoredBy(7))
	assert.False(t, p.IsAuthoredBy(8))
	assert.False(t, (&Post{}).IsAuthoredBy(7))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "auth", (&User{Username: "auth"}).DisplayName())
	assert.Equal(t, "Leo Tolstoy", (&User{Username: "leo", FirstName: "Leo", LastName: "Tolstoy"}).DisplayName())
}

func TestAppErrorHelpers(t *testing.T) {
	wrapped := fmt.Errorf("loading post: %w", NewNotFoundError("post", 42))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsUnauthorized(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))

	internal := NewInternalError(errors.New("boom"))
	assert.Equal(t, "Internal server error: boom", internal.Error())
	assert.EqualError(t, errors.Unwrap(internal), "boom")
}
