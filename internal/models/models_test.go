package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserValidate(t *testing.T) {
	user := User{Username: "frieda", Email: "frieda@example.com", Password: "hash", Role: RoleUser}
	assert.NoError(t, user.Validate())

	user.Email = "not-an-email"
	assert.Error(t, user.Validate())

	user.Email = "frieda@example.com"
	user.Username = "f"
	assert.Error(t, user.Validate())
}

func TestUserIsAdmin(t *testing.T) {
	assert.False(t, (&User{Role: RoleUser}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}

func TestPostValidate(t *testing.T) {
	post := Post{Title: "A fine title", Content: "With some content.", Status: StatusDraft}
	assert.NoError(t, post.Validate())

	post.Status = "archived"
	assert.Error(t, post.Validate())

	post.Status = StatusPublished
	post.Title = "ab"
	assert.Error(t, post.Validate())

	post.Title = "A fine title"
	post.Content = ""
	assert.Error(t, post.Validate())
}

func TestPostPublished(t *testing.T) {
	assert.True(t, (&Post{Status: StatusPublished}).Published())
	assert.False(t, (&Post{Status: StatusDraft}).Published())
}

func TestPostSummary(t *testing.T) {
	post := Post{Excerpt: "Hand-written summary", Content: "# Ignored"}
	assert.Equal(t, "Hand-written summary", post.Summary())

	post = Post{Content: "# Heading\n\nSome **bold** text"}
	summary := post.Summary()
	assert.NotContains(t, summary, "#")
	assert.NotContains(t, summary, "*")
	assert.Contains(t, summary, "Heading")
	assert.Contains(t, summary, "bold")

	post = Post{Content: strings.Repeat("word ", 100)}
	summary = post.Summary()
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.LessOrEqual(t, len([]rune(summary)), 303)
}

func TestCommentValidate(t *testing.T) {
	comment := Comment{PostID: 1, UserID: 1, Content: "Nice post!"}
	assert.NoError(t, comment.Validate())

	comment.Content = "a"
	assert.Error(t, comment.Validate())

	comment.Content = ""
	assert.Error(t, comment.Validate())
}

func TestCategoryValidate(t *testing.T) {
	category := Category{Name: "Essays", Slug: "essays"}
	assert.NoError(t, category.Validate())

	category.Name = ""
	assert.Error(t, category.Validate())
}
