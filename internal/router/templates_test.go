package router

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Stripped-down templates that print their data as flat markers, so route
// tests can assert on page content without the real markup.
const fixtureBase = `{{if .Title}}title[{{.Title}}] {{end}}{{if .CurrentUser}}viewer[{{.CurrentUser.Username}}] {{end}}{{if .PendingCount}}badge[{{.PendingCount}}] {{end}}{{block "content" .}}{{end}}`

var fixtureViews = map[string]string{
	"auth/login.html":           `{{define "content"}}login-page{{if .Error}} error[{{.Error}}]{{end}}{{if .Success}} success[{{.Success}}]{{end}}{{if .Next}} next[{{.Next}}]{{end}}{{end}}`,
	"auth/register.html":        `{{define "content"}}signup-page captcha[{{.Captcha}}]{{if .Error}} error[{{.Error}}]{{end}}{{end}}`,
	"auth/forgot_password.html": `{{define "content"}}forgot-page captcha[{{.Captcha}}]{{if .Error}} error[{{.Error}}]{{end}}{{end}}`,
	"auth/reset_password.html":  `{{define "content"}}reset-page{{if .Email}} email[{{.Email}}]{{end}}{{if .Error}} error[{{.Error}}]{{end}}{{if .Success}} success[{{.Success}}]{{end}}{{end}}`,
	"post/list.html":            `{{define "content"}}{{if .Category}}category[{{.Category.Name}}] {{end}}{{range .Posts}}[post:{{.Title}}]{{end}} page[{{.CurrentPage}}/{{.TotalPages}}]{{end}}`,
	"post/detail.html":          `{{define "content"}}post[{{.Post.Title}}] status[{{.Post.Status}}] views[{{.Post.Views}}] comments[{{.Post.CommentCount}}] {{.PostContent}}{{range .Comments}}<approved>{{.ContentHTML}}</approved>{{end}}{{range .PendingComments}}<pending>{{.Content}}</pending>{{end}}{{if .CanEdit}} can-edit{{end}}{{if .Commented}} comment-received{{end}}{{end}}`,
	"post/create.html":          `{{define "content"}}create-form categories[{{len .Categories}}]{{if .Error}} error[{{.Error}}]{{end}}{{end}}`,
	"post/edit.html":            `{{define "content"}}edit-form post[{{.Post.Title}}]{{if .Error}} error[{{.Error}}]{{end}}{{end}}`,
	"category/list.html":        `{{define "content"}}category-index{{range .Categories}}[cat:{{.Name}}:{{.PostCount}}]{{end}}{{end}}`,
	"author/profile.html":       `{{define "content"}}author[{{.Author.Username}}]{{range .Posts}}[post:{{.Title}}]{{end}}{{end}}`,
	"dashboard/overview.html":   `{{define "content"}}dashboard published[{{.PublishedCount}}] drafts[{{.DraftCount}}]{{range .Posts}}[mine:{{.Title}}:{{.Status}}:{{.CommentCount}}]{{end}}{{end}}`,
	"dashboard/settings.html":   `{{define "content"}}settings user[{{.User.Username}}]{{if .Error}} error[{{.Error}}]{{end}}{{if .Success}} saved{{end}}{{end}}`,
	"admin/dashboard.html":      `{{define "content"}}admin posts[{{.PostCount}}] published[{{.PublishedCount}}] drafts[{{.DraftCount}}] comments[{{.CommentCount}}] pending[{{.PendingCount}}] users[{{.UserCount}}] categories[{{.CategoryCount}}]{{range .PendingComments}}<queue>{{.Content}}</queue>{{end}}{{end}}`,
	"admin/posts.html":          `{{define "content"}}admin-posts{{range .Posts}}[post:{{.Title}}:{{.Status}}]{{end}} page[{{.CurrentPage}}/{{.TotalPages}}]{{end}}`,
	"admin/comments.html":       `{{define "content"}}admin-comments filter[{{.Filter}}]{{range .Comments}}[comment:{{.Content}}:{{.Approved}}]{{end}}{{end}}`,
	"admin/categories.html":     `{{define "content"}}admin-categories{{if .Error}} create-error{{end}}{{range .Categories}}[cat:{{.Name}}:{{.PostCount}}]{{end}}{{end}}`,
	"admin/users.html":          `{{define "content"}}admin-users{{range .Users}}[user:{{.Username}}:{{.Role}}]{{end}}{{end}}`,
	"search.html":               `{{define "content"}}search q[{{.Query}}]{{range .Posts}}[post:{{.Title}}]{{end}}{{end}}`,
	"error.html":                `{{define "content"}}error-page [{{.Error}}]{{end}}`,
}

func writeFixtureTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "layouts"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "layouts", "base.html"), []byte(fixtureBase), 0644))

	for _, view := range views {
		body, ok := fixtureViews[view]
		require.True(t, ok, "no fixture for view %s", view)

		path := filepath.Join(dir, "views", filepath.FromSlash(view))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	}

	return dir
}

func TestLoadTemplates(t *testing.T) {
	renderer := LoadTemplates(writeFixtureTemplates(t))

	render, ok := renderer.(multitemplate.Render)
	require.True(t, ok)
	for _, view := range views {
		assert.Contains(t, render, view)
	}
}

func TestFuncMapHelpers(t *testing.T) {
	funcs := FuncMap()

	t.Run("timeAgo", func(t *testing.T) {
		timeAgo := funcs["timeAgo"].(func(interface{}) string)
		assert.Equal(t, "just now", timeAgo(time.Now()))
		assert.Equal(t, "5m ago", timeAgo(time.Now().Add(-5*time.Minute)))
		assert.Equal(t, "3h ago", timeAgo(time.Now().Add(-3*time.Hour)))
		assert.Equal(t, "2d ago", timeAgo(time.Now().Add(-48*time.Hour)))
		assert.Equal(t, "", timeAgo("not a time"))
	})

	t.Run("fmtDate", func(t *testing.T) {
		fmtDate := funcs["fmtDate"].(func(time.Time) string)
		assert.Equal(t, "Mar 9, 2024", fmtDate(time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)))
	})

	t.Run("truncate", func(t *testing.T) {
		truncate := funcs["truncate"].(func(string, int) string)
		assert.Equal(t, "hello", truncate("hello", 10))
		assert.Equal(t, "hel...", truncate("hello", 3))
	})

	t.Run("stripHTML", func(t *testing.T) {
		strip := funcs["stripHTML"].(func(string) string)
		assert.Equal(t, "bold move", strip("<b>bold</b> move"))
		assert.Equal(t, "a & b", strip("a &amp; b"))
	})

	t.Run("dict", func(t *testing.T) {
		dict := funcs["dict"].(func(...interface{}) (map[string]interface{}, error))
		m, err := dict("a", 1, "b", "two")
		require.NoError(t, err)
		assert.Equal(t, 1, m["a"])
		assert.Equal(t, "two", m["b"])

		_, err = dict("odd")
		assert.Error(t, err)

		_, err = dict(1, "notastringkey")
		assert.Error(t, err)
	})

	t.Run("add", func(t *testing.T) {
		add := funcs["add"].(func(int, int) int)
		assert.Equal(t, 5, add(2, 3))
		assert.Equal(t, 1, add(2, -1))
	})
}
