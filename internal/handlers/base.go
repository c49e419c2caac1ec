package handlers

import (
	"net/http"
	"os"

	"quill/internal/middleware"
	"quill/internal/models"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user, exists := c.Get(middleware.CheckUserKey); exists {
		obj["CurrentUser"] = user
		if count, ok := c.Get(middleware.PendingCountKey); ok {
			obj["PendingCount"] = int(count.(int64))
		} else {
			obj["PendingCount"] = 0
		}
	}

	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// HTMX Redirect helper
func HtmxRedirect(c *gin.Context, path string) {
	c.Header("HX-Redirect", path)
	c.Status(http.StatusOK) // HTMX handles the redirect on client side via header
}

// Error helper
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{"Error": message})
}

// CurrentUser returns the user LoadUser put on the context, or nil.
func CurrentUser(c *gin.Context) *models.User {
	val, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// SiteURL returns the absolute base URL used in feeds and emails.
func SiteURL() string {
	if url := os.Getenv("SITE_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}
