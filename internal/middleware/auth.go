package middleware

import (
	"net/http"

	"quill/internal/db"
	"quill/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const CheckUserKey = "user"
const PendingCountKey = "pending_count"

// LoadUser retrieves the logged-in user from the session and sets it on the
// context. For admins it also counts comments waiting for moderation, shown
// as a badge in the navigation.
func LoadUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")

		if userID != nil {
			var user models.User
			result := db.DB.First(&user, userID)
			if result.Error == nil {
				c.Set(CheckUserKey, &user)

				if user.IsAdmin() {
					var count int64
					db.DB.Model(&models.Comment{}).Where("approved = ?", false).Count(&count)
					c.Set(PendingCountKey, count)
				}
			}
		}
		c.Next()
	}
}

// AuthRequired ensures a user is logged in
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get("user_id") == nil {
			c.Redirect(http.StatusFound, "/login?next="+c.Request.URL.Path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired ensures the loaded user has the admin role. Must run after
// LoadUser.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(CheckUserKey)
		user, ok := val.(*models.User)
		if !exists || !ok || !user.IsAdmin() {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}
