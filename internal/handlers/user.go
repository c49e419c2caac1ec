package handlers

import (
	"net/http"

	"quill/internal/db"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// AuthorProfile is the public author page at /author/:id. Only published
// posts are listed.
func (h *UserHandler) AuthorProfile(c *gin.Context) {
	userID := c.Param("id")

	var author models.User
	if err := db.DB.First(&author, userID).Error; err != nil {
		RenderError(c, http.StatusNotFound, "This author does not exist")
		return
	}

	var posts []models.Post
	db.DB.Preload("Category").Preload("User").
		Where("user_id = ? AND status = ?", author.ID, models.StatusPublished).
		Order("created_at DESC").
		Limit(50).
		Find(&posts)

	fillCommentCounts(posts)

	Render(c, http.StatusOK, "author/profile.html", gin.H{
		"Title":       "Posts by " + author.Username,
		"Author":      author,
		"Posts":       posts,
		"Description": author.Bio,
		"FullURL":     SiteURL() + "/author/" + userID,
	})
}

// Dashboard lists the logged-in user's own posts, drafts included.
func (h *UserHandler) Dashboard(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	var posts []models.Post
	db.DB.Preload("Category").Preload("User").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&posts)

	fillCommentCounts(posts)

	var publishedCount, draftCount, commentCount int64
	db.DB.Model(&models.Post{}).Where("user_id = ? AND status = ?", user.ID, models.StatusPublished).Count(&publishedCount)
	db.DB.Model(&models.Post{}).Where("user_id = ? AND status = ?", user.ID, models.StatusDraft).Count(&draftCount)
	db.DB.Model(&models.Comment{}).Where("user_id = ?", user.ID).Count(&commentCount)

	Render(c, http.StatusOK, "dashboard/overview.html", gin.H{
		"Title":          "Your posts",
		"User":           user,
		"Posts":          posts,
		"PublishedCount": publishedCount,
		"DraftCount":     draftCount,
		"CommentCount":   commentCount,
	})
}

func (h *UserHandler) ShowSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	Render(c, http.StatusOK, "dashboard/settings.html", gin.H{
		"Title":   "Settings",
		"User":    user,
		"Success": c.Query("success") == "1",
	})
}

func (h *UserHandler) UpdateSettings(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	username := c.PostForm("username")
	email := c.PostForm("email")
	bio := c.PostForm("bio")
	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")

	settingsError := func(code int, message string) {
		Render(c, code, "dashboard/settings.html", gin.H{
			"Error": message,
			"Title": "Settings",
			"User":  user,
		})
	}

	updates := make(map[string]interface{})

	if username != "" && username != user.Username {
		updates["username"] = username
	}

	if email != "" && email != user.Email {
		var existingUser models.User
		if err := db.DB.Where("email = ? AND id != ?", email, user.ID).First(&existingUser).Error; err == nil {
			settingsError(http.StatusBadRequest, "That email is already in use")
			return
		}
		updates["email"] = email
	}

	if bio != user.Bio {
		updates["bio"] = bio
	}

	if oldPassword != "" && newPassword != "" {
		if !utils.CheckPasswordHash(oldPassword, user.Password) {
			settingsError(http.StatusBadRequest, "Current password is wrong")
			return
		}

		if len(newPassword) < 6 {
			settingsError(http.StatusBadRequest, "New password must be at least 6 characters")
			return
		}

		hash, err := utils.HashPassword(newPassword)
		if err != nil {
			settingsError(http.StatusInternalServerError, "Could not update password")
			return
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := db.DB.Model(user).Updates(updates).Error; err != nil {
			settingsError(http.StatusInternalServerError, "Could not save settings")
			return
		}
	}

	c.Redirect(http.StatusFound, "/dashboard/settings?success=1")
}
