package handlers

import (
	"net/http"
	"strings"

	"quill/internal/db"
	"quill/internal/models"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
)

const adminPerPage = 20

// AdminHandler serves the moderation area. Every route is behind the
// AdminRequired middleware.
type AdminHandler struct{}

func NewAdminHandler() *AdminHandler {
	return &AdminHandler{}
}

// Dashboard shows site totals and the newest comments waiting for review.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	var postCount, publishedCount, draftCount int64
	db.DB.Model(&models.Post{}).Count(&postCount)
	db.DB.Model(&models.Post{}).Where("status = ?", models.StatusPublished).Count(&publishedCount)
	db.DB.Model(&models.Post{}).Where("status = ?", models.StatusDraft).Count(&draftCount)

	var commentCount, pendingCount int64
	db.DB.Model(&models.Comment{}).Count(&commentCount)
	db.DB.Model(&models.Comment{}).Where("approved = ?", false).Count(&pendingCount)

	var userCount, categoryCount int64
	db.DB.Model(&models.User{}).Count(&userCount)
	db.DB.Model(&models.Category{}).Count(&categoryCount)

	var pendingComments []models.Comment
	db.DB.Preload("User").Preload("Post").
		Where("approved = ?", false).
		Order("created_at DESC").
		Limit(5).
		Find(&pendingComments)

	Render(c, http.StatusOK, "admin/dashboard.html", gin.H{
		"Title":           "Admin",
		"PostCount":       postCount,
		"PublishedCount":  publishedCount,
		"DraftCount":      draftCount,
		"CommentCount":    commentCount,
		"PendingCount":    pendingCount,
		"UserCount":       userCount,
		"CategoryCount":   categoryCount,
		"PendingComments": pendingComments,
	})
}

// ListPosts shows every post with status filter, title search and pagination.
func (h *AdminHandler) ListPosts(c *gin.Context) {
	status := c.Query("status")
	query := strings.TrimSpace(c.Query("q"))
	page := pageParam(c)

	tx := db.DB.Model(&models.Post{})
	if status == models.StatusDraft || status == models.StatusPublished {
		tx = tx.Where("status = ?", status)
	}
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		tx = tx.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(excerpt) LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	tx.Count(&total)

	var posts []models.Post
	tx.Preload("User").Preload("Category").
		Order("created_at DESC").
		Limit(adminPerPage).
		Offset((page - 1) * adminPerPage).
		Find(&posts)

	Render(c, http.StatusOK, "admin/posts.html", gin.H{
		"Title":       "Posts",
		"Posts":       posts,
		"Status":      status,
		"Query":       query,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, adminPerPage),
	})
}

// TogglePostStatus flips a post between draft and published.
func (h *AdminHandler) TogglePostStatus(c *gin.Context) {
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	newStatus := models.StatusPublished
	if post.Published() {
		newStatus = models.StatusDraft
	}
	db.DB.Model(&post).Update("status", newStatus)

	invalidatePostCaches(post.Slug)

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// DeletePost removes a post and its comments.
func (h *AdminHandler) DeletePost(c *gin.Context) {
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Unscoped().Delete(&post)

	invalidatePostCaches(post.Slug)

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// ListComments shows the moderation queue, or every comment with ?filter=all.
func (h *AdminHandler) ListComments(c *gin.Context) {
	filter := c.DefaultQuery("filter", "pending")
	page := pageParam(c)

	tx := db.DB.Model(&models.Comment{})
	if filter != "all" {
		tx = tx.Where("approved = ?", false)
	}

	var total int64
	tx.Count(&total)

	var comments []models.Comment
	tx.Preload("User").Preload("Post").
		Order("created_at ASC").
		Limit(adminPerPage).
		Offset((page - 1) * adminPerPage).
		Find(&comments)

	Render(c, http.StatusOK, "admin/comments.html", gin.H{
		"Title":       "Comments",
		"Comments":    comments,
		"Filter":      filter,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, adminPerPage),
	})
}

// ApproveComment releases one comment from the moderation queue.
func (h *AdminHandler) ApproveComment(c *gin.Context) {
	id := c.Param("id")

	var comment models.Comment
	if err := db.DB.Preload("Post").First(&comment, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Model(&comment).Update("approved", true)

	utils.GetCache().Delete("post:detail:" + comment.Post.Slug)

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// ApproveAllComments releases the whole queue at once.
func (h *AdminHandler) ApproveAllComments(c *gin.Context) {
	db.DB.Model(&models.Comment{}).Where("approved = ?", false).Update("approved", true)

	utils.GetCache().DeletePrefix("post:detail:")

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// DeleteComment removes a comment outright.
func (h *AdminHandler) DeleteComment(c *gin.Context) {
	id := c.Param("id")

	var comment models.Comment
	if err := db.DB.Preload("Post").First(&comment, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Unscoped().Delete(&comment)

	utils.GetCache().Delete("post:detail:" + comment.Post.Slug)

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// ListCategories shows all categories with post counts and the create form.
func (h *AdminHandler) ListCategories(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	fillPostCounts(categories)

	Render(c, http.StatusOK, "admin/categories.html", gin.H{
		"Title":      "Categories",
		"Categories": categories,
		"Error":      c.Query("error") == "1",
	})
}

func (h *AdminHandler) CreateCategory(c *gin.Context) {
	category := models.Category{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
	}

	category.Slug = utils.UniqueSlug(category.Name, func(s string) bool {
		var count int64
		db.DB.Model(&models.Category{}).Where("slug = ?", s).Count(&count)
		return count > 0
	})

	if err := category.Validate(); err != nil {
		c.Redirect(http.StatusFound, "/admin/categories?error=1")
		return
	}

	if err := db.DB.Create(&category).Error; err != nil {
		c.Redirect(http.StatusFound, "/admin/categories?error=1")
		return
	}

	c.Redirect(http.StatusFound, "/admin/categories")
}

// UpdateCategory renames a category. The slug stays stable so links keep
// working.
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id := c.Param("id")

	var category models.Category
	if err := db.DB.First(&category, id).Error; err != nil {
		c.Redirect(http.StatusFound, "/admin/categories?error=1")
		return
	}

	category.Name = strings.TrimSpace(c.PostForm("name"))
	category.Description = strings.TrimSpace(c.PostForm("description"))

	if err := category.Validate(); err != nil {
		c.Redirect(http.StatusFound, "/admin/categories?error=1")
		return
	}

	if err := db.DB.Save(&category).Error; err != nil {
		c.Redirect(http.StatusFound, "/admin/categories?error=1")
		return
	}

	utils.GetCache().DeletePrefix("post:")

	c.Redirect(http.StatusFound, "/admin/categories")
}

// DeleteCategory removes a category. Its posts survive with no category.
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id := c.Param("id")

	var category models.Category
	if err := db.DB.First(&category, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	db.DB.Unscoped().Delete(&category)

	utils.GetCache().DeletePrefix("post:")

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// ListUsers shows every account with post counts.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page := pageParam(c)

	var total int64
	db.DB.Model(&models.User{}).Count(&total)

	var users []models.User
	db.DB.Order("created_at ASC").
		Limit(adminPerPage).
		Offset((page - 1) * adminPerPage).
		Find(&users)

	Render(c, http.StatusOK, "admin/users.html", gin.H{
		"Title":       "Users",
		"Users":       users,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, adminPerPage),
	})
}

// ToggleUserRole promotes a user to admin or back. Admins cannot demote
// themselves, the site always keeps at least one admin.
func (h *AdminHandler) ToggleUserRole(c *gin.Context) {
	current := CurrentUser(c)
	id := c.Param("id")

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if current != nil && current.ID == user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	newRole := models.RoleAdmin
	if user.IsAdmin() {
		newRole = models.RoleUser
	}
	db.DB.Model(&user).Update("role", newRole)

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}

// DeleteUser removes an account. Posts and comments cascade away with it.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	current := CurrentUser(c)
	id := c.Param("id")

	var user models.User
	if err := db.DB.First(&user, id).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if current != nil && current.ID == user.ID {
		c.Status(http.StatusForbidden)
		return
	}

	db.DB.Unscoped().Delete(&user)

	utils.GetCache().DeletePrefix("post:")

	c.Header("HX-Refresh", "true")
	c.Status(http.StatusOK)
}
