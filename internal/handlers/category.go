package handlers

import (
	"fmt"
	"net/http"

	"quill/internal/db"
	"quill/internal/models"

	"github.com/gin-gonic/gin"
)

type CategoryHandler struct{}

func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// fillPostCounts loads the published post count per category.
func fillPostCounts(categories []models.Category) {
	if len(categories) == 0 {
		return
	}

	type CountResult struct {
		CategoryID uint
		Count      int
	}
	var results []CountResult
	db.DB.Model(&models.Post{}).
		Select("category_id, COUNT(*) as count").
		Where("category_id IS NOT NULL AND status = ?", models.StatusPublished).
		Group("category_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.CategoryID] = r.Count
	}

	for i := range categories {
		categories[i].PostCount = countMap[categories[i].ID]
	}
}

// List shows every category with its published post count.
func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	fillPostCounts(categories)

	Render(c, http.StatusOK, "category/list.html", gin.H{
		"Categories":  categories,
		"Title":       "Categories",
		"Active":      "categories",
		"Description": "Browse posts by topic.",
		"FullURL":     SiteURL() + "/categories",
	})
}

// Detail lists the published posts in one category, paginated like the home
// page.
func (h *CategoryHandler) Detail(c *gin.Context) {
	slug := c.Param("slug")

	var category models.Category
	if err := db.DB.Where("slug = ?", slug).First(&category).Error; err != nil {
		RenderError(c, http.StatusNotFound, "This category does not exist")
		return
	}

	page := pageParam(c)
	offset := (page - 1) * postsPerPage

	var total int64
	db.DB.Model(&models.Post{}).
		Where("category_id = ? AND status = ?", category.ID, models.StatusPublished).
		Count(&total)

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").
		Where("category_id = ? AND status = ?", category.ID, models.StatusPublished).
		Order("created_at DESC").
		Limit(postsPerPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	fullURL := fmt.Sprintf("%s/category/%s", SiteURL(), category.Slug)
	if page > 1 {
		fullURL = fmt.Sprintf("%s?page=%d", fullURL, page)
	}

	description := fmt.Sprintf("Posts in %s", category.Name)
	if category.Description != "" {
		description = category.Description
	}

	Render(c, http.StatusOK, "post/list.html", gin.H{
		"Posts":       posts,
		"Categories":  categories,
		"Category":    category,
		"Active":      "category",
		"Title":       category.Name,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, postsPerPage),
		"Description": description,
		"FullURL":     fullURL,
	})
}
