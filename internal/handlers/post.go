package handlers

import (
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quill/internal/db"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/services"
	"quill/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const postsPerPage = 10

type PostHandler struct {
	mailService *services.MailService
}

func NewPostHandler() *PostHandler {
	return &PostHandler{
		mailService: services.NewMailService(),
	}
}

// fillCommentCounts batch-loads the approved comment count for a page of posts.
func fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	type CountResult struct {
		PostID uint
		Count  int
	}
	var results []CountResult
	db.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ? AND approved = ?", postIDs, true).
		Group("post_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
	}
}

func pageParam(c *gin.Context) int {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum, err := strconv.Atoi(p); err == nil && pageNum > 0 {
			page = pageNum
		}
	}
	return page
}

func totalPages(total int64, perPage int) int {
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	if pages == 0 {
		pages = 1
	}
	return pages
}

// invalidatePostCaches drops the cached detail page and every cached home
// page after a write.
func invalidatePostCaches(slug string) {
	cache := utils.GetCache()
	cache.Delete("post:detail:" + slug)
	cache.DeletePrefix("post:home:")
}

// copyH shallow-copies a payload so per-request values never end up in the
// shared cached map.
func copyH(h gin.H) gin.H {
	out := gin.H{}
	for k, v := range h {
		out[k] = v
	}
	return out
}

// List renders the home page: published posts, newest first.
func (h *PostHandler) List(c *gin.Context) {
	page := pageParam(c)

	cacheKey := fmt.Sprintf("post:home:page:%d", page)
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			Render(c, http.StatusOK, "post/list.html", copyH(hData))
			return
		}
	}

	offset := (page - 1) * postsPerPage

	var total int64
	db.DB.Model(&models.Post{}).Where("status = ?", models.StatusPublished).Count(&total)

	var posts []models.Post
	db.DB.Preload("User").Preload("Category").
		Where("status = ?", models.StatusPublished).
		Order("created_at DESC").
		Limit(postsPerPage).
		Offset(offset).
		Find(&posts)

	fillCommentCounts(posts)

	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	fullURL := SiteURL()
	if page > 1 {
		fullURL = fmt.Sprintf("%s/?page=%d", SiteURL(), page)
	}

	renderData := gin.H{
		"Posts":       posts,
		"Categories":  categories,
		"Active":      "home",
		"Title":       "Latest posts",
		"CurrentPage": page,
		"TotalPages":  totalPages(total, postsPerPage),
		"Description": "A quiet place for long-form writing. Essays, tutorials and notes from our authors.",
		"FullURL":     fullURL,
	}

	utils.GetCache().Set(cacheKey, renderData, 1*time.Minute)

	Render(c, http.StatusOK, "post/list.html", copyH(renderData))
}

// Search finds published posts matching the query in title, content or
// excerpt. Case-insensitive, capped at 50 results.
func (h *PostHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	var posts []models.Post
	if query != "" {
		searchPattern := "%" + strings.ToLower(query) + "%"
		db.DB.Preload("User").Preload("Category").
			Where("status = ?", models.StatusPublished).
			Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ? OR LOWER(excerpt) LIKE ?",
				searchPattern, searchPattern, searchPattern).
			Order("created_at DESC").
			Limit(50).
			Find(&posts)
	}

	fillCommentCounts(posts)

	Render(c, http.StatusOK, "search.html", gin.H{
		"Posts":       posts,
		"Query":       query,
		"Active":      "search",
		"Title":       "Search",
		"Description": fmt.Sprintf("Search results for %q", query),
		"FullURL":     fmt.Sprintf("%s/search?q=%s", SiteURL(), query),
	})
}

// Detail renders a single post by slug. Drafts are only visible to their
// author and admins.
func (h *PostHandler) Detail(c *gin.Context) {
	slug := c.Param("slug")
	user := CurrentUser(c)

	cacheKey := "post:detail:" + slug
	if cachedData := utils.GetCache().Get(cacheKey); cachedData != nil {
		if hData, ok := cachedData.(gin.H); ok {
			if post, ok := hData["Post"].(models.Post); ok {
				db.DB.Model(&models.Post{}).Where("id = ?", post.ID).
					UpdateColumn("views", gorm.Expr("views + 1"))

				data := copyH(hData)
				h.injectViewerData(c, data, &post, user)
				Render(c, http.StatusOK, "post/detail.html", data)
				return
			}
		}
	}

	var post models.Post
	if err := db.DB.Preload("User").Preload("Category").Where("slug = ?", slug).First(&post).Error; err != nil {
		RenderError(c, http.StatusNotFound, "This post does not exist")
		return
	}

	if !post.Published() {
		if user == nil || (user.ID != post.UserID && !user.IsAdmin()) {
			RenderError(c, http.StatusNotFound, "This post does not exist")
			return
		}
		// Draft preview for the author, never cached
		data := h.buildDetailData(&post)
		h.injectViewerData(c, data, &post, user)
		Render(c, http.StatusOK, "post/detail.html", data)
		return
	}

	db.DB.Model(&post).UpdateColumn("views", gorm.Expr("views + 1"))
	post.Views++

	data := h.buildDetailData(&post)
	utils.GetCache().Set(cacheKey, data, 5*time.Minute)

	rendered := copyH(data)
	h.injectViewerData(c, rendered, &post, user)
	Render(c, http.StatusOK, "post/detail.html", rendered)
}

// buildDetailData assembles the shared, cacheable payload of a detail page.
func (h *PostHandler) buildDetailData(post *models.Post) gin.H {
	var comments []models.Comment
	db.DB.Preload("User").
		Where("post_id = ? AND approved = ?", post.ID, true).
		Order("created_at ASC").
		Find(&comments)

	type RenderedComment struct {
		models.Comment
		ContentHTML template.HTML
	}

	renderedComments := make([]RenderedComment, len(comments))
	for i, com := range comments {
		renderedComments[i] = RenderedComment{
			Comment:     com,
			ContentHTML: utils.RenderMarkdown(com.Content),
		}
	}
	post.CommentCount = len(comments)

	var prevPost models.Post
	hasPrev := db.DB.Select("slug, title").
		Where("status = ? AND created_at < ?", models.StatusPublished, post.CreatedAt).
		Order("created_at DESC").
		First(&prevPost).Error == nil

	var nextPost models.Post
	hasNext := db.DB.Select("slug, title").
		Where("status = ? AND created_at > ?", models.StatusPublished, post.CreatedAt).
		Order("created_at ASC").
		First(&nextPost).Error == nil

	imageURL := post.FeaturedImage
	if imageURL != "" && !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		imageURL = strings.TrimSuffix(SiteURL(), "/") + imageURL
	}

	return gin.H{
		"Post":          *post,
		"PostContent":   utils.RenderMarkdown(post.Content),
		"Comments":      renderedComments,
		"Title":         post.Title,
		"Description":   post.Summary(),
		"FullURL":       fmt.Sprintf("%s/post/%s", SiteURL(), post.Slug),
		"ImageURL":      imageURL,
		"Author":        post.User.Username,
		"PublishedTime": post.CreatedAt.Format(time.RFC3339),
		"ModifiedTime":  post.UpdatedAt.Format(time.RFC3339),
		"HasPrev":       hasPrev,
		"PrevPost":      prevPost,
		"HasNext":       hasNext,
		"NextPost":      nextPost,
	}
}

// injectViewerData adds the values that vary per request: edit rights, the
// viewer's own comments still in the moderation queue, and the post-comment
// notice.
func (h *PostHandler) injectViewerData(c *gin.Context, data gin.H, post *models.Post, user *models.User) {
	canEdit := false
	var pending []models.Comment
	if user != nil {
		canEdit = user.ID == post.UserID || user.IsAdmin()
		db.DB.Preload("User").
			Where("post_id = ? AND user_id = ? AND approved = ?", post.ID, user.ID, false).
			Order("created_at ASC").
			Find(&pending)
	}
	data["CanEdit"] = canEdit
	data["PendingComments"] = pending
	data["Commented"] = c.Query("commented") == "1"
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "post/create.html", gin.H{
		"Title":      "Write a post",
		"Categories": categories,
	})
}

// postForm reads the shared fields of the create and edit forms.
func (h *PostHandler) postForm(c *gin.Context) (title, content, excerpt, status string, categoryID *uint) {
	title = strings.TrimSpace(c.PostForm("title"))
	content = c.PostForm("content")
	excerpt = strings.TrimSpace(c.PostForm("excerpt"))
	status = c.PostForm("status")
	if status == "" {
		status = models.StatusDraft
	}
	if idStr := c.PostForm("category_id"); idStr != "" {
		if id, err := strconv.Atoi(idStr); err == nil && id > 0 {
			uid := uint(id)
			categoryID = &uid
		}
	}
	return
}

// saveFeaturedImage stores an uploaded cover image if one was submitted.
// Returns the stored URL, or "" when the form had no file.
func (h *PostHandler) saveFeaturedImage(c *gin.Context) (string, error) {
	file, header, err := c.Request.FormFile("featured_image")
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return "", nil
		}
		return "", err
	}
	defer file.Close()

	result, err := services.SaveImage(file, header)
	if err != nil {
		return "", err
	}
	return result.URL, nil
}

// categoryIDValue unwraps the nullable category FK for template selects.
func categoryIDValue(id *uint) uint {
	if id == nil {
		return 0
	}
	return *id
}

func (h *PostHandler) createError(c *gin.Context, code int, message string, post *models.Post) {
	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)
	Render(c, code, "post/create.html", gin.H{
		"Error":              message,
		"Title":              "Write a post",
		"Categories":         categories,
		"Post":               post,
		"SelectedCategoryID": categoryIDValue(post.CategoryID),
	})
}

func (h *PostHandler) Create(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)

	title, content, excerpt, status, categoryID := h.postForm(c)

	post := models.Post{
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		Status:     status,
		CategoryID: categoryID,
		UserID:     user.ID,
	}

	post.Slug = utils.UniqueSlug(title, func(s string) bool {
		var count int64
		db.DB.Model(&models.Post{}).Where("slug = ?", s).Count(&count)
		return count > 0
	})

	if err := post.Validate(); err != nil {
		h.createError(c, http.StatusBadRequest, "Please fill in a title and some content", &post)
		return
	}

	imageURL, err := h.saveFeaturedImage(c)
	if err != nil {
		h.createError(c, http.StatusBadRequest, "Cover image upload failed: "+err.Error(), &post)
		return
	}
	post.FeaturedImage = imageURL

	if err := db.DB.Create(&post).Error; err != nil {
		h.createError(c, http.StatusInternalServerError, "Could not save the post", &post)
		return
	}

	if post.Published() {
		utils.GetCache().DeletePrefix("post:home:")
	}

	c.Redirect(http.StatusFound, "/post/"+post.Slug)
}

// loadEditable fetches a post and checks the current user may change it.
func (h *PostHandler) loadEditable(c *gin.Context) (*models.Post, *models.User, bool) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Preload("User").Where("slug = ?", slug).First(&post).Error; err != nil {
		RenderError(c, http.StatusNotFound, "This post does not exist")
		return nil, nil, false
	}

	if post.UserID != user.ID && !user.IsAdmin() {
		RenderError(c, http.StatusForbidden, "You cannot edit this post")
		return nil, nil, false
	}
	return &post, user, true
}

func (h *PostHandler) ShowEdit(c *gin.Context) {
	post, _, ok := h.loadEditable(c)
	if !ok {
		return
	}

	var categories []models.Category
	db.DB.Order("name ASC").Find(&categories)

	Render(c, http.StatusOK, "post/edit.html", gin.H{
		"Title":              "Edit post",
		"Post":               post,
		"Categories":         categories,
		"SelectedCategoryID": categoryIDValue(post.CategoryID),
	})
}

func (h *PostHandler) Update(c *gin.Context) {
	post, _, ok := h.loadEditable(c)
	if !ok {
		return
	}

	title, content, excerpt, status, categoryID := h.postForm(c)

	editError := func(code int, message string) {
		var categories []models.Category
		db.DB.Order("name ASC").Find(&categories)
		Render(c, code, "post/edit.html", gin.H{
			"Error":              message,
			"Title":              "Edit post",
			"Post":               post,
			"Categories":         categories,
			"SelectedCategoryID": categoryIDValue(post.CategoryID),
		})
	}

	// The slug never changes on edit, published URLs stay stable
	post.Title = title
	post.Content = content
	post.Excerpt = excerpt
	post.Status = status
	post.CategoryID = categoryID

	if err := post.Validate(); err != nil {
		editError(http.StatusBadRequest, "Please fill in a title and some content")
		return
	}

	imageURL, err := h.saveFeaturedImage(c)
	if err != nil {
		editError(http.StatusBadRequest, "Cover image upload failed: "+err.Error())
		return
	}
	if imageURL != "" {
		post.FeaturedImage = imageURL
	} else if c.PostForm("remove_image") == "1" {
		post.FeaturedImage = ""
	}

	if err := db.DB.Save(post).Error; err != nil {
		editError(http.StatusInternalServerError, "Could not save the post")
		return
	}

	invalidatePostCaches(post.Slug)

	c.Redirect(http.StatusFound, "/post/"+post.Slug)
}

// Delete removes a post. Called over HTMX from the detail page and the
// dashboard list.
func (h *PostHandler) Delete(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Where("slug = ?", slug).First(&post).Error; err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if post.UserID != user.ID && !user.IsAdmin() {
		c.Status(http.StatusForbidden)
		return
	}

	// Hard delete, comments go with the post
	db.DB.Unscoped().Delete(&post)

	invalidatePostCaches(post.Slug)

	redirect := c.GetHeader("HX-Current-URL")
	if strings.Contains(redirect, "/post/") {
		// Deleting from the detail page, send the viewer home
		c.Header("HX-Redirect", "/")
	}
	c.Status(http.StatusOK)
}

// CreateComment stores a comment in the moderation queue and tells the post
// author about it by email.
func (h *PostHandler) CreateComment(c *gin.Context) {
	user := c.MustGet(middleware.CheckUserKey).(*models.User)
	slug := c.Param("slug")

	var post models.Post
	if err := db.DB.Preload("User").Where("slug = ? AND status = ?", slug, models.StatusPublished).First(&post).Error; err != nil {
		c.Redirect(http.StatusFound, "/")
		return
	}

	content := strings.TrimSpace(c.PostForm("content"))

	comment := models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: content,
	}
	if err := comment.Validate(); err != nil {
		c.Redirect(http.StatusFound, "/post/"+slug+"#comments")
		return
	}

	if err := db.DB.Create(&comment).Error; err != nil {
		RenderError(c, http.StatusInternalServerError, "Could not save your comment")
		return
	}

	utils.GetCache().Delete("post:detail:" + slug)

	if post.UserID != user.ID {
		postLink := fmt.Sprintf("%s/post/%s#comments", SiteURL(), post.Slug)
		h.mailService.SendCommentNotification(post.User.Email, user.Username, post.Title, content, postLink)
	}

	c.Redirect(http.StatusFound, "/post/"+slug+"?commented=1#comments")
}
