package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"quill/internal/services"

	"github.com/gin-gonic/gin"
)

// ImageHandler accepts image uploads from the post editor.
type ImageHandler struct{}

func NewImageHandler() *ImageHandler {
	return &ImageHandler{}
}

// Upload handles POST /api/upload. Login is enforced by the route group.
func (h *ImageHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Choose an image to upload",
		})
		return
	}
	defer file.Close()

	// Quick checks before touching the disk, SaveImage sniffs the real type
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Only image files are allowed",
		})
		return
	}

	if header.Size > services.MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Images cannot be larger than 10MB",
		})
		return
	}

	result, err := services.SaveImage(file, header)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   fmt.Sprintf("Upload failed: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"url":      result.URL,
		"filename": result.Filename,
	})
}
