package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxImageSize caps uploads at 10 MB.
const MaxImageSize = 10 << 20

var imageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageUploadResult describes a stored upload.
type ImageUploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadDir returns the directory uploads are written to.
func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("web", "uploads")
}

// SaveImage validates an uploaded image and stores it on local disk under a
// random name, returning its public /media URL. The content type is sniffed
// from the file bytes, not taken from the filename.
func SaveImage(file multipart.File, header *multipart.FileHeader) (*ImageUploadResult, error) {
	if header.Size > MaxImageSize {
		return nil, fmt.Errorf("image exceeds %dMB limit", MaxImageSize>>20)
	}

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageExts[contentType]
	if !ok {
		return nil, fmt.Errorf("unsupported image type %s", contentType)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	dir := UploadDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	return &ImageUploadResult{
		URL:      "/media/" + name,
		Filename: name,
	}, nil
}
