package models

import (
	"strings"
	"time"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

type Post struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:200;not null" json:"title" validate:"required,min=3,max=200"`
	Slug          string    `gorm:"uniqueIndex;size:220;not null" json:"slug"`
	Content       string    `gorm:"type:text;not null" json:"content" validate:"required"`
	FeaturedImage string    `gorm:"size:255" json:"featured_image"` // stored media path, optional
	Excerpt       string    `gorm:"size:300" json:"excerpt" validate:"max=300"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	User          User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	CategoryID    *uint     `gorm:"index" json:"category_id"` // nulled when the category is deleted
	Category      *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"category"`
	Status        string    `gorm:"size:10;default:'draft';not null;index" json:"status" validate:"required,oneof=draft published"`
	Views         int       `gorm:"default:0" json:"views"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Filled by list queries, not a database column.
	CommentCount int `gorm:"-" json:"comment_count"`
}

func (p *Post) Published() bool {
	return p.Status == StatusPublished
}

// Validate checks the post against the field constraints before persisting.
func (p *Post) Validate() error {
	return validate.Struct(p)
}

// Summary returns the author-written excerpt, or a plain-text fallback cut
// from the markdown content when no excerpt was provided.
func (p *Post) Summary() string {
	if p.Excerpt != "" {
		return p.Excerpt
	}
	text := p.Content
	for _, mark := range []string{"#", "*", "`", ">", "![", "]("} {
		text = strings.ReplaceAll(text, mark, "")
	}
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > 300 {
		return string(runes[:300]) + "..."
	}
	return text
}
