package models

import (
	"time"
)

type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"post"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Content   string    `gorm:"type:text;not null" json:"content" validate:"required,min=2,max=2000"`
	Approved  bool      `gorm:"default:false;index" json:"approved"` // held for moderation until set
	CreatedAt time.Time `json:"created_at"`
}

func (c *Comment) Validate() error {
	return validate.Struct(c)
}
