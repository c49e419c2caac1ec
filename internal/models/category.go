package models

import (
	"time"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null;unique" json:"name" validate:"required,min=2,max=50"`
	Slug        string    `gorm:"uniqueIndex;size:60;not null" json:"slug"`
	Description string    `gorm:"size:300" json:"description" validate:"max=300"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Filled when listing categories, not a database column.
	PostCount int `gorm:"-" json:"post_count"`
}

func (c *Category) Validate() error {
	return validate.Struct(c)
}
