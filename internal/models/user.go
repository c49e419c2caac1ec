package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:50;not null" json:"username" validate:"required,min=2,max=50"`
	Email       string    `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string    `gorm:"not null" json:"-"` // bcrypt hash
	Bio         string    `gorm:"size:200" json:"bio" validate:"max=200"`
	Role        string    `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	GoogleID    string    `gorm:"index" json:"google_id"`                      // Google OAuth ID
	GoogleEmail string    `gorm:"index" json:"google_email"`
	VerifyCode  string    `gorm:"size:20" json:"-"` // password reset code
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// No DeletedAt: removing a user hard-deletes and cascades their posts and comments.
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks the user against the field constraints before persisting.
func (u *User) Validate() error {
	return validate.Struct(u)
}
