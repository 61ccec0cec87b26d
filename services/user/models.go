package user

import (
	"time"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

type User struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Email         string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash  string     `json:"-" gorm:"size:255"`
	FirstName     string     `json:"first_name,omitempty" gorm:"size:100"`
	LastName      string     `json:"last_name,omitempty" gorm:"size:100"`
	Role          string     `json:"role" gorm:"size:50;not null;default:user"`
	Provider      string     `json:"provider" gorm:"size:50;not null;default:local"`
	ProviderID    string     `json:"-" gorm:"size:255"`
	Active        bool       `json:"active" gorm:"not null;default:true"`
	EmailVerified bool       `json:"email_verified" gorm:"not null;default:false"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// HasPassword reports whether local credential login is possible.
// OAuth-only accounts carry no password hash.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
