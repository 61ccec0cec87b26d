package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds discriminate the two JWT flavors; validation rejects a
// token whose kind does not match the expected use.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

type RefreshToken struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     uint      `json:"user_id" gorm:"not null;index"`
	TokenHash  string    `json:"-" gorm:"uniqueIndex;size:255;not null"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"not null;index"`
	Revoked    bool      `json:"revoked" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
	DeviceInfo string    `json:"device_info" gorm:"size:500"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// ClientInfo captures the requesting device for the refresh row; both
// fields may be empty.
type ClientInfo struct {
	IP        string
	UserAgent string
}
