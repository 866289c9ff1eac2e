package model

import (
	"time"

	"github.com/google/uuid"
)

// LoginRequest はログインAPIのリクエストボディ
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// UserVerificationToken はアカウント有効化用のトークン情報を保持します
type UserVerificationToken struct {
	Token     string    `gorm:"primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (UserVerificationToken) TableName() string {
	return "user_verification_tokens"
}
