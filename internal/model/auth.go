package model

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// RefreshToken rows are immutable once issued; rotation inserts a new
// row and deletes the old one.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	CreatedAt time.Time
}

type LoginRequest struct {
	Email    string `json:"email" example:"user@provider.com"`
	Password string `json:"password" example:"password123"`
}

type RegisterRequest struct {
	Username string `json:"username" example:"john_doe"`
	Email    string `json:"email" example:"john@x.com"`
	Password string `json:"password" example:"password123"`
}

type CloseAccountRequest struct {
	Email    string `json:"email" example:"user@provider.com"`
	Password string `json:"password" example:"password123"`
}

type LoginResponse struct {
	UserID       int64  `json:"userId" example:"1"`
	AccessToken  string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshToken string `json:"refreshToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type TokenResponse struct {
	UserID      int64  `json:"userId" example:"1"`
	AccessToken string `json:"accessToken" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

type LogoutResponse struct {
	Message    string `json:"message" example:"Logged out successfully from 1 devices"`
	Everywhere bool   `json:"everywhere" example:"false"`
}

type CloseAccountResponse struct {
	Message string `json:"message" example:"Account closed successfully. All account data were deleted"`
	UserID  int64  `json:"userId" example:"1"`
}
