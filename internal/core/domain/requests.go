package domain

import "time"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest is the body of POST /auth/reset-password/:token.
type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// ChangePasswordRequest is the body of POST /auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

// AuthResponse is returned by every successful sign-in.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// SessionInput carries a create or partial-update body. A nil field was not
// supplied and leaves the stored value untouched; zero values are applied.
type SessionInput struct {
	BuyIn          *float64   `json:"buyIn"`
	CashOut        *float64   `json:"cashOut"`
	Tip            *float64   `json:"tip"`
	StartTime      *time.Time `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Duration       *int       `json:"duration"`
	ElapsedSeconds *int64     `json:"elapsedSeconds"`
	GameType       *GameType  `json:"gameType"`
	Stakes         *Stakes    `json:"stakes"`
	Setting        *string    `json:"setting"`
	SessionType    *string    `json:"sessionType"`
	SessionName    *string    `json:"sessionName"`
	Notes          *string    `json:"notes"`
	Photos         *[]string  `json:"photos"`
	IsActive       *bool      `json:"isActive"`
}

// FinishRequest is the body of POST /sessions/:id/finish.
type FinishRequest struct {
	CashOut        *float64 `json:"cashOut" binding:"required"`
	ElapsedSeconds *int64   `json:"elapsedSeconds"`
	Tip            *float64 `json:"tip"`
}

// AmountRequest is the body of the buy-in and tip endpoints.
type AmountRequest struct {
	Amount *float64 `json:"amount" binding:"required"`
}

// FilterQuery is the raw query string of GET /sessions/filter.
type FilterQuery struct {
	ProfitMin   string `form:"profitMin"`
	ProfitMax   string `form:"profitMax"`
	Setting     string `form:"setting"`
	GameType    string `form:"gameType"`
	Stakes      string `form:"stakes"`
	SessionType string `form:"sessionType"`
	StartDate   string `form:"startDate"`
	EndDate     string `form:"endDate"`
	SessionName string `form:"sessionName"`
	SortBy      string `form:"sortBy"`
	Order       string `form:"order"`
	SubtractTip string `form:"subtractTip"`
}
