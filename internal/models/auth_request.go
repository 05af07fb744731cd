package models

// SignupRequest represents the request body for user registration
type SignupRequest struct {
	Email          string  `json:"email" binding:"required,email"`
	Password       string  `json:"password" binding:"required,min=6,password"`
	Name           *string `json:"name,omitempty" binding:"omitempty,max=100"`
	ProfilePicture *string `json:"profilePicture,omitempty" binding:"omitempty,max=2048"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest carries a partial profile update. A password change
// needs both currentPassword and newPassword.
type UpdateProfileRequest struct {
	Name            *string `json:"name,omitempty" binding:"omitempty,max=100"`
	ProfilePicture  *string `json:"profilePicture,omitempty" binding:"omitempty,max=2048"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty" binding:"omitempty,min=6,password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otp"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,otp"`
	NewPassword string `json:"newPassword" binding:"required,min=6,password"`
}
