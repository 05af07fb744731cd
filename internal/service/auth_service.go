package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"notely-be/internal/apperrors"
	"notely-be/internal/entities"
	"notely-be/internal/jwt"
	"notely-be/internal/mailer"
	"notely-be/internal/metrics"
	"notely-be/internal/models"
	"notely-be/internal/otp"
	"notely-be/internal/password"
	"notely-be/internal/repository"
)

const (
	forgotPasswordMessage = "If an account with that email exists, a verification code has been sent"
	codeVerifiedMessage   = "Verification code accepted"
	passwordResetMessage  = "Password has been reset successfully"
)

// AuthService defines the interface for authentication business logic
type AuthService interface {
	Signup(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Profile(ctx context.Context, userID string) (*models.UserResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error)
	DeleteAccount(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (*models.MessageResponse, error)
	VerifyResetCode(ctx context.Context, req *models.VerifyOTPRequest) (*models.MessageResponse, error)
	ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (*models.MessageResponse, error)
}

type authService struct {
	userRepo   repository.UserRepository
	hasher     password.Hasher
	jwtService *jwt.JWTService
	codes      *otp.Manager
	mailer     mailer.Mailer
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repository.UserRepository,
	hasher password.Hasher,
	jwtService *jwt.JWTService,
	codes *otp.Manager,
	mail mailer.Mailer,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		hasher:     hasher,
		jwtService: jwtService,
		codes:      codes,
		mailer:     mail,
		validate:   models.NewValidator(),
		logger:     logger.Named("auth"),
	}
}

// normalizeEmail trims surrounding whitespace. Addresses are otherwise kept
// and matched exactly as given.
func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// hashPassword maps an over-long password to a field error; validation
// normally catches it before any state changes.
func (s *authService) hashPassword(field, plain string) (string, error) {
	hashed, err := s.hasher.Hash(plain)
	if errors.Is(err, password.ErrTooLong) {
		return "", apperrors.NewValidationError(field, err.Error())
	}
	return hashed, err
}

func (s *authService) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return models.ToValidationError(err)
	}
	return nil
}

// Signup creates a new user account
func (s *authService) Signup(ctx context.Context, req *models.SignupRequest) (*models.UserResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	hashedPassword, err := s.hashPassword("password", req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req.Email, hashedPassword, req.Name, req.ProfilePicture)
	metrics.TrackAuthAttempt("signup", err == nil)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return models.NewUserResponse(user), nil
}

// Login authenticates a user and returns a bearer token. A missing account
// and a wrong password produce the same error.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.hasher.Burn(req.Password)
		metrics.TrackAuthAttempt("login", false)
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		metrics.TrackAuthAttempt("login", false)
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	metrics.TrackAuthAttempt("login", true)
	return &models.LoginResponse{Token: token}, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.NewUserResponse(user), nil
}

// UpdateProfile applies name and picture as given. The password only changes
// when the current one verifies.
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.UserResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	patch := entities.UserPatch{
		Name:           req.Name,
		ProfilePicture: req.ProfilePicture,
	}

	if req.NewPassword != nil {
		if req.CurrentPassword == nil || *req.CurrentPassword == "" {
			return nil, apperrors.NewValidationError("currentPassword", "is required to change the password")
		}

		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !s.hasher.Verify(*req.CurrentPassword, user.PasswordHash) {
			metrics.TrackAuthAttempt("password_change", false)
			return nil, apperrors.ErrInvalidCredentials
		}

		hashed, err := s.hashPassword("newPassword", *req.NewPassword)
		if err != nil {
			return nil, err
		}
		patch.PasswordHash = &hashed
	}

	user, err := s.userRepo.Update(ctx, userID, patch)
	if err != nil {
		return nil, err
	}

	if patch.PasswordHash != nil {
		metrics.TrackAuthAttempt("password_change", true)
		s.logger.Info("password changed", zap.String("user_id", userID))
	}
	return models.NewUserResponse(user), nil
}

// DeleteAccount removes the user, their notes and any pending reset code.
func (s *authService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	if err := s.codes.Clear(ctx, user.Email); err != nil {
		s.logger.Warn("failed to clear reset codes", zap.String("user_id", userID), zap.Error(err))
	}

	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// ForgotPassword issues a reset code for existing accounts. The response is
// the same whether or not the email is registered.
func (s *authService) ForgotPassword(ctx context.Context, req *models.ForgotPasswordRequest) (*models.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	generic := &models.MessageResponse{Message: forgotPasswordMessage}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, apperrors.ErrNotFound) {
		s.logger.Debug("password reset requested for unknown email")
		return generic, nil
	}
	if err != nil {
		return nil, err
	}

	code, err := s.codes.Issue(ctx, user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendPasswordResetOTP(ctx, user.Email, code, nameOf(user)); err != nil {
		s.logger.Error("failed to deliver reset code", zap.String("user_id", user.ID), zap.Error(err))
	}

	return generic, nil
}

// VerifyResetCode checks the emailed code. Success consumes it and leaves a
// reset grant so the same code can complete ResetPassword.
func (s *authService) VerifyResetCode(ctx context.Context, req *models.VerifyOTPRequest) (*models.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	if err := s.codes.VerifyAndGrant(ctx, req.Email, req.OTP); err != nil {
		return nil, err
	}

	return &models.MessageResponse{Message: codeVerifiedMessage}, nil
}

// ResetPassword replaces the password of the account that proved control of
// its email. No current password is needed.
func (s *authService) ResetPassword(ctx context.Context, req *models.ResetPasswordRequest) (*models.MessageResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := s.check(req); err != nil {
		return nil, err
	}

	if err := s.codes.ConsumeReset(ctx, req.Email, req.OTP); err != nil {
		metrics.TrackAuthAttempt("reset", false)
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}

	hashed, err := s.hashPassword("newPassword", req.NewPassword)
	if err != nil {
		return nil, err
	}

	if _, err := s.userRepo.Update(ctx, user.ID, entities.UserPatch{PasswordHash: &hashed}); err != nil {
		return nil, err
	}

	metrics.TrackAuthAttempt("reset", true)
	s.logger.Info("password reset", zap.String("user_id", user.ID))

	if err := s.mailer.SendPasswordResetSuccess(ctx, user.Email, nameOf(user)); err != nil {
		s.logger.Warn("failed to send reset confirmation", zap.String("user_id", user.ID), zap.Error(err))
	}

	return &models.MessageResponse{Message: passwordResetMessage}, nil
}

func nameOf(u *entities.User) string {
	if u.Name == nil {
		return ""
	}
	return *u.Name
}
