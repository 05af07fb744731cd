package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"notely-be/internal/apperrors"
	"notely-be/internal/jwt"
	"notely-be/internal/mailer/mocks"
	"notely-be/internal/models"
	"notely-be/internal/otp"
	"notely-be/internal/password"
	"notely-be/internal/repository"
)

type authFixture struct {
	svc    AuthService
	store  *repository.MemoryStore
	otps   *otp.MemoryStore
	codes  *otp.Manager
	mailer *mocks.MockMailer
	jwt    *jwt.JWTService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := repository.NewMemoryStoreWithClock(newTickingClock().Now)

	store := otp.NewMemoryStore()
	codes := otp.NewManager(store, 10*time.Minute, 3, zap.NewNop())
	mail := mocks.NewMockMailer(ctrl)
	tokens := jwt.NewJWTService("test-secret", 7*24*time.Hour)

	svc := NewAuthService(repo.Users(), password.NewBcryptHasher(bcrypt.MinCost), tokens, codes, mail, zap.NewNop())
	return &authFixture{svc: svc, store: repo, otps: store, codes: codes, mailer: mail, jwt: tokens}
}

func (f *authFixture) userCount() int {
	users, _ := f.store.Len()
	return users
}

func (f *authFixture) signup(t *testing.T, email, pw string) *models.UserResponse {
	t.Helper()
	u, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: email, Password: pw})
	require.NoError(t, err)
	return u
}

func strPtr(s string) *string { return &s }

func TestSignup_ReturnsPublicProjection(t *testing.T) {
	f := newAuthFixture(t)

	u, err := f.svc.Signup(context.Background(), &models.SignupRequest{
		Email:    " A@B.com ",
		Password: "secret1",
		Name:     strPtr("Al"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "A@B.com", u.Email)
	assert.Equal(t, "Al", *u.Name)

	body, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), "$2a$")
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "a@b.com", "secret1")

	_, err := f.svc.Signup(context.Background(), &models.SignupRequest{Email: "a@b.com", Password: "another1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, 1, f.userCount())
}

func TestSignup_EmailIsCaseSensitive(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "Case@b.com", "secret1")
	f.signup(t, "case@b.com", "secret2")
	assert.Equal(t, 2, f.userCount())

	_, err := f.svc.Login(ctx, &models.LoginRequest{Email: "Case@b.com", Password: "secret1"})
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "case@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSignup_Validation(t *testing.T) {
	f := newAuthFixture(t)

	tests := map[string]*models.SignupRequest{
		"bad email":      {Email: "not-an-email", Password: "secret1"},
		"short password": {Email: "a@b.com", Password: "12345"},
		"long password":  {Email: "a@b.com", Password: strings.Repeat("p", 80)},
		"wide password":  {Email: "a@b.com", Password: strings.Repeat("€", 30)},
		"empty":          {},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Signup(context.Background(), req)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
	assert.Zero(t, f.userCount())
}

func TestLogin(t *testing.T) {
	f := newAuthFixture(t)
	u := f.signup(t, "a@b.com", "secret1")

	resp, err := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@b.com", Password: "secret1"})
	require.NoError(t, err)

	claims, err := f.jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "a@b.com", "secret1")

	_, wrongPw := f.svc.Login(context.Background(), &models.LoginRequest{Email: "a@b.com", Password: "wrong"})
	_, noUser := f.svc.Login(context.Background(), &models.LoginRequest{Email: "nobody@b.com", Password: "secret1"})

	require.ErrorIs(t, wrongPw, apperrors.ErrInvalidCredentials)
	require.ErrorIs(t, noUser, apperrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPw.Error(), noUser.Error())
}

func TestProfile(t *testing.T) {
	f := newAuthFixture(t)
	u := f.signup(t, "a@b.com", "secret1")

	got, err := f.svc.Profile(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", got.Email)

	_, err = f.svc.Profile(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProfile_NameAndPicture(t *testing.T) {
	f := newAuthFixture(t)
	u := f.signup(t, "a@b.com", "secret1")

	got, err := f.svc.UpdateProfile(context.Background(), u.ID, &models.UpdateProfileRequest{
		Name:           strPtr("New Name"),
		ProfilePicture: strPtr("https://img.example.com/a.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", *got.Name)
	assert.Equal(t, "https://img.example.com/a.png", *got.ProfilePicture)
	assert.True(t, got.UpdatedAt.After(u.UpdatedAt))
}

func TestUpdateProfile_PasswordChange(t *testing.T) {
	ctx := context.Background()

	t.Run("requires current password", func(t *testing.T) {
		f := newAuthFixture(t)
		u := f.signup(t, "a@b.com", "secret1")

		_, err := f.svc.UpdateProfile(ctx, u.ID, &models.UpdateProfileRequest{NewPassword: strPtr("newsecret")})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("wrong current password leaves profile untouched", func(t *testing.T) {
		f := newAuthFixture(t)
		u := f.signup(t, "a@b.com", "secret1")

		_, err := f.svc.UpdateProfile(ctx, u.ID, &models.UpdateProfileRequest{
			Name:            strPtr("ignored"),
			CurrentPassword: strPtr("wrong"),
			NewPassword:     strPtr("newsecret"),
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

		got, err := f.svc.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Name)

		_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "secret1"})
		assert.NoError(t, err)
	})

	t.Run("correct current password", func(t *testing.T) {
		f := newAuthFixture(t)
		u := f.signup(t, "a@b.com", "secret1")

		_, err := f.svc.UpdateProfile(ctx, u.ID, &models.UpdateProfileRequest{
			CurrentPassword: strPtr("secret1"),
			NewPassword:     strPtr("newsecret"),
		})
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "secret1"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "newsecret"})
		assert.NoError(t, err)
	})
}

func TestDeleteAccount_CascadesNotesAndCodes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.signup(t, "a@b.com", "secret1")

	_, err := f.store.Notes().Create(ctx, u.ID, "Groceries", "", "")
	require.NoError(t, err)
	_, err = f.codes.Issue(ctx, "a@b.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteAccount(ctx, u.ID))

	users, notes := f.store.Len()
	assert.Zero(t, users)
	assert.Zero(t, notes)
	assert.Zero(t, f.otps.Len())

	assert.ErrorIs(t, f.svc.DeleteAccount(ctx, u.ID), apperrors.ErrNotFound)
}

func TestForgotPassword_UnknownEmailIsGeneric(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "a@b.com", "secret1")
	f.mailer.EXPECT().SendPasswordResetOTP(gomock.Any(), "a@b.com", gomock.Any(), "").Return(nil)

	known, err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "a@b.com"})
	require.NoError(t, err)
	unknown, err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "ghost@b.com"})
	require.NoError(t, err)

	assert.Equal(t, known, unknown)
	assert.Equal(t, 1, f.otps.Len())
}

func TestForgotPassword_DeliveryFailureIsNotSurfaced(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "a@b.com", "secret1")
	f.mailer.EXPECT().SendPasswordResetOTP(gomock.Any(), "a@b.com", gomock.Any(), gomock.Any()).
		Return(errors.New("smtp down"))

	resp, err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, forgotPasswordMessage, resp.Message)
}

func (f *authFixture) requestCode(t *testing.T, email string) string {
	t.Helper()
	var code string
	f.mailer.EXPECT().SendPasswordResetOTP(gomock.Any(), email, gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, c, _ string) error {
			code = c
			return nil
		})
	_, err := f.svc.ForgotPassword(context.Background(), &models.ForgotPasswordRequest{Email: email})
	require.NoError(t, err)
	require.Len(t, code, 6)
	return code
}

func TestPasswordReset_VerifyThenResetWithSameCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "a@b.com", "secret1")
	code := f.requestCode(t, "a@b.com")

	_, err := f.svc.VerifyResetCode(ctx, &models.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	require.NoError(t, err)

	f.mailer.EXPECT().SendPasswordResetSuccess(gomock.Any(), "a@b.com", "").Return(nil)
	resp, err := f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: "brandnew"})
	require.NoError(t, err)
	assert.Equal(t, passwordResetMessage, resp.Message)

	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "brandnew"})
	assert.NoError(t, err)

	_, err = f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: "again123"})
	assert.ErrorIs(t, err, otp.ErrCodeNotFound)
}

func TestPasswordReset_DirectResetWithActiveCode(t *testing.T) {
	f := newAuthFixture(t)
	f.signup(t, "a@b.com", "secret1")
	code := f.requestCode(t, "a@b.com")

	f.mailer.EXPECT().SendPasswordResetSuccess(gomock.Any(), "a@b.com", gomock.Any()).Return(nil)
	_, err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: "brandnew"})
	require.NoError(t, err)
}

func TestVerifyResetCode_Outcomes(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "a@b.com", "secret1")
	code := f.requestCode(t, "a@b.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	for _, remaining := range []int{2, 1, 0} {
		_, err := f.svc.VerifyResetCode(ctx, &models.VerifyOTPRequest{Email: "a@b.com", OTP: wrong})
		var mismatch *otp.MismatchError
		require.ErrorAs(t, err, &mismatch)
		assert.Equal(t, remaining, mismatch.Remaining)
	}

	_, err := f.svc.VerifyResetCode(ctx, &models.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	assert.ErrorIs(t, err, otp.ErrAttemptsExhausted)
}

func TestVerifyResetCode_MalformedCode(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.VerifyResetCode(context.Background(), &models.VerifyOTPRequest{Email: "a@b.com", OTP: "12ab"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestResetPassword_WrongGuessesAfterVerifyAreLimited(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "a@b.com", "secret1")
	code := f.requestCode(t, "a@b.com")
	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}

	_, err := f.svc.VerifyResetCode(ctx, &models.VerifyOTPRequest{Email: "a@b.com", OTP: code})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: wrong, NewPassword: "brandnew"})
		var mismatch *otp.MismatchError
		require.ErrorAs(t, err, &mismatch)
	}

	_, err = f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: "brandnew"})
	assert.ErrorIs(t, err, otp.ErrAttemptsExhausted)

	_, err = f.svc.Login(ctx, &models.LoginRequest{Email: "a@b.com", Password: "secret1"})
	assert.NoError(t, err, "password unchanged")
}

func TestResetPassword_OverlongPasswordKeepsCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "a@b.com", "secret1")
	code := f.requestCode(t, "a@b.com")

	_, err := f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: strings.Repeat("€", 30)})
	assert.True(t, apperrors.IsValidation(err), "got %v", err)

	f.mailer.EXPECT().SendPasswordResetSuccess(gomock.Any(), "a@b.com", gomock.Any()).Return(nil)
	_, err = f.svc.ResetPassword(ctx, &models.ResetPasswordRequest{Email: "a@b.com", OTP: code, NewPassword: "brandnew"})
	assert.NoError(t, err)
}

func TestResetPassword_UnknownEmailLooksLikeMissingCode(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.ResetPassword(context.Background(), &models.ResetPasswordRequest{
		Email: "ghost@b.com", OTP: "123456", NewPassword: "brandnew",
	})
	assert.ErrorIs(t, err, otp.ErrCodeNotFound)
}
