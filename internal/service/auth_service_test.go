package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/jwt"
	"github.com/Abdelrahmans123/SocialApp/internal/security"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

func newAuthFixture(t *testing.T) (*service.AuthService, *memoryUserRepo, *memoryTokenRepo, *jwt.Generator) {
	t.Helper()
	cfg := config.Config{
		JWTSecret:       "test-secret",
		PhoneSecret:     "phone-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ServiceName:     "socialapp-test",
	}
	users := newMemoryUserRepo()
	tokens := newMemoryTokenRepo()
	generator := jwt.NewGenerator(cfg.JWTSecret)
	svc := service.NewAuthService(users, tokens, generator, &captureMailer{}, cfg, zap.NewNop())
	return svc, users, tokens, generator
}

func confirmedUser(t *testing.T, users *memoryUserRepo, email, password string) domain.User {
	t.Helper()
	hash, err := security.HashSecret(password)
	require.NoError(t, err)
	now := time.Now().Add(-time.Minute)
	user, err := users.Create(context.Background(), domain.User{
		Name:         "Test User",
		Email:        email,
		Password:     hash,
		Gender:       domain.GenderFemale,
		Role:         domain.RoleUser,
		ConfirmEmail: &now,
	})
	require.NoError(t, err)
	return user
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()
	confirmedUser(t, users, "taken@example.com", "password123")

	_, err := svc.Register(ctx, service.RegisterInput{
		Name:     "Another",
		Email:    "taken@example.com",
		Password: "password123",
	})
	require.Error(t, err)

	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusConflict, appErr.Status)
	require.Equal(t, "Email Already Exist", appErr.Message)
}

func TestRegisterHashesSecretsAndDefaultsRole(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, service.RegisterInput{
		Name:     "New User",
		Email:    "new@example.com",
		Password: "password123",
		Phone:    "+201234567890",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, created.Role)
	require.NotEqual(t, "password123", created.Password)
	require.True(t, security.CompareSecret("password123", created.Password))
	require.NotEqual(t, "+201234567890", created.Phone)
	require.Nil(t, created.ConfirmEmail)

	stored, err := users.GetByEmailWithOTP(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.OTP)
}

func TestLoginRejectionsAreIndistinguishable(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()
	confirmedUser(t, users, "user@example.com", "password123")

	_, unknownErr := svc.Login(ctx, "missing@example.com", "password123")
	_, wrongErr := svc.Login(ctx, "user@example.com", "wrong-password")

	var unknownApp, wrongApp *service.AppError
	require.ErrorAs(t, unknownErr, &unknownApp)
	require.ErrorAs(t, wrongErr, &wrongApp)
	require.Equal(t, unknownApp.Status, wrongApp.Status)
	require.Equal(t, unknownApp.Message, wrongApp.Message)
	require.Equal(t, http.StatusUnauthorized, wrongApp.Status)
	require.Equal(t, "Invalid email or password", wrongApp.Message)
}

func TestLoginRequiresConfirmedEmail(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()

	hash, err := security.HashSecret("password123")
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.User{Email: "pending@example.com", Password: hash})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "pending@example.com", "password123")
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusForbidden, appErr.Status)
	require.Equal(t, "Please confirm your email before logging in", appErr.Message)
}

func TestLoginIssuesPairSharingOneTokenID(t *testing.T) {
	svc, users, _, generator := newAuthFixture(t)
	ctx := context.Background()
	user := confirmedUser(t, users, "user@example.com", "password123")

	pair, err := svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	access, err := generator.Verify(pair.AccessToken)
	require.NoError(t, err)
	refresh, err := generator.Verify(pair.RefreshToken)
	require.NoError(t, err)

	require.Equal(t, user.ID.Hex(), access.UserID)
	require.NotEmpty(t, access.ID)
	require.Equal(t, access.ID, refresh.ID)
	require.True(t, refresh.ExpiresAt.After(access.ExpiresAt.Time))
}

func TestConfirmEmailFlow(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()

	otpHash, err := security.HashSecret("123456")
	require.NoError(t, err)
	hash, err := security.HashSecret("password123")
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.User{Name: "Pending", Email: "pending@example.com", Password: hash, OTP: otpHash})
	require.NoError(t, err)

	_, err = svc.ConfirmEmail(ctx, "pending@example.com", "000000")
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.Status)
	require.Equal(t, "Invalid OTP", appErr.Message)

	identity, err := svc.ConfirmEmail(ctx, "pending@example.com", "123456")
	require.NoError(t, err)
	require.Equal(t, "pending@example.com", identity.Email)

	stored, err := users.GetByEmail(ctx, "pending@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ConfirmEmail)
	require.Empty(t, stored.OTP)

	// The code is single-use.
	_, err = svc.ConfirmEmail(ctx, "pending@example.com", "123456")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.Status)
	require.Equal(t, "User not found", appErr.Message)
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.Status)
	require.Equal(t, "User not found", appErr.Message)
}

func TestResetPasswordFlow(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	ctx := context.Background()
	confirmedUser(t, users, "user@example.com", "old-password")

	_, err := svc.ForgotPassword(ctx, "user@example.com")
	require.NoError(t, err)

	stored, err := users.GetByEmailWithOTP(ctx, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, stored.OTP)

	// Overwrite the random code with a known one to drive the reset.
	knownHash, err := security.HashSecret("654321")
	require.NoError(t, err)
	require.NoError(t, users.SetOTP(ctx, "user@example.com", knownHash))

	_, err = svc.ResetPassword(ctx, "user@example.com", "654321", "new-password")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "user@example.com", "old-password")
	require.Error(t, err)
	pair, err := svc.Login(ctx, "user@example.com", "new-password")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
}

func TestLogoutRevokesOnlyCurrentSession(t *testing.T) {
	svc, users, tokens, _ := newAuthFixture(t)
	ctx := context.Background()
	confirmedUser(t, users, "user@example.com", "password123")

	first, err := svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	claims, err := svc.ValidateSession(ctx, first.AccessToken)
	require.NoError(t, err)

	created, err := svc.Logout(ctx, claims, "")
	require.NoError(t, err)
	require.True(t, created)

	record, err := tokens.GetByJWTID(ctx, claims.ID)
	require.NoError(t, err)
	require.Equal(t, claims.IssuedAt.Add(365*24*time.Hour), record.ExpireIn)

	// The revocation covers the refresh token too: it shares the jti.
	_, err = svc.ValidateSession(ctx, first.AccessToken)
	requireUnauthorized(t, err, "Session expired, please login again")
	_, err = svc.ValidateSession(ctx, first.RefreshToken)
	requireUnauthorized(t, err, "Session expired, please login again")

	// Other sessions stay live.
	_, err = svc.ValidateSession(ctx, second.AccessToken)
	require.NoError(t, err)
}

func TestLogoutAllStalesEveryOutstandingToken(t *testing.T) {
	svc, users, _, generator := newAuthFixture(t)
	ctx := context.Background()
	user := confirmedUser(t, users, "user@example.com", "password123")

	first, err := svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "user@example.com", "password123")
	require.NoError(t, err)

	claims, err := svc.ValidateSession(ctx, first.AccessToken)
	require.NoError(t, err)

	created, err := svc.Logout(ctx, claims, service.LogoutAll)
	require.NoError(t, err)
	require.False(t, created)

	_, err = svc.ValidateSession(ctx, first.AccessToken)
	requireUnauthorized(t, err, "Session expired, please login again")
	_, err = svc.ValidateSession(ctx, second.AccessToken)
	requireUnauthorized(t, err, "Session expired, please login again")

	// A token minted after the watermark passes. The watermark is moved
	// into the past because issued-at stamps carry second precision.
	require.NoError(t, users.StampCredentialChange(ctx, user.ID, time.Now().Add(-time.Hour)))
	fresh, err := generator.Sign(user.ID.Hex(), user.Role, "fresh-jti", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateSession(ctx, fresh)
	require.NoError(t, err)
}

func TestValidateSessionRejectsGarbageAndMissingUser(t *testing.T) {
	svc, _, _, generator := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.ValidateSession(ctx, "not-a-token")
	requireUnauthorized(t, err, "Invalid or expired token")

	// A valid signature over a user that no longer exists is rejected the
	// same way as a stale session, not reported as missing.
	ghost, err := generator.Sign("64b0c0ffee0000000000aaaa", domain.RoleUser, "ghost", time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateSession(ctx, ghost)
	requireUnauthorized(t, err, "Session expired, please login again")
}

func requireUnauthorized(t *testing.T, err error, message string) {
	t.Helper()
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusUnauthorized, appErr.Status)
	require.Equal(t, message, appErr.Message)
}
