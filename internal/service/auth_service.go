package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/jwt"
	"github.com/Abdelrahmans123/SocialApp/internal/mail"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
	"github.com/Abdelrahmans123/SocialApp/internal/security"
)

const revocationRecordTTL = 365 * 24 * time.Hour

// LogoutAll requests invalidation of every token issued to the user.
const LogoutAll = "all"

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Gender   string
	Role     string
}

// TokenPair is the login result: two tokens sharing one jti.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserIdentity is the minimal identity echoed by the OTP flows.
type UserIdentity struct {
	UserID primitive.ObjectID `json:"userId"`
	Name   string             `json:"name"`
	Email  string             `json:"email"`
}

// AuthService implements registration, login, the one-time-code flows and
// logout. Hashing, persisting and notifying are explicit sequential steps;
// there are no storage-lifecycle hooks.
type AuthService struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	jwt    *jwt.Generator
	mailer mail.Sender
	cfg    config.Config
	logger *zap.Logger
}

// NewAuthService wires the authentication flows.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	generator *jwt.Generator,
	mailer mail.Sender,
	cfg config.Config,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{users: users, tokens: tokens, jwt: generator, mailer: mailer, cfg: cfg, logger: logger}
}

// Register creates a new unconfirmed account and mails the confirmation
// code. Mail delivery is asynchronous: a persisted user with undelivered
// email is an accepted failure mode.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Register")
	defer span.End()

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return domain.User{}, NewAppError(http.StatusConflict, "Email Already Exist")
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("check existing user: %w", err)
	}

	hashedPassword, err := security.HashSecret(in.Password)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	encryptedPhone := ""
	if in.Phone != "" {
		encryptedPhone, err = security.Encrypt(s.cfg.PhoneSecret, in.Phone)
		if err != nil {
			span.RecordError(err)
			return domain.User{}, fmt.Errorf("encrypt phone: %w", err)
		}
	}

	otp, err := security.GenerateOTP()
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}
	otpHash, err := security.HashSecret(otp)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, err
	}

	user := domain.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hashedPassword,
		Phone:    encryptedPhone,
		Gender:   coalesce(in.Gender, domain.GenderMale),
		Role:     coalesce(in.Role, domain.RoleUser),
		OTP:      otpHash,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		span.RecordError(err)
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	s.sendAsync(mail.Message{
		To:      created.Email,
		Subject: "Welcome to Social App",
		Text: fmt.Sprintf("Hello %s,\n\nThank you for registering with Social App. We are excited to have you on board!\n\nBest regards,\nSocial App Team", created.Name),
		HTML: fmt.Sprintf(`<h1>Hello %s,</h1>
<p>Thank you for registering with Social App. We are excited to have you on board!</p>
<p>Best regards,<br>Social App Team</p>
<p>Your OTP is: <strong>%s</strong></p>`, created.Name, otp),
	})

	s.logger.Info("user registered", zap.String("user_id", created.ID.Hex()))
	return created, nil
}

// Login verifies credentials and mints an access/refresh token pair.
// Unknown email and wrong password produce the identical rejection so the
// response shape cannot be used to enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (TokenPair, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return TokenPair{}, unauthorized("Invalid email or password")
		}
		span.RecordError(err)
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	if !security.CompareSecret(password, user.Password) {
		return TokenPair{}, unauthorized("Invalid email or password")
	}

	if user.ConfirmEmail == nil {
		return TokenPair{}, NewAppError(http.StatusForbidden, "Please confirm your email before logging in")
	}

	jwtID := uuid.NewString()
	accessToken, err := s.jwt.Sign(user.ID.Hex(), user.Role, jwtID, s.cfg.AccessTokenTTL)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}
	refreshToken, err := s.jwt.Sign(user.ID.Hex(), user.Role, jwtID, s.cfg.RefreshTokenTTL)
	if err != nil {
		span.RecordError(err)
		return TokenPair{}, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.Hex()))
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ConfirmEmail verifies the registration one-time code, stamps the
// confirmation time and clears the code.
func (s *AuthService) ConfirmEmail(ctx context.Context, email, otp string) (UserIdentity, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ConfirmEmail")
	defer span.End()

	user, err := s.verifyOTP(ctx, email, otp)
	if err != nil {
		return UserIdentity{}, err
	}

	if err := s.users.ConfirmEmail(ctx, email, time.Now()); err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}

	return UserIdentity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// ForgotPassword stores a fresh reset code and mails it to the account.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (UserIdentity, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ForgotPassword")
	defer span.End()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return UserIdentity{}, notFound("User not found")
		}
		span.RecordError(err)
		return UserIdentity{}, fmt.Errorf("load user: %w", err)
	}

	otp, err := security.GenerateOTP()
	if err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}
	otpHash, err := security.HashSecret(otp)
	if err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}

	if err := s.users.SetOTP(ctx, email, otpHash); err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}

	s.sendAsync(mail.Message{
		To:      email,
		Subject: "Password Reset OTP",
		Text:    fmt.Sprintf("Your OTP for password reset is: %s", otp),
		HTML:    fmt.Sprintf("<h1>Password Reset OTP</h1><p>Your OTP for password reset is: <strong>%s</strong></p>", otp),
	})

	return UserIdentity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// ResetPassword verifies the reset code and overwrites the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword string) (UserIdentity, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	user, err := s.verifyOTP(ctx, email, otp)
	if err != nil {
		return UserIdentity{}, err
	}

	hashedPassword, err := security.HashSecret(newPassword)
	if err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}

	if err := s.users.ResetPassword(ctx, email, hashedPassword); err != nil {
		span.RecordError(err)
		return UserIdentity{}, err
	}

	return UserIdentity{UserID: user.ID, Name: user.Name, Email: user.Email}, nil
}

// Logout invalidates the current session. The default mode writes one
// revocation record for the token's jti, expiring one year after issuance
// so it outlives the token naturally. Flag "all" instead moves the user's
// credential-change watermark, staling every outstanding token in one
// write. Returns true when a revocation record was created.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims, flag string) (bool, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Logout")
	defer span.End()

	userID, err := claims.Subject()
	if err != nil {
		return false, unauthorized("Invalid or expired token")
	}

	if flag == LogoutAll {
		if err := s.users.StampCredentialChange(ctx, userID, time.Now()); err != nil {
			span.RecordError(err)
			return false, err
		}
		s.logger.Info("all sessions invalidated", zap.String("user_id", claims.UserID))
		return false, nil
	}

	record := domain.Token{
		UserID:   userID,
		JWTID:    claims.ID,
		ExpireIn: claims.IssuedAt.Add(revocationRecordTTL),
	}
	if _, err := s.tokens.Create(ctx, record); err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("create revocation record: %w", err)
	}

	s.logger.Info("session revoked", zap.String("user_id", claims.UserID), zap.String("jwt_id", claims.ID))
	return true, nil
}

// ValidateSession is the three-check session gate: signature and expiry,
// then the server-side revocation record for the token's jti, then the
// credential-change watermark. Any failing check short-circuits. The
// missing-user case is reported as a 401-class failure, not a 404, so the
// response does not reveal whether the account exists.
func (s *AuthService) ValidateSession(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	ctx, span := s.startSpan(ctx, "AuthService.ValidateSession")
	defer span.End()

	claims, err := s.jwt.Verify(tokenString)
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}

	if claims.ID != "" {
		if _, err := s.tokens.GetByJWTID(ctx, claims.ID); err == nil {
			return nil, unauthorized("Session expired, please login again")
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			span.RecordError(err)
			return nil, fmt.Errorf("check revocation record: %w", err)
		}
	}

	userID, err := claims.Subject()
	if err != nil {
		return nil, unauthorized("Invalid or expired token")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, unauthorized("Session expired, please login again")
		}
		span.RecordError(err)
		return nil, fmt.Errorf("load user: %w", err)
	}

	if user.ChangeCredentialTime != nil && claims.IssuedAt != nil && user.ChangeCredentialTime.After(claims.IssuedAt.Time) {
		return nil, unauthorized("Session expired, please login again")
	}

	return claims, nil
}

func (s *AuthService) verifyOTP(ctx context.Context, email, otp string) (domain.User, error) {
	user, err := s.users.GetByEmailWithOTP(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, notFound("User not found")
		}
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}

	if !security.CompareSecret(otp, user.OTP) {
		return domain.User{}, badRequest("Invalid OTP")
	}
	return user, nil
}

func (s *AuthService) sendAsync(msg mail.Message) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("mail delivery failed",
				zap.String("to", msg.To),
				zap.String("subject", msg.Subject),
				zap.Error(err),
			)
		}
	}()
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(s.cfg.ServiceName).Start(ctx, name)
}

func coalesce(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
