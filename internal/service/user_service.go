package service

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
	"github.com/Abdelrahmans123/SocialApp/internal/security"
)

// UpdateProfileInput carries the editable profile fields. Nil means no
// change. Phone is plaintext here and re-encrypted before it reaches the
// store.
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

// UserService implements profile reads, updates and the account
// freeze/restore/hard-delete lifecycle.
type UserService struct {
	users  repository.UserRepository
	cfg    config.Config
	logger *zap.Logger
}

// NewUserService wires the profile flows.
func NewUserService(users repository.UserRepository, cfg config.Config, logger *zap.Logger) *UserService {
	return &UserService{users: users, cfg: cfg, logger: logger}
}

// Profile returns the account by id. The password hash never leaves the
// domain type's JSON encoding. The phone number stays encrypted unless
// the owner is reading their own profile.
func (s *UserService) Profile(ctx context.Context, id primitive.ObjectID, owner bool) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.Profile")
	defer span.End()

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, notFound("User not found")
		}
		span.RecordError(err)
		return domain.User{}, err
	}

	if owner && user.Phone != "" {
		phone, err := security.Decrypt(s.cfg.PhoneSecret, user.Phone)
		if err != nil {
			span.RecordError(err)
			return domain.User{}, fmt.Errorf("decrypt phone: %w", err)
		}
		user.Phone = phone
	}
	return user, nil
}

// UpdateAvatar replaces the profile image reference.
func (s *UserService) UpdateAvatar(ctx context.Context, id primitive.ObjectID, avatar domain.Avatar) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.UpdateAvatar")
	defer span.End()

	user, err := s.users.SetAvatar(ctx, id, avatar)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, notFound("User not found")
		}
		span.RecordError(err)
		return domain.User{}, err
	}
	return user, nil
}

// Search matches name or email case-insensitively.
func (s *UserService) Search(ctx context.Context, query string) ([]domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.Search")
	defer span.End()

	users, err := s.users.Search(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return users, nil
}

// Update edits name and phone. The phone is encrypted at rest, matching
// registration.
func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, in UpdateProfileInput) (domain.User, error) {
	ctx, span := s.startSpan(ctx, "UserService.Update")
	defer span.End()

	update := repository.UserProfileUpdate{Name: in.Name}
	if in.Phone != nil {
		encrypted, err := security.Encrypt(s.cfg.PhoneSecret, *in.Phone)
		if err != nil {
			span.RecordError(err)
			return domain.User{}, err
		}
		update.Phone = &encrypted
	}

	user, err := s.users.UpdateProfile(ctx, id, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, notFound("User not found")
		}
		span.RecordError(err)
		return domain.User{}, err
	}
	return user, nil
}

// Freeze flags the account inactive. Outstanding tokens stay valid; only
// a "logout all" moves the credential watermark.
func (s *UserService) Freeze(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	return s.setFrozen(ctx, "UserService.Freeze", id, true)
}

// Restore clears the frozen flag.
func (s *UserService) Restore(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	return s.setFrozen(ctx, "UserService.Restore", id, false)
}

// HardDelete removes the account permanently.
func (s *UserService) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := s.startSpan(ctx, "UserService.HardDelete")
	defer span.End()

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound("User not found")
		}
		span.RecordError(err)
		return err
	}

	s.logger.Info("user hard deleted", zap.String("user_id", id.Hex()))
	return nil
}

func (s *UserService) setFrozen(ctx context.Context, spanName string, id primitive.ObjectID, frozen bool) (domain.User, error) {
	ctx, span := s.startSpan(ctx, spanName)
	defer span.End()

	user, err := s.users.SetFrozen(ctx, id, frozen)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.User{}, notFound("User not found")
		}
		span.RecordError(err)
		return domain.User{}, err
	}
	return user, nil
}

func (s *UserService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(s.cfg.ServiceName).Start(ctx, name)
}
