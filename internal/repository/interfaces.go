// Package repository defines per-entity persistence capabilities and their
// MongoDB implementations. Services depend only on the interfaces; tests
// substitute in-memory fakes. Absent documents surface as
// mongo.ErrNoDocuments so callers can branch with errors.Is.
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdelrahmans123/SocialApp/internal/domain"
)

// UserProfileUpdate carries the mutable profile fields. Nil means no change.
type UserProfileUpdate struct {
	Name  *string
	Phone *string
}

// UserRepository persists accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	// GetByEmailWithOTP matches only users with a pending one-time code.
	GetByEmailWithOTP(ctx context.Context, email string) (domain.User, error)
	SetOTP(ctx context.Context, email, otpHash string) error
	// ConfirmEmail stamps the confirmation time and clears the pending code.
	ConfirmEmail(ctx context.Context, email string, at time.Time) error
	// ResetPassword overwrites the password hash and clears the pending code.
	ResetPassword(ctx context.Context, email, passwordHash string) error
	// StampCredentialChange moves the credential-change watermark, staling
	// every token issued before at.
	StampCredentialChange(ctx context.Context, id primitive.ObjectID, at time.Time) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update UserProfileUpdate) (domain.User, error)
	SetAvatar(ctx context.Context, id primitive.ObjectID, avatar domain.Avatar) (domain.User, error)
	SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool) (domain.User, error)
	Search(ctx context.Context, query string) ([]domain.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// PostFilter narrows post listings. Zero values are ignored.
type PostFilter struct {
	Author         *primitive.ObjectID
	Tags           []string
	Published      *bool
	Search         string
	IncludeDeleted bool
}

// PostUpdate carries the mutable post fields. Nil means no change.
type PostUpdate struct {
	Title       *string
	Content     *string
	Tags        []string
	Images      []string
	IsPublished *bool
}

// PostRepository persists posts with their embedded likes and comments.
// Array mutations (likes, comments) are single atomic updates at the
// storage layer, never read-modify-write round-trips.
type PostRepository interface {
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	// GetByID returns the post regardless of its soft-delete state.
	GetByID(ctx context.Context, id primitive.ObjectID) (domain.Post, error)
	// GetVisible returns the post only if it is not soft-deleted.
	GetVisible(ctx context.Context, id primitive.ObjectID) (domain.Post, error)
	// Find lists matching posts ordered by creation time descending.
	Find(ctx context.Context, filter PostFilter) ([]domain.Post, error)
	Update(ctx context.Context, id primitive.ObjectID, update PostUpdate) (domain.Post, error)
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error)
	RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error)
	AddComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (domain.Post, error)
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (domain.Post, error)
	SetPublished(ctx context.Context, id primitive.ObjectID, published bool, publishedAt, scheduledAt *time.Time) error
	// SoftDelete flags the post deleted; unpublish additionally clears the
	// published flag (bulk path behavior).
	SoftDelete(ctx context.Context, id primitive.ObjectID, unpublish bool) error
	// Restore clears the deleted flag; republish additionally sets the
	// published flag (bulk path behavior).
	Restore(ctx context.Context, id primitive.ObjectID, republish bool) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// Trending returns posts created since the cutoff ordered by like count
	// descending, capped at limit.
	Trending(ctx context.Context, since time.Time, limit int64) ([]domain.Post, error)
}

// TokenRepository persists session revocation records.
type TokenRepository interface {
	Create(ctx context.Context, token domain.Token) (domain.Token, error)
	GetByJWTID(ctx context.Context, jwtID string) (domain.Token, error)
}
