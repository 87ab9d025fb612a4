package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/security"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

func newUserFixture(t *testing.T) (*service.UserService, *memoryUserRepo, config.Config) {
	t.Helper()
	cfg := config.Config{PhoneSecret: "phone-secret", ServiceName: "socialapp-test"}
	users := newMemoryUserRepo()
	svc := service.NewUserService(users, cfg, zap.NewNop())
	return svc, users, cfg
}

func TestProfileNotFound(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	_, err := svc.Profile(context.Background(), primitive.NewObjectID(), false)
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.Status)
	require.Equal(t, "User not found", appErr.Message)
}

func TestUpdateEncryptsPhoneAtRest(t *testing.T) {
	svc, users, cfg := newUserFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, domain.User{Name: "Before", Email: "user@example.com"})
	require.NoError(t, err)

	name := "After"
	phone := "+201112223334"
	updated, err := svc.Update(ctx, user.ID, service.UpdateProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	require.Equal(t, "After", updated.Name)
	require.NotEqual(t, phone, updated.Phone)

	decrypted, err := security.Decrypt(cfg.PhoneSecret, updated.Phone)
	require.NoError(t, err)
	require.Equal(t, phone, decrypted)
}

func TestProfileDecryptsPhoneOnlyForOwner(t *testing.T) {
	svc, users, cfg := newUserFixture(t)
	ctx := context.Background()

	encrypted, err := security.Encrypt(cfg.PhoneSecret, "+201112223334")
	require.NoError(t, err)
	user, err := users.Create(ctx, domain.User{Email: "user@example.com", Phone: encrypted})
	require.NoError(t, err)

	public, err := svc.Profile(ctx, user.ID, false)
	require.NoError(t, err)
	require.Equal(t, encrypted, public.Phone)

	own, err := svc.Profile(ctx, user.ID, true)
	require.NoError(t, err)
	require.Equal(t, "+201112223334", own.Phone)
}

func TestUpdateAvatar(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, domain.User{Email: "user@example.com"})
	require.NoError(t, err)

	updated, err := svc.UpdateAvatar(ctx, user.ID, domain.Avatar{PublicID: "avatars/abc", URL: "https://cdn.example.com/abc.png"})
	require.NoError(t, err)
	require.NotNil(t, updated.Avatar)
	require.Equal(t, "avatars/abc", updated.Avatar.PublicID)
}

func TestFreezeAndRestoreAccount(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, domain.User{Email: "user@example.com"})
	require.NoError(t, err)

	frozen, err := svc.Freeze(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, frozen.IsFrozen)

	restored, err := svc.Restore(ctx, user.ID)
	require.NoError(t, err)
	require.False(t, restored.IsFrozen)
}

func TestSearchUsers(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := users.Create(ctx, domain.User{Name: "Alice Smith", Email: "alice@example.com"})
	require.NoError(t, err)
	_, err = users.Create(ctx, domain.User{Name: "Bob Jones", Email: "bob@example.com"})
	require.NoError(t, err)

	matches, err := svc.Search(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "Alice Smith", matches[0].Name)
}

func TestHardDeleteUser(t *testing.T) {
	svc, users, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := users.Create(ctx, domain.User{Email: "user@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.HardDelete(ctx, user.ID))

	err = svc.HardDelete(ctx, user.ID)
	var appErr *service.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.Status)
	require.Equal(t, "User not found", appErr.Message)
}
