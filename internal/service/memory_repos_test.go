package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/mail"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
)

// memoryUserRepo is an in-process UserRepository mirroring the store's
// not-found semantics with mongo.ErrNoDocuments.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[primitive.ObjectID]domain.User)}
}

func (m *memoryUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, mongo.ErrNoDocuments
	}
	return user, nil
}

func (m *memoryUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, mongo.ErrNoDocuments
}

func (m *memoryUserRepo) GetByEmailWithOTP(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email && user.OTP != "" {
			return user, nil
		}
	}
	return domain.User{}, mongo.ErrNoDocuments
}

func (m *memoryUserRepo) SetOTP(ctx context.Context, email, otpHash string) error {
	return m.mutateByEmail(email, func(u *domain.User) { u.OTP = otpHash })
}

func (m *memoryUserRepo) ConfirmEmail(ctx context.Context, email string, at time.Time) error {
	return m.mutateByEmail(email, func(u *domain.User) {
		u.ConfirmEmail = &at
		u.OTP = ""
	})
}

func (m *memoryUserRepo) ResetPassword(ctx context.Context, email, passwordHash string) error {
	return m.mutateByEmail(email, func(u *domain.User) {
		u.Password = passwordHash
		u.OTP = ""
	})
}

func (m *memoryUserRepo) StampCredentialChange(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	user.ChangeCredentialTime = &at
	m.users[id] = user
	return nil
}

func (m *memoryUserRepo) UpdateProfile(ctx context.Context, id primitive.ObjectID, update repository.UserProfileUpdate) (domain.User, error) {
	return m.mutateByID(id, func(u *domain.User) {
		if update.Name != nil {
			u.Name = *update.Name
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
	})
}

func (m *memoryUserRepo) SetAvatar(ctx context.Context, id primitive.ObjectID, avatar domain.Avatar) (domain.User, error) {
	return m.mutateByID(id, func(u *domain.User) { u.Avatar = &avatar })
}

func (m *memoryUserRepo) SetFrozen(ctx context.Context, id primitive.ObjectID, frozen bool) (domain.User, error) {
	return m.mutateByID(id, func(u *domain.User) { u.IsFrozen = frozen })
}

func (m *memoryUserRepo) Search(ctx context.Context, query string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(query)
	var matches []domain.User
	for _, user := range m.users {
		if strings.Contains(strings.ToLower(user.Name), q) || strings.Contains(strings.ToLower(user.Email), q) {
			matches = append(matches, user)
		}
	}
	return matches, nil
}

func (m *memoryUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUserRepo) mutateByEmail(email string, fn func(*domain.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, user := range m.users {
		if user.Email == email {
			fn(&user)
			user.UpdatedAt = time.Now()
			m.users[id] = user
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (m *memoryUserRepo) mutateByID(id primitive.ObjectID, fn func(*domain.User)) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.User{}, mongo.ErrNoDocuments
	}
	fn(&user)
	user.UpdatedAt = time.Now()
	m.users[id] = user
	return user, nil
}

// memoryPostRepo keeps posts in insertion order so Find returns newest
// first like the store does.
type memoryPostRepo struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	posts map[primitive.ObjectID]domain.Post
}

func newMemoryPostRepo() *memoryPostRepo {
	return &memoryPostRepo{posts: make(map[primitive.ObjectID]domain.Post)}
}

func (m *memoryPostRepo) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	if post.Likes == nil {
		post.Likes = []primitive.ObjectID{}
	}
	if post.Comments == nil {
		post.Comments = []domain.Comment{}
	}
	m.posts[post.ID] = post
	m.order = append(m.order, post.ID)
	return post, nil
}

func (m *memoryPostRepo) GetByID(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return domain.Post{}, mongo.ErrNoDocuments
	}
	return post, nil
}

func (m *memoryPostRepo) GetVisible(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok || post.IsDeleted {
		return domain.Post{}, mongo.ErrNoDocuments
	}
	return post, nil
}

func (m *memoryPostRepo) Find(ctx context.Context, filter repository.PostFilter) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []domain.Post
	for i := len(m.order) - 1; i >= 0; i-- {
		post := m.posts[m.order[i]]
		if post.IsDeleted && !filter.IncludeDeleted {
			continue
		}
		if filter.Author != nil && post.Author != *filter.Author {
			continue
		}
		if filter.Published != nil && post.IsPublished != *filter.Published {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(post.Tags, filter.Tags) {
			continue
		}
		if filter.Search != "" && !postMatches(post, filter.Search) {
			continue
		}
		matches = append(matches, post)
	}
	return matches, nil
}

func (m *memoryPostRepo) Update(ctx context.Context, id primitive.ObjectID, update repository.PostUpdate) (domain.Post, error) {
	return m.mutate(id, func(p *domain.Post) {
		if update.Title != nil {
			p.Title = *update.Title
		}
		if update.Content != nil {
			p.Content = *update.Content
		}
		if update.Tags != nil {
			p.Tags = update.Tags
		}
		if update.Images != nil {
			p.Images = update.Images
		}
		if update.IsPublished != nil {
			p.IsPublished = *update.IsPublished
		}
	})
}

func (m *memoryPostRepo) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	// Matches the store: bumping a missing post is not an error.
	_, _ = m.mutate(id, func(p *domain.Post) { p.Views++ })
	return nil
}

func (m *memoryPostRepo) AddLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error) {
	return m.mutate(id, func(p *domain.Post) {
		for _, like := range p.Likes {
			if like == userID {
				return
			}
		}
		p.Likes = append(p.Likes, userID)
	})
}

func (m *memoryPostRepo) RemoveLike(ctx context.Context, id, userID primitive.ObjectID) (domain.Post, error) {
	return m.mutate(id, func(p *domain.Post) {
		kept := p.Likes[:0]
		for _, like := range p.Likes {
			if like != userID {
				kept = append(kept, like)
			}
		}
		p.Likes = kept
	})
}

func (m *memoryPostRepo) AddComment(ctx context.Context, id primitive.ObjectID, comment domain.Comment) (domain.Post, error) {
	return m.mutate(id, func(p *domain.Post) { p.Comments = append(p.Comments, comment) })
}

func (m *memoryPostRepo) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (domain.Post, error) {
	return m.mutate(id, func(p *domain.Post) {
		kept := p.Comments[:0]
		for _, c := range p.Comments {
			if c.ID != commentID {
				kept = append(kept, c)
			}
		}
		p.Comments = kept
	})
}

func (m *memoryPostRepo) SetPublished(ctx context.Context, id primitive.ObjectID, published bool, publishedAt, scheduledAt *time.Time) error {
	_, err := m.mutate(id, func(p *domain.Post) {
		p.IsPublished = published
		if publishedAt != nil {
			p.PublishedAt = publishedAt
		}
		if scheduledAt != nil {
			p.ScheduledAt = scheduledAt
		}
	})
	return err
}

func (m *memoryPostRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, unpublish bool) error {
	_, err := m.mutate(id, func(p *domain.Post) {
		p.IsDeleted = true
		if unpublish {
			p.IsPublished = false
		}
	})
	return err
}

func (m *memoryPostRepo) Restore(ctx context.Context, id primitive.ObjectID, republish bool) error {
	_, err := m.mutate(id, func(p *domain.Post) {
		p.IsDeleted = false
		if republish {
			p.IsPublished = true
		}
	})
	return err
}

func (m *memoryPostRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(m.posts, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memoryPostRepo) Trending(ctx context.Context, since time.Time, limit int64) ([]domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []domain.Post
	for _, id := range m.order {
		post := m.posts[id]
		if post.IsDeleted || !post.IsPublished || post.CreatedAt.Before(since) {
			continue
		}
		matches = append(matches, post)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].Likes) > len(matches[j].Likes)
	})
	if int64(len(matches)) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *memoryPostRepo) mutate(id primitive.ObjectID, fn func(*domain.Post)) (domain.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	post, ok := m.posts[id]
	if !ok {
		return domain.Post{}, mongo.ErrNoDocuments
	}
	fn(&post)
	post.UpdatedAt = time.Now()
	m.posts[id] = post
	return post, nil
}

func hasAnyTag(postTags, wanted []string) bool {
	for _, w := range wanted {
		for _, t := range postTags {
			if t == w {
				return true
			}
		}
	}
	return false
}

func postMatches(post domain.Post, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(post.Title), q) || strings.Contains(strings.ToLower(post.Content), q) {
		return true
	}
	for _, tag := range post.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// memoryTokenRepo stores revocation records keyed by jti.
type memoryTokenRepo struct {
	mu      sync.Mutex
	records map[string]domain.Token
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{records: make(map[string]domain.Token)}
}

func (m *memoryTokenRepo) Create(ctx context.Context, token domain.Token) (domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token.ID.IsZero() {
		token.ID = primitive.NewObjectID()
	}
	token.CreatedAt = time.Now()
	m.records[token.JWTID] = token
	return token, nil
}

func (m *memoryTokenRepo) GetByJWTID(ctx context.Context, jwtID string) (domain.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[jwtID]
	if !ok {
		return domain.Token{}, mongo.ErrNoDocuments
	}
	return record, nil
}

// captureMailer records messages instead of delivering them.
type captureMailer struct {
	mu       sync.Mutex
	messages []mail.Message
}

func (m *captureMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}
