package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Abdelrahmans123/SocialApp/internal/config"
	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
)

const trendingWindow = 7 * 24 * time.Hour

// Bulk operation names accepted by BulkOperations.
const (
	BulkPublish    = "publish"
	BulkUnpublish  = "unpublish"
	BulkDelete     = "delete"
	BulkRestore    = "restore"
	BulkHardDelete = "hard-delete"
)

// CreatePostInput carries validated post creation fields.
type CreatePostInput struct {
	Title   string
	Content string
	Author  primitive.ObjectID
	Tags    []string
	Images  []string
}

// ListPostsInput narrows and paginates the post listing.
type ListPostsInput struct {
	Page      int
	Limit     int
	Author    string
	Tags      []string
	Published *bool
	Search    string
}

// PostPage is one page of the post listing.
type PostPage struct {
	Posts       []domain.Post `json:"posts"`
	TotalPosts  int           `json:"totalPosts"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
}

// LikeResult reports the outcome of a like toggle.
type LikeResult struct {
	Message   string      `json:"message"`
	LikeCount int         `json:"likeCount"`
	Post      domain.Post `json:"post"`
}

// BulkOperationResult is the per-id outcome of a bulk operation.
type BulkOperationResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
	Error   string `json:"error,omitempty"`
}

// BulkOperationSummary aggregates a whole batch. Successful+Failed always
// equals TotalRequested.
type BulkOperationSummary struct {
	TotalRequested int                   `json:"totalRequested"`
	Successful     int                   `json:"successful"`
	Failed         int                   `json:"failed"`
	Results        []BulkOperationResult `json:"results"`
}

// Status maps the tally onto the batch response status: 200 when nothing
// failed, 400 when nothing succeeded, 207 Multi-Status otherwise. The
// mapping depends only on the counts, never on the operation.
func (s BulkOperationSummary) Status() int {
	switch {
	case s.Failed == 0:
		return http.StatusOK
	case s.Successful == 0:
		return http.StatusBadRequest
	default:
		return http.StatusMultiStatus
	}
}

// PostService implements the post lifecycle: CRUD, the soft-delete state
// machine, likes, comments, search, trending and admin bulk operations.
type PostService struct {
	posts  repository.PostRepository
	cfg    config.Config
	logger *zap.Logger
}

// NewPostService wires the post lifecycle.
func NewPostService(posts repository.PostRepository, cfg config.Config, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, cfg: cfg, logger: logger}
}

// Create stores a new post owned by the authenticated author.
func (s *PostService) Create(ctx context.Context, in CreatePostInput) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Create")
	defer span.End()

	post := domain.Post{
		Title:       in.Title,
		Content:     in.Content,
		Author:      in.Author,
		Tags:        in.Tags,
		Images:      in.Images,
		IsPublished: true,
	}

	created, err := s.posts.Create(ctx, post)
	if err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}

	s.logger.Info("post created", zap.String("post_id", created.ID.Hex()), zap.String("author", created.Author.Hex()))
	return created, nil
}

// List returns one page of non-deleted posts, newest first.
func (s *PostService) List(ctx context.Context, in ListPostsInput) (PostPage, error) {
	ctx, span := s.startSpan(ctx, "PostService.List")
	defer span.End()

	filter := repository.PostFilter{
		Tags:      in.Tags,
		Published: in.Published,
		Search:    in.Search,
	}
	if in.Author != "" {
		author, err := primitive.ObjectIDFromHex(in.Author)
		if err != nil {
			return PostPage{}, badRequest("Invalid author id")
		}
		filter.Author = &author
	}

	posts, err := s.posts.Find(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return PostPage{}, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = 10
	}

	total := len(posts)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return PostPage{
		Posts:       posts[start:end],
		TotalPosts:  total,
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get increments the view counter and returns the post unless it is
// soft-deleted.
func (s *PostService) Get(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Get")
	defer span.End()

	if err := s.posts.IncrementViews(ctx, id); err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}

	post, err := s.posts.GetVisible(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return domain.Post{}, err
	}
	return post, nil
}

// Update applies a partial edit.
func (s *PostService) Update(ctx context.Context, id primitive.ObjectID, update repository.PostUpdate) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Update")
	defer span.End()

	post, err := s.posts.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return domain.Post{}, err
	}
	return post, nil
}

// Search returns published, non-deleted posts matching q in title, content
// or tags, case-insensitively.
func (s *PostService) Search(ctx context.Context, q string) ([]domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Search")
	defer span.End()

	published := true
	posts, err := s.posts.Find(ctx, repository.PostFilter{Published: &published, Search: q})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return posts, nil
}

// ByAuthor returns the author's non-deleted posts, newest first.
func (s *PostService) ByAuthor(ctx context.Context, author primitive.ObjectID) ([]domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.ByAuthor")
	defer span.End()

	posts, err := s.posts.Find(ctx, repository.PostFilter{Author: &author})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return posts, nil
}

// Trending ranks posts created within the last seven days by raw like
// count descending. No decay, no tie-break.
func (s *PostService) Trending(ctx context.Context, limit int) ([]domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Trending")
	defer span.End()

	if limit < 1 {
		limit = 10
	}
	posts, err := s.posts.Trending(ctx, time.Now().Add(-trendingWindow), int64(limit))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return posts, nil
}

// ToggleLike flips the user's membership in the post's likes. The
// membership check reads current state, then the mutation is a single
// atomic $addToSet or $pull, so concurrent toggles cannot corrupt the set.
func (s *PostService) ToggleLike(ctx context.Context, id, userID primitive.ObjectID) (LikeResult, error) {
	ctx, span := s.startSpan(ctx, "PostService.ToggleLike")
	defer span.End()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return LikeResult{}, notFound("Post not found")
		}
		span.RecordError(err)
		return LikeResult{}, err
	}

	liked := false
	for _, like := range post.Likes {
		if like == userID {
			liked = true
			break
		}
	}

	var updated domain.Post
	var message string
	if liked {
		updated, err = s.posts.RemoveLike(ctx, id, userID)
		message = "Post unliked"
	} else {
		updated, err = s.posts.AddLike(ctx, id, userID)
		message = "Post liked"
	}
	if err != nil {
		span.RecordError(err)
		return LikeResult{}, err
	}

	return LikeResult{Message: message, LikeCount: updated.LikeCount(), Post: updated}, nil
}

// AddComment appends a server-stamped comment.
func (s *PostService) AddComment(ctx context.Context, id, userID primitive.ObjectID, content string) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.AddComment")
	defer span.End()

	if _, err := s.posts.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return domain.Post{}, err
	}

	comment := domain.Comment{
		ID:        primitive.NewObjectID(),
		User:      userID,
		Content:   content,
		CreatedAt: time.Now(),
	}

	post, err := s.posts.AddComment(ctx, id, comment)
	if err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}
	return post, nil
}

// RemoveComment drops the comment with the given id.
func (s *PostService) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.RemoveComment")
	defer span.End()

	if _, err := s.posts.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return domain.Post{}, err
	}

	post, err := s.posts.RemoveComment(ctx, id, commentID)
	if err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}
	return post, nil
}

// TogglePublish flips the published flag and reports the new state.
func (s *PostService) TogglePublish(ctx context.Context, id primitive.ObjectID) (string, domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.TogglePublish")
	defer span.End()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return "", domain.Post{}, err
	}

	message := "Post published"
	if post.IsPublished {
		message = "Post unpublished"
	}
	if err := s.posts.SetPublished(ctx, id, !post.IsPublished, nil, nil); err != nil {
		span.RecordError(err)
		return "", domain.Post{}, err
	}

	updated, err := s.posts.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return "", domain.Post{}, err
	}
	return message, updated, nil
}

// SoftDelete flags the post deleted.
func (s *PostService) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := s.startSpan(ctx, "PostService.SoftDelete")
	defer span.End()

	if err := s.posts.SoftDelete(ctx, id, false); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Restore moves a soft-deleted post back to active. Restoring a post that
// is not soft-deleted is rejected.
func (s *PostService) Restore(ctx context.Context, id primitive.ObjectID) (domain.Post, error) {
	ctx, span := s.startSpan(ctx, "PostService.Restore")
	defer span.End()

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Post{}, notFound("Post not found")
		}
		span.RecordError(err)
		return domain.Post{}, err
	}
	if !post.IsDeleted {
		return domain.Post{}, badRequest("Post is not deleted")
	}

	if err := s.posts.Restore(ctx, id, false); err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}

	updated, err := s.posts.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}
	return updated, nil
}

// HardDelete removes the post permanently. The single-item path carries no
// soft-delete precondition; only the bulk path enforces delete-before-purge.
func (s *PostService) HardDelete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := s.startSpan(ctx, "PostService.HardDelete")
	defer span.End()

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound("Post not found")
		}
		span.RecordError(err)
		return err
	}
	return nil
}

// BulkOperations applies one operation to each id independently and
// sequentially; a failing id never aborts the batch. The summary carries
// one result per id and the tally the response status derives from.
func (s *PostService) BulkOperations(ctx context.Context, postIDs []string, operation string, scheduledAt *time.Time) BulkOperationSummary {
	ctx, span := s.startSpan(ctx, "PostService.BulkOperations")
	defer span.End()

	summary := BulkOperationSummary{
		TotalRequested: len(postIDs),
		Results:        make([]BulkOperationResult, 0, len(postIDs)),
	}

	for _, postID := range postIDs {
		result := s.applyBulkOperation(ctx, postID, operation, scheduledAt)
		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	s.logger.Info("bulk operation finished",
		zap.String("operation", operation),
		zap.Int("requested", summary.TotalRequested),
		zap.Int("successful", summary.Successful),
		zap.Int("failed", summary.Failed),
	)
	return summary
}

func (s *PostService) applyBulkOperation(ctx context.Context, postID, operation string, scheduledAt *time.Time) BulkOperationResult {
	fail := func(message string) BulkOperationResult {
		return BulkOperationResult{Success: false, PostID: postID, Error: message}
	}

	id, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fail("Invalid post id")
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fail("Post not found")
		}
		return fail(err.Error())
	}

	switch operation {
	case BulkPublish:
		if post.IsDeleted {
			return fail("Cannot publish deleted post")
		}
		now := time.Now()
		err = s.posts.SetPublished(ctx, id, true, &now, scheduledAt)
	case BulkUnpublish:
		if post.IsDeleted {
			return fail("Cannot unpublish deleted post")
		}
		err = s.posts.SetPublished(ctx, id, false, nil, nil)
	case BulkDelete:
		if post.IsDeleted {
			return fail("Post is already deleted")
		}
		err = s.posts.SoftDelete(ctx, id, true)
	case BulkRestore:
		if !post.IsDeleted {
			return fail("Post is not deleted")
		}
		err = s.posts.Restore(ctx, id, true)
	case BulkHardDelete:
		if !post.IsDeleted {
			return fail("Post must be soft deleted first")
		}
		err = s.posts.Delete(ctx, id)
	default:
		return fail("Invalid operation")
	}

	if err != nil {
		return fail(fmt.Sprintf("Failed to %s post: %v", operation, err))
	}
	return BulkOperationResult{Success: true, PostID: postID}
}

func (s *PostService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(s.cfg.ServiceName).Start(ctx, name)
}
