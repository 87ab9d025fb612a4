package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdelrahmans123/SocialApp/internal/http/middleware"
	"github.com/Abdelrahmans123/SocialApp/internal/repository"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

// PostHandler exposes the post CRUD, engagement and moderation endpoints.
type PostHandler struct {
	Posts *service.PostService
}

func NewPostHandler(posts *service.PostService) *PostHandler {
	return &PostHandler{Posts: posts}
}

// Create publishes a new post for the authenticated user.
func (h *PostHandler) Create(c *gin.Context) {
	var req struct {
		Title   string   `json:"title" binding:"required,min=3,max=200"`
		Content string   `json:"content" binding:"required,min=3"`
		Tags    []string `json:"tags"`
		Images  []string `json:"images"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	author, err := claims.Subject()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	post, err := h.Posts.Create(c.Request.Context(), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Author:  author,
		Tags:    req.Tags,
		Images:  req.Images,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Post created successfully", "data": post})
}

// List returns a filtered, paginated page of posts.
func (h *PostHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	in := service.ListPostsInput{
		Page:   page,
		Limit:  limit,
		Author: c.Query("author"),
		Search: c.Query("search"),
	}
	if raw := c.Query("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				in.Tags = append(in.Tags, tag)
			}
		}
	}
	if raw := c.Query("published"); raw != "" {
		published := raw == "true"
		in.Published = &published
	}

	pageResult, err := h.Posts.List(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Posts fetched successfully", "data": pageResult})
}

// Get returns a single visible post and counts the view.
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	post, err := h.Posts.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post fetched successfully", "data": post})
}

// Update edits the mutable fields of a post.
func (h *PostHandler) Update(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	var req struct {
		Title       *string  `json:"title" binding:"omitempty,min=3,max=200"`
		Content     *string  `json:"content" binding:"omitempty,min=3"`
		Tags        []string `json:"tags"`
		Images      []string `json:"images"`
		IsPublished *bool    `json:"isPublished"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	post, err := h.Posts.Update(c.Request.Context(), id, repository.PostUpdate{
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		Images:      req.Images,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "data": post})
}

// Search finds published posts matching the query string.
func (h *PostHandler) Search(c *gin.Context) {
	posts, err := h.Posts.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Posts fetched successfully", "data": posts})
}

// ByAuthor lists the visible posts of one author.
func (h *PostHandler) ByAuthor(c *gin.Context) {
	author, err := primitive.ObjectIDFromHex(c.Param("authorId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid author id"})
		return
	}

	posts, err := h.Posts.ByAuthor(c.Request.Context(), author)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Posts fetched successfully", "data": posts})
}

// Trending returns the most liked posts of the last week.
func (h *PostHandler) Trending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	posts, err := h.Posts.Trending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Trending posts fetched successfully", "data": posts})
}

// ToggleLike likes the post, or unlikes it when already liked.
func (h *PostHandler) ToggleLike(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	userID, err := claims.Subject()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	result, err := h.Posts.ToggleLike(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": result.Message,
		"data":    gin.H{"likeCount": result.LikeCount, "post": result.Post},
	})
}

// AddComment appends a comment to the post.
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	userID, err := claims.Subject()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	post, err := h.Posts.AddComment(c.Request.Context(), id, userID, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment added successfully", "data": post})
}

// RemoveComment deletes a comment from the post.
func (h *PostHandler) RemoveComment(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}
	commentID, err := primitive.ObjectIDFromHex(c.Param("commentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment id"})
		return
	}

	post, err := h.Posts.RemoveComment(c.Request.Context(), id, commentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment removed successfully", "data": post})
}

// TogglePublish flips the published state of a post.
func (h *PostHandler) TogglePublish(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	message, post, err := h.Posts.TogglePublish(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "data": post})
}

// SoftDelete marks the post deleted and hides it from listings.
func (h *PostHandler) SoftDelete(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	if err := h.Posts.SoftDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// Restore brings a soft-deleted post back.
func (h *PostHandler) Restore(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	post, err := h.Posts.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post restored successfully", "data": post})
}

// HardDelete permanently removes the post document.
func (h *PostHandler) HardDelete(c *gin.Context) {
	id, ok := h.postID(c)
	if !ok {
		return
	}

	if err := h.Posts.HardDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post permanently deleted"})
}

// BulkOperations applies one moderation operation to a batch of posts.
// The status code reflects the tally: 200 all succeeded, 400 all failed,
// 207 mixed.
func (h *PostHandler) BulkOperations(c *gin.Context) {
	var req struct {
		PostIDs     []string   `json:"postIds" binding:"required,min=1,max=100"`
		Operation   string     `json:"operation" binding:"required,oneof=publish unpublish delete restore hard-delete"`
		Reason      string     `json:"reason" binding:"omitempty,max=500"`
		ScheduledAt *time.Time `json:"scheduledAt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	summary := h.Posts.BulkOperations(c.Request.Context(), req.PostIDs, req.Operation, req.ScheduledAt)

	message := "Bulk " + req.Operation + " completed successfully"
	switch {
	case summary.Successful == 0:
		message = "All " + req.Operation + " operations failed"
	case summary.Failed > 0:
		message = "Bulk " + req.Operation + " completed with some failures"
	}

	c.JSON(summary.Status(), gin.H{
		"success": summary.Failed == 0,
		"message": message,
		"data":    summary,
	})
}

func (h *PostHandler) postID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
