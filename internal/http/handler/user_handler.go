package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Abdelrahmans123/SocialApp/internal/domain"
	"github.com/Abdelrahmans123/SocialApp/internal/http/middleware"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

// UserHandler exposes the profile and account lifecycle endpoints.
type UserHandler struct {
	Users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{Users: users}
}

// Profile returns another user's public profile.
func (h *UserHandler) Profile(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	owner := false
	if claims, ok := middleware.GetClaims(c); ok {
		if callerID, err := claims.Subject(); err == nil {
			owner = callerID == id
		}
	}

	user, err := h.Users.Profile(c.Request.Context(), id, owner)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile fetched successfully", "data": user})
}

// UpdateAvatar sets the caller's profile image.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var req struct {
		PublicID string `json:"publicId" binding:"required"`
		URL      string `json:"url" binding:"required,url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	id, ok := h.callerID(c)
	if !ok {
		return
	}

	user, err := h.Users.UpdateAvatar(c.Request.Context(), id, domain.Avatar{
		PublicID: req.PublicID,
		URL:      req.URL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile image updated successfully", "data": user})
}

// Search finds users by name or email fragment.
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.Users.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Users fetched successfully", "data": users})
}

// Update edits the caller's own profile fields.
func (h *UserHandler) Update(c *gin.Context) {
	var req struct {
		Name  *string `json:"name" binding:"omitempty,min=2,max=100"`
		Phone *string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	id, ok := h.callerID(c)
	if !ok {
		return
	}

	user, err := h.Users.Update(c.Request.Context(), id, service.UpdateProfileInput{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "data": user})
}

// Freeze suspends the caller's account.
func (h *UserHandler) Freeze(c *gin.Context) {
	id, ok := h.callerID(c)
	if !ok {
		return
	}

	user, err := h.Users.Freeze(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account frozen successfully", "data": user})
}

// Restore reactivates a frozen account.
func (h *UserHandler) Restore(c *gin.Context) {
	id, ok := h.callerID(c)
	if !ok {
		return
	}

	user, err := h.Users.Restore(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account restored successfully", "data": user})
}

// HardDelete permanently removes a user account. Admin only.
func (h *UserHandler) HardDelete(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id"})
		return
	}

	if err := h.Users.HardDelete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User permanently deleted"})
}

func (h *UserHandler) callerID(c *gin.Context) (primitive.ObjectID, bool) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return primitive.NilObjectID, false
	}
	id, err := claims.Subject()
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return primitive.NilObjectID, false
	}
	return id, true
}
