package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Abdelrahmans123/SocialApp/internal/jwt"
	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

const claimsKey = "sessionClaims"

// Auth validates Authorization headers and attaches session claims.
type Auth struct {
	AuthService *service.AuthService
}

// Authenticate ensures the request carries a valid, unrevoked bearer token
// issued after the user's last credential change.
func (m *Auth) Authenticate(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication token is missing"})
		return
	}

	token := header
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		token = parts[1]
	}

	claims, err := m.AuthService.ValidateSession(c.Request.Context(), token)
	if err != nil {
		if appErr, ok := err.(*service.AppError); ok {
			c.AbortWithStatusJSON(appErr.Status, gin.H{"message": appErr.Message})
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	c.Set(claimsKey, claims)
	c.Next()
}

// RequireAdmin rejects authenticated requests whose role is not admin.
// Must run after Authenticate.
func (m *Auth) RequireAdmin(c *gin.Context) {
	claims, ok := GetClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
		return
	}
	if claims.Role != "admin" {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Admin privileges required."})
		return
	}
	c.Next()
}

// GetClaims exposes the session claims to handlers.
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	value, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*jwt.Claims)
	return claims, ok
}
