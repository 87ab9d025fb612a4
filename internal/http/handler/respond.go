package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Abdelrahmans123/SocialApp/internal/service"
)

// fieldViolation is one invalid request field.
type fieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// respondError maps a business-rule rejection to its status and anything
// else to a 500.
func respondError(c *gin.Context, err error) {
	var appErr *service.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Status, gin.H{"message": appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error", "cause": err.Error()})
}

// respondBindingError turns request-shape violations into a field list.
func respondBindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		violations := make([]fieldViolation, 0, len(validationErrs))
		for _, fe := range validationErrs {
			violations = append(violations, fieldViolation{
				Field:   fe.Field(),
				Message: fe.Error(),
			})
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Validation Error", "errors": violations})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}
