package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"notely-be/internal/apperrors"
	"notely-be/internal/metrics"
	"notely-be/internal/middleware"
	"notely-be/internal/models"
	"notely-be/internal/otp"
)

// respondError renders err with the status its kind maps to. Unexpected
// errors are recorded on the context for the request logger and never leak
// to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var mismatch *otp.MismatchError
	if errors.As(err, &mismatch) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             mismatch.Error(),
			"attemptsRemaining": mismatch.Remaining,
		})
		return
	}
	if otp.IsCodeError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": codeMessage(err)})
		return
	}

	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Validation failed",
			"details": ve.Fields,
		})
		return
	}

	status := apperrors.StatusCode(err)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(status, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(status, gin.H{"error": "An account with this email already exists"})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(status, gin.H{"error": "Invalid email or password"})
	case status == http.StatusUnauthorized:
		c.JSON(status, gin.H{"error": "Unauthorized"})
	default:
		metrics.TrackError("internal")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error",
			"request_id": middleware.RequestID(c),
		})
	}
}

func codeMessage(err error) string {
	switch {
	case errors.Is(err, otp.ErrCodeExpired):
		return "Verification code has expired"
	case errors.Is(err, otp.ErrAttemptsExhausted):
		return "Too many failed attempts. Please request a new code"
	default:
		return "Invalid or expired verification code"
	}
}

// bindJSON decodes and validates the body into dst, answering the request
// itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
		return
	}

	if verr := models.ToValidationError(err); apperrors.IsValidation(verr) {
		respondError(c, verr)
		return
	}

	details := "malformed JSON"
	if errors.Is(err, io.EOF) {
		details = "empty body"
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": details,
	})
}

// currentUser returns the id set by the auth middleware, answering 401 when
// it is missing.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "User ID not found in token",
		})
		return "", false
	}
	return userID, true
}
