package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"onboarding-media/pkg/auth"
)

const ContextUserKey = "user_id"

// RequireAuth verifies the bearer token and stashes the user id in the
// request context.
func RequireAuth(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		userId, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextUserKey, userId)
		c.Next()
	}
}

// LimitBody caps the request body before the multipart form is buffered, so
// oversized uploads are rejected without reading them fully.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
