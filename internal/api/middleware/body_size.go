package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-verifier/internal/pkg/common"
)

// BodySizeLimit caps the request body at maxBytes. Oversized bodies get 413
// before any handler reads them.
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: "request body too large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
