package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-verifier/internal/pkg/common"
)

// inflightTracker remembers request fingerprints currently being processed
// so an impatient client resubmitting the same payload does not trigger a
// second expensive generation run.
type inflightTracker struct {
	mu      sync.Mutex
	pending map[string]time.Time
	window  time.Duration
}

func newInflightTracker(window time.Duration) *inflightTracker {
	return &inflightTracker{
		pending: make(map[string]time.Time),
		window:  window,
	}
}

func (t *inflightTracker) tryAcquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if started, ok := t.pending[key]; ok && time.Since(started) < t.window {
		return false
	}
	t.pending[key] = time.Now()
	return true
}

func (t *inflightTracker) release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, key)
}

// Deduplication rejects a POST identical to one still in flight within the
// window. The body is restored for downstream handlers.
func Deduplication(window time.Duration) gin.HandlerFunc {
	tracker := newInflightTracker(window)
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: "failed to read request body",
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(append([]byte(c.Request.URL.Path+"\n"), body...))
		key := hex.EncodeToString(sum[:])
		if !tracker.tryAcquire(key) {
			common.LogWarn("duplicate in-flight request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusConflict, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: "identical request already in progress",
			})
			return
		}
		defer tracker.release(key)
		c.Next()
	}
}
