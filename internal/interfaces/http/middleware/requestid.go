package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request ID is stored under
const RequestIDKey = "request_id"

// RequestID ensures every request carries an X-Request-ID, generating one
// when the caller did not send it.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// crypto/rand should never fail; fall back to a timestamp ID
		return time.Now().Format("20060102150405.000000000")
	}
	return hex.EncodeToString(bytes)
}
