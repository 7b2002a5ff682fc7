package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// ScreenHeader names the UI screen an operation was triggered from.
	ScreenHeader     = "X-Screen"
	contextScreenKey = "audit_screen"
	maxScreenLength  = 80
)

// Screen stores the caller's screen name for the audit trail.
func Screen() gin.HandlerFunc {
	return func(c *gin.Context) {
		if screen := strings.TrimSpace(c.GetHeader(ScreenHeader)); screen != "" {
			if len(screen) > maxScreenLength {
				screen = screen[:maxScreenLength]
			}
			c.Set(contextScreenKey, screen)
		}
		c.Next()
	}
}

// ScreenName returns the screen stored by Screen, or fallback when none was sent.
func ScreenName(c *gin.Context, fallback string) string {
	if v, ok := c.Get(contextScreenKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
