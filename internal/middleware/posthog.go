package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/p2p_loan_tracker/internal/utils"
	"github.com/gin-gonic/gin"
)

// routesToSkip contains route templates that should not be tracked by PostHog
var routesToSkip = map[string]bool{
	"/health":        true,
	"/api/v1/health": true,
}

// PosthogMiddleware creates a Gin middleware handler that tracks successful
// API calls as PostHog events named after the route template, e.g.
// "/api/v1/loans/:loanID/payments" -> "api_v1_loans_loanID_payments".
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if posthogClient == nil || !posthogClient.IsInitialized() {
			c.Next()
			return
		}

		c.Next()

		route := c.FullPath()
		if route == "" || routesToSkip[route] {
			return
		}
		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		props := map[string]any{
			"method":      c.Request.Method,
			"status_code": c.Writer.Status(),
		}
		// Loan IDs are kept; they are opaque UUIDs.
		if loanID := c.Param("loanID"); loanID != "" {
			props["loan_id"] = loanID
		}

		posthogClient.Enqueue(userID, EventName(route), props)
	}
}

// EventName converts a route template into a PostHog event name.
func EventName(route string) string {
	name := strings.TrimPrefix(route, "/")
	name = strings.ReplaceAll(name, ":", "")
	return strings.ReplaceAll(name, "/", "_")
}
