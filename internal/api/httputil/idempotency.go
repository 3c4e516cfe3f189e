package httputil

import "github.com/gin-gonic/gin"

// IdempotencyKey prefers the Idempotency-Key header and falls back to the
// body field, so both curl users and the mobile client are covered.
func IdempotencyKey(c *gin.Context, fromBody string) string {
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		return key
	}
	return fromBody
}
