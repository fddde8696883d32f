package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "texcore/internal/core/context"
)

// HeaderActor names the already-authenticated identity performing the
// request. Authentication itself happens at the gateway in front of this
// service; the ledger only records attribution.
const HeaderActor = "X-Actor"

// Actor middleware propagates the acting identity into the request context.
// Missing header falls back to "system" at the recording site.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if name := c.GetHeader(HeaderActor); name != "" {
			ctx := appctx.WithActor(c.Request.Context(), appctx.Actor{Name: name})
			c.Request = c.Request.WithContext(ctx)
			c.Set("actor", name)
		}
		c.Next()
	}
}
