package webserver

import (
	"net/http"
	"time"

	"storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	visitorCookie   = "sf_visitor"
	visitorKey      = "visitor"
)

// requestID tags every request with an id, reusing the caller's when given.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// visitorMiddleware attaches the visitor's storefront client. Reads from
// unknown visitors use the shared guest client; a visitor and its cookie are
// only created once a request writes.
func visitorMiddleware(reg *Registry, ttl time.Duration) gin.HandlerFunc {
	maxAge := int(ttl / time.Second)
	return func(c *gin.Context) {
		id, _ := c.Cookie(visitorCookie)
		if client, ok := reg.Lookup(id); ok {
			c.Set(visitorKey, client)
			c.Next()
			return
		}
		if m := c.Request.Method; m == http.MethodGet || m == http.MethodHead {
			c.Set(visitorKey, reg.Guest())
			c.Next()
			return
		}
		client, assigned := reg.Get(id)
		if assigned != id {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, assigned, maxAge, "/", "", false, true)
		}
		c.Set(visitorKey, client)
		c.Next()
	}
}

func visitorFrom(c *gin.Context) *storefront.Client {
	return c.MustGet(visitorKey).(*storefront.Client)
}
