package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	requestIDKey    = "request_id"
	requestIDHeader = "X-Request-Id"
	identityCtxKey  = "identity"
)

// Identity is the authenticated caller as asserted by the managed identity
// provider. Token issuance and signature validation happen upstream; this
// layer only reads the claims it is handed.
type Identity struct {
	Sub      string
	Username string
}

// requestID assigns each request an id, echoed in the response header and
// attached to error logs.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Header(requestIDHeader, rid)
		c.Next()
	}
}

func requestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// identity extracts the caller's identity from a bearer token when one is
// present. The token was already validated by the identity provider and
// the fronting gateway, so claims are read without a local signature
// check. Requests without a usable token proceed anonymously.
func identity() gin.HandlerFunc {
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Next()
			return
		}

		claims := jwt.MapClaims{}
		if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
			c.Next()
			return
		}

		id := Identity{}
		if sub, ok := claims["sub"].(string); ok {
			id.Sub = sub
		}
		if name, ok := claims["cognito:username"].(string); ok {
			id.Username = name
		} else if name, ok := claims["username"].(string); ok {
			id.Username = name
		}
		if id.Sub != "" {
			c.Set(identityCtxKey, id)
		}
		c.Next()
	}
}

// CurrentIdentity returns the authenticated identity for the request, if
// any.
func CurrentIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityCtxKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

func bearerToken(header string) string {
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}
