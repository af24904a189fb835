package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prathoseraaj/papit/backend/internal/room"
)

const userContextKey = "collabUser"

// AnonymousColor is the fallback color for identities the gateway had to
// invent.
const AnonymousColor = "#888"

// IdentityPolicy decides who a connecting client is. The default policy
// trusts whatever the client asserts; swapping in a stricter one (e.g.
// TokenIdentity) must not require touching the broadcast logic.
type IdentityPolicy interface {
	// Resolve inspects the handshake request and returns the session user.
	// A policy may return an error to reject the connection outright; the
	// trusting policy never does.
	Resolve(r *http.Request) (room.User, error)
}

func AnonymousUser() room.User {
	return room.User{ID: uuid.NewString(), Name: "Anonymous", Color: AnonymousColor}
}

// ClientAsserted parses the ?user= handshake parameter, a JSON-encoded
// {id,name,color}. Anything malformed or missing degrades to a generated
// anonymous identity; the connection is never rejected.
type ClientAsserted struct{}

func (ClientAsserted) Resolve(r *http.Request) (room.User, error) {
	raw := r.URL.Query().Get("user")
	if raw == "" {
		return AnonymousUser(), nil
	}
	var u room.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.ID == "" {
		return AnonymousUser(), nil
	}
	if u.Name == "" {
		u.Name = "Anonymous"
	}
	if u.Color == "" {
		u.Color = AnonymousColor
	}
	// cursor state only ever comes from cursor-changed events
	u.Cursor = nil
	return u, nil
}

// Identify resolves the session identity and stores it in the gin context
// for the websocket handler.
func Identify(policy IdentityPolicy) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := policy.Resolve(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": err.Error(),
			})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// UserFrom returns the identity stored by Identify.
func UserFrom(c *gin.Context) (room.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return room.User{}, false
	}
	u, ok := v.(room.User)
	return u, ok
}

func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
