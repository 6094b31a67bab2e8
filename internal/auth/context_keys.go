package auth

import "github.com/gin-gonic/gin"

// ContextKey types the gin context keys the auth middleware writes, so
// handlers cannot reach them with a mistyped literal.
type ContextKey string

// Keys set by Middleware after a session resolves to a user.
const (
	// CtxKeyUserID holds the authenticated user's ID.
	CtxKeyUserID ContextKey = "user_id"
	// CtxKeyUsername holds the authenticated user's username.
	CtxKeyUsername ContextKey = "username"
	// CtxKeyUserRole holds the role the RBAC checks run against.
	CtxKeyUserRole ContextKey = "user_role"
	// CtxKeyAuthMethod holds how this session was established (local/oidc).
	CtxKeyAuthMethod ContextKey = "auth_method"
)

// UserContext bundles everything Middleware knows about the request's user.
type UserContext struct {
	UserID     int64
	Username   string
	Role       string
	AuthMethod string
}

// SetUserContext attaches the resolved user to the request context.
func SetUserContext(c *gin.Context, ctx UserContext) {
	c.Set(string(CtxKeyUserID), ctx.UserID)
	c.Set(string(CtxKeyUsername), ctx.Username)
	c.Set(string(CtxKeyUserRole), ctx.Role)
	c.Set(string(CtxKeyAuthMethod), ctx.AuthMethod)
}

// UserID returns the authenticated user's ID, false when unauthenticated.
func UserID(c *gin.Context) (int64, bool) {
	return getContextInt64(c, CtxKeyUserID)
}

// UserRole returns the authenticated user's role. Status handlers use this
// for the per-track permission check.
func UserRole(c *gin.Context) (string, bool) {
	return getContextString(c, CtxKeyUserRole)
}

// getContextInt64 reads an int64 context value, tolerating int.
func getContextInt64(c *gin.Context, key ContextKey) (int64, bool) {
	val, exists := c.Get(string(key))
	if !exists {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}

// getContextString reads a string context value.
func getContextString(c *gin.Context, key ContextKey) (string, bool) {
	val, exists := c.Get(string(key))
	if !exists {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return "", false
}
