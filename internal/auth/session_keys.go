package auth

// SessionKey types the keys stored in the session cookie. Everything the
// session carries goes through these constants and the helpers below.
type SessionKey string

// Keys written at login and read back by the auth middleware.
const (
	// SessKeyUserID identifies the signed-in user
	SessKeyUserID SessionKey = "user_id"
	// SessKeyUsername caches the username for logging
	SessKeyUsername SessionKey = "username"
	// SessKeyRole caches the role the session was created with
	SessKeyRole SessionKey = "role"
	// SessKeyAuthMethod records how the session was established (local/oidc)
	SessKeyAuthMethod SessionKey = "auth_method"
	// SessKeyOAuthState holds the CSRF state during an OAuth round trip
	SessKeyOAuthState SessionKey = "oauth_state"
	// SessKeyFrontendURL holds the dashboard URL to redirect to after OAuth
	SessKeyFrontendURL SessionKey = "frontend_url"
)

// SessionData is what a successful login writes into the session.
type SessionData struct {
	UserID     int64
	Username   string
	Role       string
	AuthMethod string
}

// SetSessionAuth writes the login result into the session.
func SetSessionAuth(session Session, data SessionData) {
	session.Set(string(SessKeyUserID), data.UserID)
	session.Set(string(SessKeyUsername), data.Username)
	session.Set(string(SessKeyRole), data.Role)
	session.Set(string(SessKeyAuthMethod), data.AuthMethod)
}

// SessionUserID reads the signed-in user's ID, tolerating int-typed values
// from older cookie encodings.
func SessionUserID(session Session) (int64, bool) {
	val := session.Get(string(SessKeyUserID))
	if val == nil {
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

// SessionString reads one string-valued session entry.
func SessionString(session Session, key SessionKey) (string, bool) {
	val := session.Get(string(key))
	if val == nil {
		return "", false
	}
	if s, ok := val.(string); ok {
		return s, true
	}
	return "", false
}

// SessionOAuthState reads the CSRF state saved when the OAuth flow started.
func SessionOAuthState(session Session) (string, bool) {
	return SessionString(session, SessKeyOAuthState)
}

// SessionFrontendURL reads the post-login redirect target.
func SessionFrontendURL(session Session) (string, bool) {
	return SessionString(session, SessKeyFrontendURL)
}

// SetSessionOAuthState saves the CSRF state for the OAuth round trip.
func SetSessionOAuthState(session Session, state string) {
	session.Set(string(SessKeyOAuthState), state)
}

// SetSessionFrontendURL saves the post-login redirect target.
func SetSessionFrontendURL(session Session, url string) {
	session.Set(string(SessKeyFrontendURL), url)
}

// ClearSessionOAuth removes the OAuth round-trip state once the callback
// has been handled.
func ClearSessionOAuth(session Session) {
	session.Delete(string(SessKeyOAuthState))
	session.Delete(string(SessKeyFrontendURL))
}
