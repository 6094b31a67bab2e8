package config

import "net/http"

// AuthMethod selects how users sign in to the Depotrack API: password login,
// an OIDC provider, or both side by side.
type AuthMethod string

// Supported values for DEPOTRACK_AUTH_METHOD.
const (
	AuthMethodLocal AuthMethod = "local"
	AuthMethodOIDC  AuthMethod = "oidc"
	AuthMethodBoth  AuthMethod = "both"
)

// IsValid reports whether the method is one of the supported values.
func (a AuthMethod) IsValid() bool {
	switch a {
	case AuthMethodLocal, AuthMethodOIDC, AuthMethodBoth:
		return true
	}
	return false
}

// SupportsLocal reports whether username/password login is enabled.
func (a AuthMethod) SupportsLocal() bool {
	return a == AuthMethodLocal || a == AuthMethodBoth
}

// SupportsOIDC reports whether the OIDC flow is enabled.
func (a AuthMethod) SupportsOIDC() bool {
	return a == AuthMethodOIDC || a == AuthMethodBoth
}

// Environment is the deployment environment (DEPOTRACK_ENV). Production
// tightens cookies and switches gin to release mode.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
)

// IsValid reports whether the environment is a known value.
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvProduction:
		return true
	}
	return false
}

// IsProduction reports whether this is the production environment.
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// CookieSameSite is the session cookie's SameSite policy
// (DEPOTRACK_COOKIE_SAMESITE).
type CookieSameSite string

const (
	SameSiteStrict CookieSameSite = "strict"
	SameSiteLax    CookieSameSite = "lax"
	SameSiteNone   CookieSameSite = "none"
)

// IsValid reports whether the policy is a known value.
func (c CookieSameSite) IsValid() bool {
	switch c {
	case SameSiteStrict, SameSiteLax, SameSiteNone:
		return true
	}
	return false
}

// ToHTTP maps the configured policy to the net/http constant, defaulting
// to Lax for anything unrecognized.
func (c CookieSameSite) ToHTTP() http.SameSite {
	switch c {
	case SameSiteStrict:
		return http.SameSiteStrictMode
	case SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SessionStoreType picks the backing store for session data.
type SessionStoreType string

const (
	StoreTypeMemory SessionStoreType = "memory"
	StoreTypeCookie SessionStoreType = "cookie"
)
