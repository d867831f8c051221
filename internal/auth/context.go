package auth

import "context"

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	authContextKey   contextKey = "authContext"
)

// AuthContext describes the authenticated caller behind a request, set by
// AuthMiddleware's JWT and S2S paths alike (internal/auth/s2s.go).
type AuthContext struct {
	WorkspaceID string
	ActorID     string
	ActorType   string // "user" for JWT callers, "service" for S2S callers
	AuthMethod  string // "jwt" or "s2s"
	Issuer      string // set for JWT callers
	Client      string // set for S2S callers
}

// GetClaims retrieves the validated JWT claims a JWT-authenticated request
// carries. Absent for S2S-authenticated or unauthenticated requests.
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*CustomClaims)
	return claims, ok
}

// GetAuthContext retrieves the resolved AuthContext for a request
// authenticated by either path.
func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	authCtx, ok := ctx.Value(authContextKey).(*AuthContext)
	return authCtx, ok
}
