package middleware

import (
	"net/http"

	"recordkit/internal/auth"
)

// initiatorKey returns the scoping key rate limiting and idempotency key
// both rely on (SPEC_FULL.md [RATE-LIMIT & IDEMPOTENCY]): the authenticated
// caller's actor ID, or "anonymous" for unauthenticated demo requests —
// generalized from the teacher's per-workspace scoping, which required an
// authenticated workspace on every request.
func initiatorKey(r *http.Request) string {
	claims, ok := auth.GetClaims(r.Context())
	if !ok || claims.ActorID == "" {
		return "anonymous"
	}
	return claims.ActorID
}
