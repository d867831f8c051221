package auth

import "recordkit/internal/value"

// Initiator resolves validated JWT claims into the value.Value the engine
// threads through pipeline.Ctx.Request.Initiator (SPEC_FULL.md
// [AUTH-IDENTITY]), consumed by the identity pipeline items of the demo
// schema. An unauthenticated request has no claims and gets value.Null —
// identity items short-circuit on that the same way they would on a
// genuinely anonymous caller.
func Initiator(claims *CustomClaims) value.Value {
	if claims == nil {
		return value.Null
	}
	m := value.NewOrderedMap()
	m.Set("actorId", value.String(claims.ActorID))
	m.Set("workspaceId", value.String(claims.WorkspaceID))
	return value.Map(m)
}
