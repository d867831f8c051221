package pipeline

import "recordkit/internal/rkerr"

// invalidErr converts a validator's Invalid(reason) into the ValueError
// the spec requires (spec.md §4.1), attaching the current ctx path.
func invalidErr(ctx Ctx, reason string) error {
	path := make(rkerr.Path, len(ctx.Path))
	for i, k := range ctx.Path {
		path[i] = rkerr.Key(k)
	}
	return rkerr.New(rkerr.ValueError, reason).At(path)
}

// typeErr converts a coercion failure into the TypeError spec.md §4.1
// requires ("Coercion failure produces TypeError(path)").
func typeErr(ctx Ctx, want string) error {
	path := make(rkerr.Path, len(ctx.Path))
	for i, k := range ctx.Path {
		path[i] = rkerr.Key(k)
	}
	return rkerr.New(rkerr.TypeError, "expected "+want).At(path)
}
