package schema

import "recordkit/internal/pipeline"

// Property is a derived field computed by a getter pipeline and, for
// mutable properties, written through a setter pipeline that mutates
// sibling fields as a side effect (spec.md §3, §4.2.1).
type Property struct {
	Name         string
	Cached       bool
	Getter       *pipeline.Pipeline
	Setter       *pipeline.Pipeline
	Dependencies []string
}
