package object

import "recordkit/internal/schema"

// relationKind distinguishes the three ways a relation physically links two
// rows (spec.md §4.2.4 "Linking rules"), driving both which phase a
// relation is interpreted in and how a child gets connected to its parent.
type relationKind uint8

const (
	kindOwnsFK    relationKind = iota // P holds the FK columns (r.Fields)
	kindJoinTable                     // linked through r.Through
	kindReverseFK                     // the child holds the FK columns (r.References)
)

func kindOf(r *schema.Relation) relationKind {
	switch {
	case r.HasJoinTable():
		return kindJoinTable
	case r.OwnsForeignKey():
		return kindOwnsFK
	default:
		return kindReverseFK
	}
}
