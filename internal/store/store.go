// Package store declares the abstract persistence collaborator the record
// engine consumes (spec.md §6): a SQL or document backend is expected to
// implement TransactionContext, but this package never assumes which.
package store

import (
	"context"

	"recordkit/internal/action"
	"recordkit/internal/value"
)

// Filter is a backend-agnostic WHERE expression. The engine builds these
// purely from schema-known field/column names; a concrete Store translates
// Filter into its native query language.
type Filter struct {
	// Equals is a conjunction of column-name -> expected-value equality
	// constraints, sufficient for identifier lookups and intrinsic
	// where-unique clauses (spec.md glossary).
	Equals map[string]value.Value
	// Raw carries a backend-specific filter (e.g. a parsed `where` clause
	// from the HTTP payload) that Equals cannot express; backends that
	// don't support it should error rather than silently ignore it.
	Raw any
	// OrderBy, Take, Skip support the selection grammar's include options
	// (spec.md §6).
	OrderBy []OrderTerm
	Take    *int
	Skip    *int
}

// OrderTerm is one ORDER BY clause element.
type OrderTerm struct {
	Column string
	Desc   bool
}

// Row is a physical-column-keyed tuple read back from the store, keyed by
// column name (not field name) the way spec.md §4.2.6's "db" identifier
// view is keyed.
type Row map[string]value.Value

// ModelName is the schema-qualified name a Store dispatches on; kept as a
// string here rather than importing the schema package, which would create
// an import cycle (schema fields hold Pipelines that may reference a
// TransactionContext through pipeline.Ctx).
type ModelName string

// BatchFunc is applied to each matching row inside the same transaction a
// cascade/nullify batch runs under (spec.md §4.2.5).
type BatchFunc func(ctx context.Context, row Row) error

// TransactionContext is the abstract handle to a Store, scoped to one
// request/transaction (spec.md §5 "Transactions"). All records born within
// one transaction share the same TransactionContext; nested saves never
// cross transactions.
type TransactionContext interface {
	// FindUnique returns a single row matching filter, or ok=false if none
	// exists. act carries FIND|... bits for audit/dispatch; initiator is the
	// resolved identity (may be value.Null).
	FindUnique(ctx context.Context, model ModelName, filter Filter, act action.Action, initiator value.Value) (Row, bool, error)

	// FindMany returns all matching rows.
	FindMany(ctx context.Context, model ModelName, filter Filter, act action.Action, initiator value.Value) ([]Row, error)

	// Count returns the number of rows matching filter, used by Deny-rule
	// cascade checks (spec.md §4.2.5).
	Count(ctx context.Context, model ModelName, filter Filter) (uint64, error)

	// SaveObject persists values (an ordered column-name -> Value map) for
	// the row identified by identifiers (empty on insert). It returns the
	// post-save row (including any store-assigned defaults/auto values).
	SaveObject(ctx context.Context, model ModelName, identifiers Row, values Row, isNew bool) (Row, error)

	// DeleteObject removes the row identified by identifiers.
	DeleteObject(ctx context.Context, model ModelName, identifiers Row) error

	// Batch applies f to every row matching filter, inside the same
	// transaction, used for Cascade/Nullify delete-rule dispatch.
	Batch(ctx context.Context, model ModelName, filter Filter, act action.Action, initiator value.Value, f BatchFunc) error

	// Begin starts a nested-scope transaction; committing/rolling back the
	// child never affects the parent's lifetime beyond its own scope.
	// Implementations that don't support true nesting may return the
	// receiver wrapped with a no-op Commit/Rollback.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a scoped sub-transaction returned by TransactionContext.Begin.
type Tx interface {
	TransactionContext
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ErrNotFound is returned by store adapters (not TransactionContext, whose
// FindUnique signals absence via its bool return) for operations that must
// find exactly one row, such as DeleteObject/SaveObject-by-identifier.
var ErrNotFound = &NotFoundError{}

// NotFoundError marks a store operation that required an existing row but
// found none.
type NotFoundError struct {
	Model ModelName
}

func (e *NotFoundError) Error() string {
	if e.Model == "" {
		return "store: row not found"
	}
	return "store: row not found: " + string(e.Model)
}
