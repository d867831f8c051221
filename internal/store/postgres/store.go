package postgres

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"recordkit/internal/action"
	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool and pgx.Tx the Store needs, letting
// Store and its Begin-scoped child share one query-building implementation.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error)
}

// pgconnCommandTag aliases pgconn.CommandTag without importing pgconn
// directly in the interface signature; both *pgxpool.Pool and pgx.Tx return
// this concrete type from Exec.
type pgconnCommandTag = interface {
	RowsAffected() int64
}

// Store implements store.TransactionContext over a pgx connection pool,
// translating store.Filter/Row against a schema.Registry the way the
// teacher's internal/repo package hand-wrote one query per domain type —
// here the same shape is generated once per model from the schema instead.
type Store struct {
	pool *pgxpool.Pool
	reg  *schema.Registry
	q    querier
}

// New builds the top-level Store bound to pool, looking up table/column
// names in reg.
func New(pool *pgxpool.Pool, reg *schema.Registry) *Store {
	return &Store{pool: pool, reg: reg, q: poolQuerier{pool}}
}

type poolQuerier struct{ pool *pgxpool.Pool }

func (p poolQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}
func (p poolQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}
func (p poolQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

func (s *Store) model(name store.ModelName) *schema.Model {
	return s.reg.MustModel(string(name))
}

// FindUnique implements store.TransactionContext.
func (s *Store) FindUnique(ctx context.Context, modelName store.ModelName, filter store.Filter, _ action.Action, _ value.Value) (store.Row, bool, error) {
	m := s.model(modelName)
	q, args := buildSelect(m, filter)
	q += " LIMIT 1"
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, false, fmt.Errorf("find unique %s: %w", modelName, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	row, err := scanRow(m, rows)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

// FindMany implements store.TransactionContext.
func (s *Store) FindMany(ctx context.Context, modelName store.ModelName, filter store.Filter, _ action.Action, _ value.Value) ([]store.Row, error) {
	m := s.model(modelName)
	q, args := buildSelect(m, filter)
	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("find many %s: %w", modelName, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		row, err := scanRow(m, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Count implements store.TransactionContext.
func (s *Store) Count(ctx context.Context, modelName store.ModelName, filter store.Filter) (uint64, error) {
	m := s.model(modelName)
	where, args := buildWhere(filter, 1)
	q := fmt.Sprintf(`SELECT count(*) FROM %s%s`, quoteIdent(m.TableName), where)
	var n int64
	if err := s.q.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", modelName, err)
	}
	return uint64(n), nil
}

// SaveObject implements store.TransactionContext.
func (s *Store) SaveObject(ctx context.Context, modelName store.ModelName, identifiers, values store.Row, isNew bool) (store.Row, error) {
	m := s.model(modelName)
	if isNew {
		return s.insert(ctx, m, values)
	}
	return s.update(ctx, m, identifiers, values)
}

func (s *Store) insert(ctx context.Context, m *schema.Model, values store.Row) (store.Row, error) {
	cols := make([]string, 0, len(values))
	placeholders := make([]string, 0, len(values))
	args := make([]any, 0, len(values))
	i := 1
	for col, v := range values {
		cols = append(cols, quoteIdent(col))
		placeholders = append(placeholders, fmt.Sprintf("$%d", i))
		arg, err := valueToSQL(v)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		i++
	}

	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING *`,
		quoteIdent(m.TableName), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if len(cols) == 0 {
		q = fmt.Sprintf(`INSERT INTO %s DEFAULT VALUES RETURNING *`, quoteIdent(m.TableName))
	}

	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, fmt.Errorf("insert %s: no row returned", m.Name)
	}
	return scanRow(m, rows)
}

func (s *Store) update(ctx context.Context, m *schema.Model, identifiers, values store.Row) (store.Row, error) {
	setCols := make([]string, 0, len(values))
	args := make([]any, 0, len(values)+len(identifiers))
	i := 1
	for col, v := range values {
		arg, err := valueToSQL(v)
		if err != nil {
			return nil, err
		}
		setCols = append(setCols, fmt.Sprintf("%s = $%d", quoteIdent(col), i))
		args = append(args, arg)
		i++
	}

	whereCols := make([]string, 0, len(identifiers))
	for col, v := range identifiers {
		arg, err := valueToSQL(v)
		if err != nil {
			return nil, err
		}
		whereCols = append(whereCols, fmt.Sprintf("%s = $%d", quoteIdent(col), i))
		args = append(args, arg)
		i++
	}

	q := fmt.Sprintf(`UPDATE %s SET %s WHERE %s RETURNING *`,
		quoteIdent(m.TableName), strings.Join(setCols, ", "), strings.Join(whereCols, " AND "))

	rows, err := s.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", m.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, store.ErrNotFound
	}
	return scanRow(m, rows)
}

// DeleteObject implements store.TransactionContext.
func (s *Store) DeleteObject(ctx context.Context, modelName store.ModelName, identifiers store.Row) error {
	m := s.model(modelName)
	whereCols := make([]string, 0, len(identifiers))
	args := make([]any, 0, len(identifiers))
	i := 1
	for col, v := range identifiers {
		arg, err := valueToSQL(v)
		if err != nil {
			return err
		}
		whereCols = append(whereCols, fmt.Sprintf("%s = $%d", quoteIdent(col), i))
		args = append(args, arg)
		i++
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE %s`, quoteIdent(m.TableName), strings.Join(whereCols, " AND "))
	tag, err := s.q.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", m.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Batch implements store.TransactionContext, running f once per matching
// row within the same connection/transaction (spec.md §4.2.5 cascade
// dispatch).
func (s *Store) Batch(ctx context.Context, modelName store.ModelName, filter store.Filter, act action.Action, initiator value.Value, f store.BatchFunc) error {
	rows, err := s.FindMany(ctx, modelName, filter, act, initiator)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := f(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

// Begin starts a real pgx transaction, returning a Tx-scoped Store sharing
// the same schema.Registry.
func (s *Store) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txStore{Store: &Store{pool: s.pool, reg: s.reg, q: txQuerier{tx}}, tx: tx}, nil
}

type txQuerier struct{ tx pgx.Tx }

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return t.tx.Query(ctx, sql, args...)
}
func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return t.tx.QueryRow(ctx, sql, args...)
}
func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconnCommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

type txStore struct {
	*Store
	tx pgx.Tx
}

func (t *txStore) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *txStore) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func buildSelect(m *schema.Model, filter store.Filter) (string, []any) {
	where, args := buildWhere(filter, 1)
	q := fmt.Sprintf(`SELECT * FROM %s%s`, quoteIdent(m.TableName), where)
	if len(filter.OrderBy) > 0 {
		terms := make([]string, len(filter.OrderBy))
		for i, t := range filter.OrderBy {
			dir := "ASC"
			if t.Desc {
				dir = "DESC"
			}
			terms[i] = fmt.Sprintf("%s %s", quoteIdent(t.Column), dir)
		}
		q += " ORDER BY " + strings.Join(terms, ", ")
	}
	if filter.Take != nil {
		q += fmt.Sprintf(" LIMIT %d", *filter.Take)
	}
	if filter.Skip != nil {
		q += fmt.Sprintf(" OFFSET %d", *filter.Skip)
	}
	return q, args
}

func buildWhere(filter store.Filter, startArg int) (string, []any) {
	if len(filter.Equals) == 0 && filter.Raw == nil {
		return "", nil
	}
	// a raw filter without column-name equals is a backend-specific clause
	// spec.md §6 allows this store to reject rather than silently drop.
	conds := make([]string, 0, len(filter.Equals))
	args := make([]any, 0, len(filter.Equals))
	i := startArg
	// deterministic order keeps generated SQL/tests stable
	cols := make([]string, 0, len(filter.Equals))
	for col := range filter.Equals {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		arg, _ := valueToSQL(filter.Equals[col])
		conds = append(conds, fmt.Sprintf("%s = $%d", quoteIdent(col), i))
		args = append(args, arg)
		i++
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// valueToSQL converts a Value into a driver-ready Go value, the mirror of
// scanRow. Decimal is sent as its string form so Postgres's NUMERIC type
// parses it at full precision rather than round-tripping through float64.
func valueToSQL(v value.Value) (any, error) {
	switch v.Kind() {
	case value.KindNull:
		return nil, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return b, nil
	case value.KindInt:
		i, _ := v.AsInt()
		return int64(i), nil
	case value.KindInt64:
		i, _ := v.AsInt64()
		return i, nil
	case value.KindFloat:
		f, _ := v.AsFloat()
		return f, nil
	case value.KindDecimal:
		d, _ := v.AsDecimal()
		return d.RatString(), nil
	case value.KindString:
		s, _ := v.AsString()
		return s, nil
	case value.KindDateTime:
		t, _ := v.AsDateTime()
		return t, nil
	default:
		return nil, rkerr.New(rkerr.TypeError, fmt.Sprintf("postgres: unsupported value kind %s for column storage", v.Kind()))
	}
}

// scanRow reads the current row into a store.Row keyed by physical column
// name, coercing each value per the schema field's declared Type so
// downstream code only ever sees value.Value.
func scanRow(m *schema.Model, rows pgx.Rows) (store.Row, error) {
	fds := rows.FieldDescriptions()
	vals, err := rows.Values()
	if err != nil {
		return nil, fmt.Errorf("scan %s row: %w", m.Name, err)
	}

	out := make(store.Row, len(vals))
	for i, fd := range fds {
		col := string(fd.Name)
		f, ok := m.FieldByColumn(col)
		if !ok {
			continue
		}
		out[col] = sqlToValue(f, vals[i])
	}
	return out, nil
}

func sqlToValue(f *schema.Field, raw any) value.Value {
	if raw == nil {
		return value.Null
	}
	switch f.Type {
	case value.KindBool:
		if b, ok := raw.(bool); ok {
			return value.Bool(b)
		}
	case value.KindInt:
		switch n := raw.(type) {
		case int32:
			return value.Int(int(n))
		case int64:
			return value.Int(int(n))
		}
	case value.KindInt64:
		if n, ok := raw.(int64); ok {
			return value.Int64(n)
		}
	case value.KindFloat:
		if n, ok := raw.(float64); ok {
			return value.Float(n)
		}
	case value.KindDecimal:
		switch n := raw.(type) {
		case string:
			r, ok := new(big.Rat).SetString(n)
			if ok {
				return value.Decimal(r)
			}
		case float64:
			return value.Decimal(new(big.Rat).SetFloat64(n))
		}
	case value.KindString:
		if s, ok := raw.(string); ok {
			return value.String(s)
		}
	case value.KindDateTime:
		if t, ok := raw.(time.Time); ok {
			return value.DateTime(t)
		}
	}
	// fall back to string form rather than dropping an unexpected driver type
	return value.String(fmt.Sprintf("%v", raw))
}
