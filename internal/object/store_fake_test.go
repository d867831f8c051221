package object_test

import (
	"context"
	"sync"

	rkaction "recordkit/internal/action"
	"recordkit/internal/store"
	"recordkit/internal/value"

	"github.com/google/uuid"
)

// memStore is an in-process stand-in for a real Store adapter: enough
// relational behavior (equality filters, batch iteration) to exercise the
// Record Object engine without a database.
type memStore struct {
	mu     sync.Mutex
	tables map[store.ModelName][]store.Row
	idCol  map[store.ModelName]string
}

func newMemStore(idCol map[store.ModelName]string) *memStore {
	return &memStore{tables: map[store.ModelName][]store.Row{}, idCol: idCol}
}

func rowMatches(row store.Row, filter store.Filter) bool {
	for col, want := range filter.Equals {
		got, ok := row[col]
		if !ok || !value.Equal(got, want) {
			return false
		}
	}
	return true
}

func (s *memStore) FindUnique(_ context.Context, model store.ModelName, filter store.Filter, _ rkaction.Action, _ value.Value) (store.Row, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.tables[model] {
		if rowMatches(row, filter) {
			return cloneRow(row), true, nil
		}
	}
	return nil, false, nil
}

func (s *memStore) FindMany(_ context.Context, model store.ModelName, filter store.Filter, _ rkaction.Action, _ value.Value) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.Row
	for _, row := range s.tables[model] {
		if rowMatches(row, filter) {
			out = append(out, cloneRow(row))
		}
	}
	return out, nil
}

func (s *memStore) Count(_ context.Context, model store.ModelName, filter store.Filter) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n uint64
	for _, row := range s.tables[model] {
		if rowMatches(row, filter) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) SaveObject(_ context.Context, model store.ModelName, identifiers, values store.Row, isNew bool) (store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if isNew {
		row := cloneRow(values)
		if idCol, ok := s.idCol[model]; ok {
			if _, present := row[idCol]; !present {
				row[idCol] = value.String(uuid.NewString())
			}
		}
		s.tables[model] = append(s.tables[model], row)
		return cloneRow(row), nil
	}

	for i, row := range s.tables[model] {
		if rowMatches(row, store.Filter{Equals: identifiers}) {
			merged := cloneRow(row)
			for k, v := range values {
				merged[k] = v
			}
			s.tables[model][i] = merged
			return cloneRow(merged), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) DeleteObject(_ context.Context, model store.ModelName, identifiers store.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.tables[model]
	for i, row := range rows {
		if rowMatches(row, store.Filter{Equals: identifiers}) {
			s.tables[model] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *memStore) Batch(ctx context.Context, model store.ModelName, filter store.Filter, act rkaction.Action, initiator value.Value, f store.BatchFunc) error {
	s.mu.Lock()
	var matched []store.Row
	for _, row := range s.tables[model] {
		if rowMatches(row, filter) {
			matched = append(matched, cloneRow(row))
		}
	}
	s.mu.Unlock()

	for _, row := range matched {
		if err := f(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) Begin(_ context.Context) (store.Tx, error) {
	return memTx{s}, nil
}

type memTx struct{ *memStore }

func (memTx) Commit(context.Context) error   { return nil }
func (memTx) Rollback(context.Context) error { return nil }

func cloneRow(row store.Row) store.Row {
	out := make(store.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
