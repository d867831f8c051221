package object

import (
	"context"

	"recordkit/internal/rkerr"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// Save implements spec.md §4.2 "save": on-save pipelines, required-field
// validation, before-save callback, persist scalars, interpret relation
// manipulations, after-save callback, clear dirty state.
func (o *Object) Save(stdCtx context.Context) error {
	return o.SaveIgnoring(stdCtx, "")
}

// SaveIgnoring is Save with one relation name excluded from required-field
// validation and interpretation — the parameter-based replacement for the
// source's record-held ignore_relation flag (spec.md §9). The nested
// interpreter's own calls all pass "", so no reciprocal relation is
// excluded when it saves a child (see DESIGN.md "ignoreRelation
// simplification").
func (o *Object) SaveIgnoring(stdCtx context.Context, ignoreRelation string) error {
	if o.insideBeforeSave.Load() {
		return rkerr.New(rkerr.InvalidOperation, "save invoked from inside a before-save callback")
	}
	if !o.isNew.Load() && !o.isModified.Load() {
		return nil // invariant 4: idempotent no-op
	}

	if err := o.runOnSavePipelines(stdCtx); err != nil {
		return err
	}
	if err := o.validateRequired(stdCtx, ignoreRelation); err != nil {
		return err
	}

	if o.model.BeforeSave != nil {
		o.insideBeforeSave.Store(true)
		_, err := o.model.BeforeSave.Run(o.ctx(stdCtx).WithValue(value.Null))
		o.insideBeforeSave.Store(false)
		if err != nil {
			return err
		}
	}

	if err := o.interpretRelations(stdCtx, ignoreRelation, true); err != nil {
		return err
	}
	if err := o.persist(stdCtx); err != nil {
		return err
	}
	if err := o.interpretRelations(stdCtx, ignoreRelation, false); err != nil {
		return err
	}

	if o.model.AfterSave != nil && !o.insideAfterSave.Load() {
		o.insideAfterSave.Store(true)
		_, err := o.model.AfterSave.Run(o.ctx(stdCtx).WithValue(value.Null))
		o.insideAfterSave.Store(false)
		if err != nil {
			return err
		}
	}

	o.isNew.Store(false)
	o.isModified.Store(false)
	o.syncMu.Lock()
	o.modifiedFields = map[string]bool{}
	o.previousValueMap = map[string]value.Value{}
	o.syncMu.Unlock()
	return nil
}

func (o *Object) runOnSavePipelines(stdCtx context.Context) error {
	for _, f := range o.model.Fields {
		o.syncMu.Lock()
		modified := o.modifiedFields[f.Name]
		o.syncMu.Unlock()
		if !modified || f.OnSave == nil {
			continue
		}
		cur, _ := o.GetScalar(f.Name)
		ctx := o.ctx(stdCtx).WithValue(cur)
		out, err := f.OnSave.Run(ctx)
		if err != nil {
			return err
		}
		o.setScalarLocked(f, out)
	}
	return nil
}

// persist writes the scalar row via the Store and merges back any
// store-assigned values (defaults, auto-increment ids) it returns.
func (o *Object) persist(stdCtx context.Context) error {
	values := o.buildValuesRow()
	if len(values) == 0 && !o.isNew.Load() {
		return nil
	}

	isNew := o.isNew.Load()
	var identifiers store.Row
	if isNew {
		identifiers = store.Row{}
	} else {
		identifiers = o.dbIdentifiers()
	}

	row, err := o.txn.SaveObject(stdCtx, store.ModelName(o.model.Name), identifiers, values, isNew)
	if err != nil {
		return rkerr.Wrap(err)
	}

	o.syncMu.Lock()
	for _, f := range o.model.Fields {
		if v, ok := row[f.ColumnName]; ok && !v.IsNull() {
			o.valueMap.Set(f.Name, v)
		}
	}
	o.syncMu.Unlock()
	return nil
}

func (o *Object) buildValuesRow() store.Row {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()

	out := store.Row{}
	for _, f := range o.model.Fields {
		if u, ok := o.atomicUpdaterMap[f.Name]; ok {
			out[f.ColumnName] = value.EncodeAtomicUpdater(u)
			continue
		}
		if o.isNew.Load() {
			if v, ok := o.valueMap.Get(f.Name); ok {
				out[f.ColumnName] = v
			}
			continue
		}
		if o.modifiedFields[f.Name] {
			if v, ok := o.valueMap.Get(f.Name); ok {
				out[f.ColumnName] = v
			} else {
				out[f.ColumnName] = value.Null
			}
		}
	}
	return out
}
