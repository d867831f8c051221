package object

import (
	"context"

	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// SetFromPayload applies a full user-input map to an uninitialized record
// (spec.md §4.2.1): every declared key is visited in schema order, and a key
// the payload omits gets its default applied.
func (o *Object) SetFromPayload(stdCtx context.Context, payload *value.OrderedMap) error {
	if err := o.applyPayload(stdCtx, payload, true); err != nil {
		return err
	}
	o.isInitialized.Store(true)
	return nil
}

// UpdateFromPayload applies a partial user-input map to an already
// initialized record: only keys present in payload are touched, and default
// triggering is disabled (spec.md §4.2.1).
func (o *Object) UpdateFromPayload(stdCtx context.Context, payload *value.OrderedMap) error {
	return o.applyPayload(stdCtx, payload, false)
}

// SetFromStoreRow hydrates a record from a physical row (column-name keyed)
// without running any pipeline, write-rule, or default logic — the
// counterpart to set_from_payload for loaded rows (spec.md §3 "Lifecycle").
func (o *Object) SetFromStoreRow(row store.Row) error {
	o.syncMu.Lock()
	for _, f := range o.model.Fields {
		v, ok := row[f.ColumnName]
		if !ok || v.IsNull() {
			continue
		}
		o.valueMap.Set(f.Name, v)
	}
	o.modifiedFields = map[string]bool{}
	o.syncMu.Unlock()
	o.isNew.Store(false)
	o.isInitialized.Store(true)
	o.isModified.Store(false)
	return nil
}

// applyPayload implements the shared body of set_from_payload/
// update_from_payload (spec.md §4.2.1).
func (o *Object) applyPayload(stdCtx context.Context, payload *value.OrderedMap, uninitialized bool) error {
	if payload == nil {
		payload = value.NewOrderedMap()
	}

	var keys []string
	if uninitialized {
		keys = o.model.InputKeys()
	} else {
		keys = payload.Keys()
	}

	for _, key := range keys {
		if !o.model.HasKey(key) {
			return rkerr.New(rkerr.InvalidKey, "unknown key "+key).At(pathKeys(key))
		}
		v, present := payload.Get(key)

		if f, ok := o.model.Field(key); ok {
			if err := o.applyPayloadField(stdCtx, f, v, present, uninitialized); err != nil {
				return err
			}
			continue
		}
		if !present {
			continue // relations/properties have no default machinery
		}
		if r, ok := o.model.Relation(key); ok {
			o.queueRelationMutation(r, v)
			continue
		}
		if p, ok := o.model.Property(key); ok {
			if err := o.applyPropertySetter(stdCtx, p, v); err != nil {
				return err
			}
			continue
		}
	}
	return nil
}

func (o *Object) queueRelationMutation(r *schema.Relation, v value.Value) {
	o.mutationMu.Lock()
	defer o.mutationMu.Unlock()
	o.relationMutationMap.Set(r.Name, v)
	o.isModified.Store(true)
}

func (o *Object) applyPropertySetter(stdCtx context.Context, p *schema.Property, v value.Value) error {
	if p.Setter == nil {
		return rkerr.New(rkerr.TypeError, "property "+p.Name+" has no setter").At(pathKeys(p.Name))
	}
	ctx := o.ctx(stdCtx).WithValue(v)
	if _, err := p.Setter.Run(ctx); err != nil {
		return err
	}
	o.syncMu.Lock()
	delete(o.cachedPropertyMap, p.Name)
	o.modifiedFields[p.Name] = true
	o.syncMu.Unlock()
	o.isModified.Store(true)
	return nil
}

func (o *Object) applyPayloadField(stdCtx context.Context, f *schema.Field, v value.Value, present, uninitialized bool) error {
	if !present {
		if !uninitialized {
			return nil // partial update ignores absent keys
		}
		return o.applyDefault(stdCtx, f)
	}

	path := pathKeys(f.Name)
	if f.CanMutate != nil {
		ctx := o.ctx(stdCtx).WithValue(v)
		if err := f.CanMutate.RunAsGate(ctx); err != nil {
			return rkerr.New(rkerr.PermissionDenied, "cannot mutate "+f.Name).At(path)
		}
	}

	if upd, ok := value.DecodeAtomicUpdater(v); ok {
		o.syncMu.Lock()
		delete(o.atomicUpdaterMap, f.Name) // invariant 5: disjoint per key
		o.valueMap.Delete(f.Name)
		o.atomicUpdaterMap[f.Name] = upd
		o.modifiedFields[f.Name] = true
		o.evictDependentPropertiesLocked(f.Name)
		o.syncMu.Unlock()
		o.isModified.Store(true)
		return nil
	}

	newVal := v
	if f.OnSet != nil {
		ctx := o.ctx(stdCtx).WithValue(v)
		out, err := f.OnSet.Run(ctx)
		if err != nil {
			return err
		}
		newVal = out
	}

	if !o.writeRuleAllowed(stdCtx, f, newVal) {
		return rkerr.New(rkerr.ValueError, "unexpected key").At(path)
	}

	o.syncMu.Lock()
	delete(o.atomicUpdaterMap, f.Name)
	o.syncMu.Unlock()
	o.setScalarLocked(f, newVal)
	return nil
}

// applyDefault implements spec.md §4.2.1's default-application branch: run
// the pipeline with value=null, or copy the literal — no write-rule or
// on-set pipeline involved.
func (o *Object) applyDefault(stdCtx context.Context, f *schema.Field) error {
	if f.Default == nil {
		return nil
	}
	var v value.Value
	if f.Default.Pipeline != nil {
		ctx := o.ctx(stdCtx).WithValue(value.Null)
		out, err := f.Default.Pipeline.Run(ctx)
		if err != nil {
			return err
		}
		v = out
	} else {
		v = f.Default.Literal
	}
	o.setScalarLocked(f, v)
	return nil
}

// writeRuleAllowed implements the table of spec.md §4.2.2.
func (o *Object) writeRuleAllowed(stdCtx context.Context, f *schema.Field, newVal value.Value) bool {
	switch f.Write.Kind {
	case schema.WriteNo:
		return false
	case schema.WriteYes:
		return true
	case schema.WriteOnCreate:
		return o.isNew.Load()
	case schema.WriteOnce:
		if o.isNew.Load() {
			return true
		}
		o.syncMu.Lock()
		cur, ok := o.valueMap.Get(f.Name)
		o.syncMu.Unlock()
		return !ok || cur.IsNull()
	case schema.WriteNonNull:
		return o.isNew.Load() || !newVal.IsNull()
	case schema.WriteIf:
		if f.Write.Pipeline == nil {
			return false
		}
		ok, _ := f.Write.Pipeline.RunAsCondition(o.ctx(stdCtx).WithValue(newVal))
		return ok
	}
	return false
}
