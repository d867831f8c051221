package object

import (
	"context"

	rkaction "recordkit/internal/action"
	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// actionOrder fixes the dispatch order of nested-action keys found in one
// relation's user payload (spec.md §4.2.4's table, read top to bottom).
var actionOrder = []string{
	"create", "connect", "set", "connectOrCreate", "disconnect",
	"update", "updateMany", "upsert", "delete", "deleteMany",
}

// interpretRelations runs the nested-mutation interpreter over every
// relation whose phase matches fkPhase: true for relations that own their
// foreign key (resolved before the parent's own row is persisted), false
// for the rest (resolved after, since they need the parent's own id).
func (o *Object) interpretRelations(stdCtx context.Context, ignoreRelation string, fkPhase bool) error {
	for _, r := range o.model.Relations {
		if r.Name == ignoreRelation {
			continue
		}
		owns := kindOf(r) == kindOwnsFK
		if owns != fkPhase {
			continue
		}
		if err := o.interpretRelation(stdCtx, r); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) interpretRelation(stdCtx context.Context, r *schema.Relation) error {
	if err := o.runProgrammaticOverrides(stdCtx, r); err != nil {
		return err
	}

	o.mutationMu.Lock()
	raw, ok := o.relationMutationMap.Get(r.Name)
	if ok {
		o.relationMutationMap.Delete(r.Name)
	}
	o.mutationMu.Unlock()
	if !ok {
		return nil
	}
	return o.interpretUserPayload(stdCtx, r, raw)
}

// runProgrammaticOverrides implements phase 1 of spec.md §4.2.4: set_many,
// then set_one, then connect, then disconnect, seeded via the force_* API
// (Object.ForceSetMany etc).
func (o *Object) runProgrammaticOverrides(stdCtx context.Context, r *schema.Relation) error {
	childModel := o.registry.MustModel(r.ModelPath)

	o.mutationMu.Lock()
	setMany, hasSetMany := o.setManyMap[r.Name]
	delete(o.setManyMap, r.Name)
	setOne, hasSetOne := o.setOneMap[r.Name]
	delete(o.setOneMap, r.Name)
	connects := o.connectMap[r.Name]
	delete(o.connectMap, r.Name)
	disconnects := o.disconnectMap[r.Name]
	delete(o.disconnectMap, r.Name)
	o.mutationMu.Unlock()

	if hasSetMany {
		if err := o.doSetMany(stdCtx, r, childModel, setMany); err != nil {
			return err
		}
	}
	if hasSetOne {
		if err := o.doSetOne(stdCtx, r, childModel, setOne); err != nil {
			return err
		}
	}
	for _, w := range connects {
		if err := o.handleConnect(stdCtx, r, childModel, w); err != nil {
			return err
		}
	}
	for _, w := range disconnects {
		if err := o.handleDisconnectWhere(stdCtx, r, childModel, w); err != nil {
			return err
		}
	}
	return nil
}

// interpretUserPayload normalizes and dispatches the raw relation payload
// (spec.md §4.2.4 phase 2). raw is expected to be a map keyed by nested
// action name; a map that matches no known action name is treated as a
// single-relation connect shortcut ("single-relation shortcuts become full
// records").
func (o *Object) interpretUserPayload(stdCtx context.Context, r *schema.Relation, raw value.Value) error {
	childModel := o.registry.MustModel(r.ModelPath)

	m, ok := raw.AsMap()
	if !ok {
		if r.IsVec {
			return rkerr.New(rkerr.TypeError, "relation payload must be a map").At(pathKeys(r.Name))
		}
		return o.dispatchAction(stdCtx, r, childModel, "connect", raw)
	}

	matched := false
	for _, act := range actionOrder {
		entry, present := m.Get(act)
		if !present {
			continue
		}
		matched = true
		newAct, newEntry, err := o.runActionTransform(stdCtx, r, act, entry)
		if err != nil {
			return err
		}
		if err := o.dispatchAction(stdCtx, r, childModel, newAct, newEntry); err != nil {
			return err
		}
	}
	if matched {
		return nil
	}
	if r.IsVec {
		return rkerr.New(rkerr.TypeError, "relation payload has no recognized action").At(pathKeys(r.Name))
	}
	return o.dispatchAction(stdCtx, r, childModel, "connect", raw)
}

// runActionTransform invokes the owning model's per-action transform
// pipeline (spec.md §4.2.4), which may rewrite both the action name and the
// payload. ctx.Value is the convention Map{"action","payload"}.
func (o *Object) runActionTransform(stdCtx context.Context, r *schema.Relation, act string, entry value.Value) (string, value.Value, error) {
	if r.ActionTransform == nil {
		return act, entry, nil
	}
	in := value.NewOrderedMap()
	in.Set("action", value.String(act))
	in.Set("payload", entry)
	out, err := r.ActionTransform.Run(o.ctx(stdCtx).WithValue(value.Map(in)))
	if err != nil {
		return act, entry, err
	}
	om, ok := out.AsMap()
	if !ok {
		return act, entry, nil
	}
	newAct := act
	if av, ok := om.Get("action"); ok {
		if s, ok := av.AsString(); ok {
			newAct = s
		}
	}
	newEntry := entry
	if pv, ok := om.Get("payload"); ok {
		newEntry = pv
	}
	return newAct, newEntry, nil
}

// dispatchAction fans a many relation's array-valued action out element by
// element (spec.md §8 S3), or runs it once for a to-one relation.
func (o *Object) dispatchAction(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, act string, entry value.Value) error {
	switch act {
	case "updateMany":
		return o.doUpdateMany(stdCtx, r, childModel, entry)
	case "deleteMany":
		return o.doDeleteMany(stdCtx, r, childModel, entry)
	case "set":
		if r.IsVec {
			arr, err := value.CoerceArray(entry)
			if err != nil {
				return err
			}
			return o.doSetMany(stdCtx, r, childModel, arr)
		}
		return o.doSetOne(stdCtx, r, childModel, entry)
	}

	if !r.IsVec {
		return o.dispatchOne(stdCtx, r, childModel, act, entry, -1)
	}
	arr, err := value.CoerceArray(entry)
	if err != nil {
		return err
	}
	for i, e := range arr {
		if err := o.dispatchOne(stdCtx, r, childModel, act, e, i); err != nil {
			return err
		}
	}
	return nil
}

func (o *Object) dispatchOne(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, act string, entry value.Value, idx int) error {
	switch act {
	case "create":
		return o.handleCreate(stdCtx, r, childModel, entry)
	case "connect":
		return o.handleConnect(stdCtx, r, childModel, entry)
	case "connectOrCreate":
		return o.handleConnectOrCreate(stdCtx, r, childModel, entry)
	case "disconnect":
		return o.handleDisconnectWhere(stdCtx, r, childModel, entry)
	case "update":
		return o.handleUpdate(stdCtx, r, childModel, entry)
	case "upsert":
		return o.handleUpsert(stdCtx, r, childModel, entry)
	case "delete":
		return o.handleDelete(stdCtx, r, childModel, entry)
	}
	path := pathKeys(r.Name, act)
	if idx >= 0 {
		path = withIndex(pathKeys(r.Name), idx)
	}
	return rkerr.New(rkerr.InvalidKey, "unknown nested action "+act).At(path)
}

// --- action handlers -------------------------------------------------

func (o *Object) handleCreate(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	m, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	child := New(o.registry, childModel, rkaction.Create.WithOrigin(rkaction.Nested), o.txn, o.request)
	if err := child.SetFromPayload(stdCtx, m); err != nil {
		return err
	}
	return o.linkAndSave(stdCtx, r, child)
}

func (o *Object) handleConnect(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	whereMap, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	child, found, err := o.findChild(stdCtx, childModel, whereMap)
	if err != nil {
		return err
	}
	if !found {
		return rkerr.New(rkerr.NotFound, "relation target not found").At(pathKeys(r.Name))
	}
	if err := o.guardOneToOne(stdCtx, r, child); err != nil {
		return err
	}
	return o.linkOnly(stdCtx, r, child)
}

func (o *Object) handleConnectOrCreate(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	m, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	whereVal, _ := m.Get("where")
	whereMap, _ := whereVal.AsMap()
	if whereMap != nil {
		child, found, err := o.findChild(stdCtx, childModel, whereMap)
		if err != nil {
			return err
		}
		if found {
			if err := o.guardOneToOne(stdCtx, r, child); err != nil {
				return err
			}
			return o.linkOnly(stdCtx, r, child)
		}
	}
	createVal, _ := m.Get("create")
	return o.handleCreate(stdCtx, r, childModel, createVal)
}

func (o *Object) handleUpdate(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	m, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	where, data := splitWhereData(m)
	child, found, err := o.findScopedChild(stdCtx, r, childModel, where)
	if err != nil {
		return err
	}
	if !found {
		return rkerr.New(rkerr.NotFound, "relation target not found").At(pathKeys(r.Name))
	}
	if err := child.UpdateFromPayload(stdCtx, data); err != nil {
		return err
	}
	return child.SaveIgnoring(stdCtx, "")
}

func (o *Object) handleUpsert(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	m, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	whereVal, _ := m.Get("where")
	whereMap, _ := whereVal.AsMap()
	child, found, err := o.findScopedChild(stdCtx, r, childModel, whereMap)
	if err != nil {
		return err
	}
	if found {
		dataVal, _ := m.Get("update")
		data, _ := dataVal.AsMap()
		if err := child.UpdateFromPayload(stdCtx, data); err != nil {
			return err
		}
		return child.SaveIgnoring(stdCtx, "")
	}
	createVal, _ := m.Get("create")
	return o.handleCreate(stdCtx, r, childModel, createVal)
}

func (o *Object) handleDelete(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	whereMap, _ := entry.AsMap()
	child, found, err := o.findScopedChild(stdCtx, r, childModel, whereMap)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if kindOf(r) == kindJoinTable {
		if err := o.deleteJoinRow(stdCtx, r, child); err != nil {
			return err
		}
	}
	return child.Delete(stdCtx)
}

func (o *Object) handleUpdateManyEntry(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, where, data *value.OrderedMap) error {
	filter, err := o.scopedFilter(r, childModel, where)
	if err != nil {
		return err
	}
	act := rkaction.UpdateMany.WithOrigin(rkaction.Nested)
	return o.txn.Batch(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator, func(bctx context.Context, row store.Row) error {
		child := New(o.registry, childModel, act, o.txn, o.request)
		if err := child.SetFromStoreRow(row); err != nil {
			return err
		}
		if err := child.UpdateFromPayload(bctx, data); err != nil {
			return err
		}
		return child.SaveIgnoring(bctx, "")
	})
}

func (o *Object) doUpdateMany(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	m, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	where, data := splitWhereData(m)
	return o.handleUpdateManyEntry(stdCtx, r, childModel, where, data)
}

func (o *Object) doDeleteMany(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	whereMap, _ := entry.AsMap()
	filter, err := o.scopedFilter(r, childModel, whereMap)
	if err != nil {
		return err
	}
	act := rkaction.DeleteMany.WithOrigin(rkaction.Nested)
	return o.txn.Batch(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator, func(bctx context.Context, row store.Row) error {
		child := New(o.registry, childModel, act, o.txn, o.request)
		if err := child.SetFromStoreRow(row); err != nil {
			return err
		}
		if kindOf(r) == kindJoinTable {
			if err := o.deleteJoinRow(bctx, r, child); err != nil {
				return err
			}
		}
		return child.Delete(bctx)
	})
}

func (o *Object) handleDisconnectWhere(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	var whereMap *value.OrderedMap
	if m, ok := entry.AsMap(); ok {
		whereMap = m
	}
	child, found, err := o.findScopedChild(stdCtx, r, childModel, whereMap)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	return o.disconnectChild(stdCtx, r, child)
}

// doSetOne implements "set" on a to-one relation: disconnect the current
// target if any, then if the new value is non-null, connect and save
// (spec.md §4.2.4).
func (o *Object) doSetOne(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, entry value.Value) error {
	if current, found, err := o.findScopedChild(stdCtx, r, childModel, nil); err == nil && found {
		if err := o.disconnectChild(stdCtx, r, current); err != nil {
			return err // a failed disconnect aborts the whole mutation (SPEC_FULL open question #2)
		}
	}
	if entry.IsNull() {
		return nil
	}
	whereMap, err := value.CoerceMap(entry)
	if err != nil {
		return err
	}
	child, found, err := o.findChild(stdCtx, childModel, whereMap)
	if err != nil {
		return err
	}
	if !found {
		return rkerr.New(rkerr.NotFound, "relation target not found").At(pathKeys(r.Name))
	}
	if err := o.guardOneToOne(stdCtx, r, child); err != nil {
		return err
	}
	return o.linkOnly(stdCtx, r, child)
}

// doSetMany implements "set" on a many relation: fetch all current,
// disconnect each, connect each given (spec.md §4.2.4).
func (o *Object) doSetMany(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, wheres []value.Value) error {
	filter, err := o.scopedFilter(r, childModel, nil)
	if err != nil {
		return err
	}
	current, err := o.txn.FindMany(stdCtx, store.ModelName(childModel.Name), filter, rkaction.Find.WithOrigin(rkaction.Nested), o.request.Initiator)
	if err != nil {
		return rkerr.Wrap(err)
	}
	for _, row := range current {
		child := New(o.registry, childModel, rkaction.Update.WithOrigin(rkaction.Nested), o.txn, o.request)
		if err := child.SetFromStoreRow(row); err != nil {
			return err
		}
		if err := o.disconnectChild(stdCtx, r, child); err != nil {
			return err
		}
	}
	for _, w := range wheres {
		whereMap, err := value.CoerceMap(w)
		if err != nil {
			return err
		}
		child, found, err := o.findChild(stdCtx, childModel, whereMap)
		if err != nil {
			return err
		}
		if !found {
			return rkerr.New(rkerr.NotFound, "relation target not found").At(pathKeys(r.Name))
		}
		if err := o.linkOnly(stdCtx, r, child); err != nil {
			return err
		}
	}
	return nil
}

// --- shared helpers ----------------------------------------------------

func splitWhereData(m *value.OrderedMap) (where, data *value.OrderedMap) {
	if wv, ok := m.Get("where"); ok {
		where, _ = wv.AsMap()
	}
	if dv, ok := m.Get("data"); ok {
		data, _ = dv.AsMap()
		return where, data
	}
	return where, m
}

func (o *Object) findChild(stdCtx context.Context, childModel *schema.Model, where *value.OrderedMap) (*Object, bool, error) {
	filter, err := buildFilter(childModel, where)
	if err != nil {
		return nil, false, err
	}
	row, found, err := o.txn.FindUnique(stdCtx, store.ModelName(childModel.Name), filter, rkaction.Find.WithOrigin(rkaction.Nested), o.request.Initiator)
	if err != nil {
		return nil, false, rkerr.Wrap(err)
	}
	if !found {
		return nil, false, nil
	}
	child := New(o.registry, childModel, rkaction.Update.WithOrigin(rkaction.Nested), o.txn, o.request)
	if err := child.SetFromStoreRow(row); err != nil {
		return nil, false, err
	}
	return child, true, nil
}

// findScopedChild looks up the relation's currently connected child (where
// may add extra filtering for a many relation's addressed entry), honoring
// the intrinsic where-unique derived from this parent's own identifiers.
func (o *Object) findScopedChild(stdCtx context.Context, r *schema.Relation, childModel *schema.Model, where *value.OrderedMap) (*Object, bool, error) {
	filter, err := o.scopedFilter(r, childModel, where)
	if err != nil {
		return nil, false, err
	}
	row, found, err := o.txn.FindUnique(stdCtx, store.ModelName(childModel.Name), filter, rkaction.Find.WithOrigin(rkaction.Nested), o.request.Initiator)
	if err != nil {
		return nil, false, rkerr.Wrap(err)
	}
	if !found {
		return nil, false, nil
	}
	child := New(o.registry, childModel, rkaction.Update.WithOrigin(rkaction.Nested), o.txn, o.request)
	if err := child.SetFromStoreRow(row); err != nil {
		return nil, false, err
	}
	return child, true, nil
}

func buildFilter(childModel *schema.Model, where *value.OrderedMap) (store.Filter, error) {
	eq := map[string]value.Value{}
	if where != nil {
		for _, e := range where.Entries() {
			f, ok := childModel.Field(e.Key)
			if !ok {
				return store.Filter{}, rkerr.New(rkerr.InvalidKey, "unknown field "+e.Key)
			}
			eq[f.ColumnName] = e.Value
		}
	}
	return store.Filter{Equals: eq}, nil
}

// scopedFilter builds a child filter that always includes the intrinsic
// where-unique for relations whose ownership direction can express one
// (spec.md glossary "Intrinsic where-unique"), additionally narrowed by an
// explicit where map when given. A join-table relation has no single-column
// intrinsic key the abstract store.Filter can express, so it relies on the
// caller's explicit where alone — an accepted simplification (DESIGN.md).
func (o *Object) scopedFilter(r *schema.Relation, childModel *schema.Model, where *value.OrderedMap) (store.Filter, error) {
	filter, err := buildFilter(childModel, where)
	if err != nil {
		return store.Filter{}, err
	}
	switch kindOf(r) {
	case kindReverseFK:
		ident := o.currentIdentifiers()
		for i, childFKField := range r.References {
			if i >= len(o.model.PrimaryIndex) {
				break
			}
			f, ok := childModel.Field(childFKField)
			if !ok {
				continue
			}
			filter.Equals[f.ColumnName] = ident[o.model.PrimaryIndex[i]]
		}
	case kindOwnsFK:
		for i, localField := range r.Fields {
			if i >= len(r.References) {
				break
			}
			fkVal, _ := o.GetScalar(localField)
			f, ok := childModel.Field(r.References[i])
			if !ok {
				continue
			}
			filter.Equals[f.ColumnName] = fkVal
		}
	}
	return filter, nil
}

// linkAndSave links a freshly constructed child to this parent and saves
// whichever side must be saved, following the ordering each relation kind
// requires (spec.md §4.2.4 "Linking rules").
func (o *Object) linkAndSave(stdCtx context.Context, r *schema.Relation, child *Object) error {
	switch kindOf(r) {
	case kindOwnsFK:
		if err := child.SaveIgnoring(stdCtx, ""); err != nil {
			return err
		}
		return o.linkOnly(stdCtx, r, child)
	case kindJoinTable:
		if err := child.SaveIgnoring(stdCtx, ""); err != nil {
			return err
		}
		return o.linkOnly(stdCtx, r, child)
	default: // kindReverseFK
		if err := o.linkOnly(stdCtx, r, child); err != nil {
			return err
		}
		return child.SaveIgnoring(stdCtx, "")
	}
}

// linkOnly writes whichever side's FK columns (or join row) this relation
// kind requires: a join table gets a saved join row, a reverse-FK child gets
// its FK fields written and is saved, and an FK owned by this record is only
// set here (this record's own persist follows in Save's phase-1 flow).
func (o *Object) linkOnly(stdCtx context.Context, r *schema.Relation, child *Object) error {
	switch kindOf(r) {
	case kindJoinTable:
		return o.linkThroughJoinTable(stdCtx, r, child)
	case kindOwnsFK:
		for i, localField := range r.Fields {
			if i >= len(r.References) {
				break
			}
			v, _ := child.GetScalar(r.References[i])
			if err := o.SetScalar(localField, v); err != nil {
				return err
			}
		}
		return nil
	default: // kindReverseFK
		ident := o.currentIdentifiers()
		for i, childFKField := range r.References {
			if i >= len(o.model.PrimaryIndex) {
				break
			}
			if err := child.SetScalar(childFKField, ident[o.model.PrimaryIndex[i]]); err != nil {
				return err
			}
		}
		return child.SaveIgnoring(stdCtx, "")
	}
}

func (o *Object) linkThroughJoinTable(stdCtx context.Context, r *schema.Relation, child *Object) error {
	throughModel := o.registry.MustModel(r.Through)
	localRel, ok := throughModel.Relation(r.Local)
	if !ok {
		return rkerr.New(rkerr.InvalidOperation, "join model missing local relation "+r.Local)
	}
	foreignRel, ok := throughModel.Relation(r.Foreign)
	if !ok {
		return rkerr.New(rkerr.InvalidOperation, "join model missing foreign relation "+r.Foreign)
	}

	join := New(o.registry, throughModel, rkaction.Create.WithOrigin(rkaction.Nested), o.txn, o.request)
	ident := o.currentIdentifiers()
	for i, col := range localRel.Fields {
		if i >= len(o.model.PrimaryIndex) {
			break
		}
		if err := join.SetScalar(col, ident[o.model.PrimaryIndex[i]]); err != nil {
			return err
		}
	}
	for i, col := range foreignRel.Fields {
		if i >= len(foreignRel.References) {
			break
		}
		v, _ := child.GetScalar(foreignRel.References[i])
		if err := join.SetScalar(col, v); err != nil {
			return err
		}
	}
	return join.SaveIgnoring(stdCtx, "")
}

func (o *Object) deleteJoinRow(stdCtx context.Context, r *schema.Relation, child *Object) error {
	throughModel := o.registry.MustModel(r.Through)
	localRel, _ := throughModel.Relation(r.Local)
	foreignRel, _ := throughModel.Relation(r.Foreign)

	eq := map[string]value.Value{}
	ident := o.currentIdentifiers()
	for i, col := range localRel.Fields {
		if f, ok := throughModel.Field(col); ok && i < len(o.model.PrimaryIndex) {
			eq[f.ColumnName] = ident[o.model.PrimaryIndex[i]]
		}
	}
	for i, col := range foreignRel.Fields {
		if f, ok := throughModel.Field(col); ok && i < len(foreignRel.References) {
			v, _ := child.GetScalar(foreignRel.References[i])
			eq[f.ColumnName] = v
		}
	}
	return o.txn.Batch(stdCtx, store.ModelName(throughModel.Name), store.Filter{Equals: eq}, rkaction.DeleteMany.WithOrigin(rkaction.Nested), o.request.Initiator, func(bctx context.Context, row store.Row) error {
		return o.txn.DeleteObject(bctx, store.ModelName(throughModel.Name), primaryRow(throughModel, row))
	})
}

func primaryRow(m *schema.Model, row store.Row) store.Row {
	out := store.Row{}
	for _, name := range m.PrimaryIndex {
		if f, ok := m.Field(name); ok {
			if v, ok := row[f.ColumnName]; ok {
				out[f.ColumnName] = v
			}
		}
	}
	return out
}

// disconnectChild implements the per-kind disconnect behavior of spec.md
// §4.2.4: null P's own FK (owning side), delete the join row (join table),
// or null and save the child's FK (reverse side). Error if the relation is
// one-to-one required (spec.md S4).
func (o *Object) disconnectChild(stdCtx context.Context, r *schema.Relation, child *Object) error {
	if !r.IsVec && r.IsRequired {
		return rkerr.New(rkerr.CannotDisconnectPreviousRelation, "relation "+r.Name+" is required").At(pathKeys(r.Name))
	}
	switch kindOf(r) {
	case kindOwnsFK:
		for _, f := range r.Fields {
			if err := o.SetScalar(f, value.Null); err != nil {
				return err
			}
		}
		return nil
	case kindJoinTable:
		return o.deleteJoinRow(stdCtx, r, child)
	default: // kindReverseFK
		for _, f := range r.References {
			if err := child.SetScalar(f, value.Null); err != nil {
				return err
			}
		}
		return child.SaveIgnoring(stdCtx, "")
	}
}

// guardOneToOne implements spec.md §4.2.4's "One-to-one FK invariant":
// before connecting a one-to-one FK-owning side, any other row currently
// referencing the target must be nulled (if nullable) or the connect is
// rejected.
func (o *Object) guardOneToOne(stdCtx context.Context, r *schema.Relation, child *Object) error {
	if r.IsVec || !r.OneToOne || kindOf(r) != kindOwnsFK {
		return nil
	}
	eq := map[string]value.Value{}
	for i, localField := range r.Fields {
		if i >= len(r.References) {
			continue
		}
		f, ok := o.model.Field(localField)
		if !ok {
			continue
		}
		v, _ := child.GetScalar(r.References[i])
		eq[f.ColumnName] = v
	}
	other, found, err := o.txn.FindUnique(stdCtx, store.ModelName(o.model.Name), store.Filter{Equals: eq}, rkaction.Find.WithOrigin(rkaction.Nested), o.request.Initiator)
	if err != nil {
		return rkerr.Wrap(err)
	}
	if !found {
		return nil
	}
	if sameIdentifiers(o.model, other, o.currentIdentifiers()) {
		return nil // already us
	}
	if r.IsRequired {
		return rkerr.New(rkerr.CannotDisconnectPreviousRelation, "relation "+r.Name+" is required on the previous owner").At(pathKeys(r.Name))
	}
	values := store.Row{}
	for _, f := range r.Fields {
		if fld, ok := o.model.Field(f); ok {
			values[fld.ColumnName] = value.Null
		}
	}
	_, err = o.txn.SaveObject(stdCtx, store.ModelName(o.model.Name), primaryRow(o.model, other), values, false)
	return err
}

func sameIdentifiers(m *schema.Model, row store.Row, ident map[string]value.Value) bool {
	for _, name := range m.PrimaryIndex {
		f, ok := m.Field(name)
		if !ok {
			return false
		}
		rv, ok := row[f.ColumnName]
		if !ok || !value.Equal(rv, ident[name]) {
			return false
		}
	}
	return true
}
