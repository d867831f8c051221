package object

import (
	"context"

	rkaction "recordkit/internal/action"
	"recordkit/internal/rkerr"
	"recordkit/internal/store"
)

// FetchRelation implements spec.md §4.2 "fetch_relation": loads the related
// record(s) for name and stores the result in the relation-query map so a
// later to_json recurses into it. Distinct from relation-mutation fetches
// (SPEC_FULL.md open question #1: the two maps are kept separate).
func (o *Object) FetchRelation(stdCtx context.Context, name string) error {
	r, ok := o.model.Relation(name)
	if !ok {
		return rkerr.New(rkerr.InvalidKey, "unknown relation "+name).At(pathKeys(name))
	}
	childModel := o.registry.MustModel(r.ModelPath)
	filter, err := o.scopedFilter(r, childModel, nil)
	if err != nil {
		return err
	}
	act := rkaction.Find.WithOrigin(rkaction.ProgramCode)

	var result *RelationResult
	if r.IsVec {
		rows, err := o.txn.FindMany(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator)
		if err != nil {
			return rkerr.Wrap(err)
		}
		objs := make([]*Object, 0, len(rows))
		for _, row := range rows {
			child := New(o.registry, childModel, act, o.txn, o.request)
			if err := child.SetFromStoreRow(row); err != nil {
				return err
			}
			objs = append(objs, child)
		}
		result = &RelationResult{IsVec: true, Many: objs}
	} else {
		row, found, err := o.txn.FindUnique(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator)
		if err != nil {
			return rkerr.Wrap(err)
		}
		if found {
			child := New(o.registry, childModel, act, o.txn, o.request)
			if err := child.SetFromStoreRow(row); err != nil {
				return err
			}
			result = &RelationResult{One: child}
		} else {
			result = &RelationResult{One: nil}
		}
	}

	o.syncMu.Lock()
	o.relationQueryMap[name] = result
	o.syncMu.Unlock()
	return nil
}

// ForceGetRelationObject is the required-relation counterpart of
// FetchRelation (spec.md §4.2 table): it errors NotFound when the to-one
// target is absent instead of leaving a nil result for to_json to omit.
func (o *Object) ForceGetRelationObject(stdCtx context.Context, name string) (*Object, error) {
	if err := o.FetchRelation(stdCtx, name); err != nil {
		return nil, err
	}
	o.syncMu.Lock()
	rr := o.relationQueryMap[name]
	o.syncMu.Unlock()
	if rr == nil || rr.One == nil {
		return nil, rkerr.New(rkerr.NotFound, "relation "+name+" not found").At(pathKeys(name))
	}
	return rr.One, nil
}
