package object

import (
	"context"

	rkaction "recordkit/internal/action"
	"recordkit/internal/rkerr"
	"recordkit/internal/store"
)

// Refreshed implements spec.md §4.2 "refreshed": re-reads self through
// find_unique and returns the fresh record, with virtual fields copied
// across from self.
func (o *Object) Refreshed(stdCtx context.Context) (*Object, error) {
	filter, err := buildFilter(o.model, nil)
	if err != nil {
		return nil, err
	}
	ident := o.dbIdentifiers()
	for col, v := range ident {
		filter.Equals[col] = v
	}

	act := rkaction.Find.WithOrigin(o.act.Origin())
	row, found, err := o.txn.FindUnique(stdCtx, store.ModelName(o.model.Name), filter, act, o.request.Initiator)
	if err != nil {
		return nil, rkerr.Wrap(err)
	}
	if !found {
		return nil, rkerr.New(rkerr.NotFound, "record no longer exists").At(pathKeys(o.model.Name))
	}

	fresh := New(o.registry, o.model, o.act, o.txn, o.request)
	if err := fresh.SetFromStoreRow(row); err != nil {
		return nil, err
	}

	o.syncMu.Lock()
	for k, v := range o.virtualFields {
		fresh.virtualFields[k] = v
	}
	o.syncMu.Unlock()

	return fresh, nil
}
