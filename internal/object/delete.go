package object

import (
	"context"

	rkaction "recordkit/internal/action"
	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// Delete implements spec.md §4.2.5: Deny-rule pre-check, persist the
// delete, then Nullify/Cascade dispatch over the opposite relations, with
// before/after-delete callbacks around the whole sequence.
func (o *Object) Delete(stdCtx context.Context) error {
	if o.model.BeforeDelete != nil {
		if _, err := o.model.BeforeDelete.Run(o.ctx(stdCtx).WithValue(value.Null)); err != nil {
			return err
		}
	}

	for _, r := range o.model.Relations {
		if r.DeleteRule != schema.DeleteDeny {
			continue
		}
		if err := o.checkDenyRule(stdCtx, r); err != nil {
			return err
		}
	}

	ident := o.dbIdentifiers()
	if err := o.txn.DeleteObject(stdCtx, store.ModelName(o.model.Name), ident); err != nil {
		return rkerr.Wrap(err)
	}

	for _, r := range o.model.Relations {
		if err := o.dispatchDeleteRule(stdCtx, r); err != nil {
			return err
		}
	}

	if o.model.AfterDelete != nil {
		if _, err := o.model.AfterDelete.Run(o.ctx(stdCtx).WithValue(value.Null)); err != nil {
			return err
		}
	}

	o.isDeleted.Store(true)
	return nil
}

func (o *Object) checkDenyRule(stdCtx context.Context, r *schema.Relation) error {
	childModel := o.registry.MustModel(r.ModelPath)
	filter, err := o.scopedFilter(r, childModel, nil)
	if err != nil {
		return err
	}
	n, err := o.txn.Count(stdCtx, store.ModelName(childModel.Name), filter)
	if err != nil {
		return rkerr.Wrap(err)
	}
	if n > 0 {
		return rkerr.New(rkerr.DeletionDenied, "relation "+r.Name+" denies delete").At(pathKeys(r.Name))
	}
	return nil
}

func (o *Object) dispatchDeleteRule(stdCtx context.Context, r *schema.Relation) error {
	switch r.DeleteRule {
	case schema.DeleteNullify:
		return o.nullifyRelation(stdCtx, r)
	case schema.DeleteCascade:
		return o.cascadeDeleteRelation(stdCtx, r)
	default:
		return nil
	}
}

func (o *Object) nullifyRelation(stdCtx context.Context, r *schema.Relation) error {
	childModel := o.registry.MustModel(r.ModelPath)
	filter, err := o.scopedFilter(r, childModel, nil)
	if err != nil {
		return err
	}
	act := rkaction.UpdateMany.WithOrigin(rkaction.Internal)
	return o.txn.Batch(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator, func(bctx context.Context, row store.Row) error {
		child := New(o.registry, childModel, act, o.txn, o.request)
		if err := child.SetFromStoreRow(row); err != nil {
			return err
		}
		nullFields := r.References
		if kindOf(r) != kindReverseFK {
			nullFields = r.Fields
		}
		for _, f := range nullFields {
			if err := child.SetScalar(f, value.Null); err != nil {
				return err
			}
		}
		return child.SaveIgnoring(bctx, "")
	})
}

func (o *Object) cascadeDeleteRelation(stdCtx context.Context, r *schema.Relation) error {
	childModel := o.registry.MustModel(r.ModelPath)
	filter, err := o.scopedFilter(r, childModel, nil)
	if err != nil {
		return err
	}
	act := rkaction.DeleteMany.WithOrigin(rkaction.Internal)
	return o.txn.Batch(stdCtx, store.ModelName(childModel.Name), filter, act, o.request.Initiator, func(bctx context.Context, row store.Row) error {
		child := New(o.registry, childModel, act, o.txn, o.request)
		if err := child.SetFromStoreRow(row); err != nil {
			return err
		}
		return child.Delete(bctx)
	})
}
