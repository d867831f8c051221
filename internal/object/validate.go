package object

import (
	"context"

	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
)

// validateRequired implements spec.md §4.2.3: required-field validation run
// as part of save, before persistence. ignoreRelation names a relation to
// skip — the redesigned, parameter-based replacement for the source's
// record-held ignore_relation flag (see DESIGN.md "ignoreRelation
// simplification").
func (o *Object) validateRequired(stdCtx context.Context, ignoreRelation string) error {
	for _, f := range o.model.Fields {
		if f.Skippable() {
			continue
		}
		if err := o.validateFieldOptionality(stdCtx, f); err != nil {
			return err
		}
	}

	if !o.isNew.Load() {
		return nil
	}
	for _, r := range o.model.Relations {
		if r.Name == ignoreRelation || r.IsVec || !r.IsRequired {
			continue
		}
		o.mutationMu.Lock()
		_, queued := o.relationMutationMap.Get(r.Name)
		o.mutationMu.Unlock()
		if queued {
			continue
		}
		if !o.relationFKIsNull(r) {
			continue
		}
		return rkerr.New(rkerr.MissingRequiredInput, "missing required relation "+r.Name).At(pathKeys(r.Name))
	}
	return nil
}

func (o *Object) relationFKIsNull(r *schema.Relation) bool {
	if len(r.Fields) == 0 {
		return true
	}
	for _, fieldName := range r.Fields {
		v, ok := o.GetScalar(fieldName)
		if !ok || v.IsNull() {
			return true
		}
	}
	return false
}

func (o *Object) validateFieldOptionality(stdCtx context.Context, f *schema.Field) error {
	v, ok := o.GetScalar(f.Name)
	isNull := !ok || v.IsNull()

	switch f.Optionality.Kind {
	case schema.OptOptional:
		return nil
	case schema.OptRequired:
		if isNull {
			return rkerr.New(rkerr.MissingRequiredInput, "missing required field").At(pathKeys(f.Name))
		}
		return nil
	case schema.OptPresentWith:
		if !isNull {
			return nil
		}
		if o.anySiblingNonNull(f.Optionality.Names) {
			return rkerr.New(rkerr.MissingRequiredInput, "missing field required alongside present siblings").At(pathKeys(f.Name))
		}
		return nil
	case schema.OptPresentWithout:
		if !isNull {
			return nil
		}
		if o.allSiblingsNull(f.Optionality.Names) {
			return rkerr.New(rkerr.MissingRequiredInput, "missing field required when siblings absent").At(pathKeys(f.Name))
		}
		return nil
	case schema.OptPresentIf:
		if !isNull || f.Optionality.Pipeline == nil {
			return nil
		}
		ctx := o.ctx(stdCtx)
		ok, err := f.Optionality.Pipeline.RunAsCondition(ctx)
		if err != nil {
			return nil
		}
		if ok {
			return rkerr.New(rkerr.MissingRequiredInput, "missing conditionally required field").At(pathKeys(f.Name))
		}
		return nil
	}
	return nil
}

func (o *Object) anySiblingNonNull(names []string) bool {
	for _, n := range names {
		if v, ok := o.GetScalar(n); ok && !v.IsNull() {
			return true
		}
	}
	return false
}

func (o *Object) allSiblingsNull(names []string) bool {
	for _, n := range names {
		if v, ok := o.GetScalar(n); ok && !v.IsNull() {
			return false
		}
	}
	return true
}
