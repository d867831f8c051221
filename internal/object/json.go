package object

import (
	"context"
	"strconv"

	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/value"
)

// SetSelection installs the output selection dictionary to_json evaluates
// (spec.md §4.3 step 2): name -> bool. An empty/nil selection means "select
// everything".
func (o *Object) SetSelection(sel map[string]bool) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	o.selectedFields = sel
}

// effectiveSelection implements spec.md §4.3 step 2: if any falses exist and
// no trues, emit everything except those; if any trues exist, emit only
// those; with no selection at all, emit everything.
func (o *Object) effectiveSelection() (onlyTrue map[string]bool, exceptFalse map[string]bool) {
	o.syncMu.Lock()
	sel := o.selectedFields
	o.syncMu.Unlock()
	if len(sel) == 0 {
		return nil, nil
	}
	hasTrue, hasFalse := false, false
	for _, v := range sel {
		if v {
			hasTrue = true
		} else {
			hasFalse = true
		}
	}
	if hasTrue {
		return sel, nil
	}
	if hasFalse {
		return nil, sel
	}
	return nil, nil
}

func (o *Object) includeKey(key string, onlyTrue, exceptFalse map[string]bool) bool {
	if onlyTrue != nil {
		return onlyTrue[key]
	}
	if exceptFalse != nil {
		return !exceptFalse[key]
	}
	return true
}

// ToJSON implements spec.md §4.3's to_json: model-level can_read gate,
// effective selection, then per-output-key evaluation in schema order.
func (o *Object) ToJSON(stdCtx context.Context, path []string) (value.Value, error) {
	if o.model.CanRead != nil {
		ctx := o.ctx(stdCtx)
		ctx.Path = path
		if err := o.model.CanRead.RunAsGate(ctx); err != nil {
			return value.Null, rkerr.New(rkerr.PermissionDenied, "cannot read "+o.model.Name).At(pathKeys(path...))
		}
	}

	onlyTrue, exceptFalse := o.effectiveSelection()
	out := value.NewOrderedMap()

	for _, key := range o.model.OutputKeys() {
		if !o.includeKey(key, onlyTrue, exceptFalse) {
			continue
		}
		childPath := append(append([]string{}, path...), key)

		if _, ok := o.model.Relation(key); ok {
			o.syncMu.Lock()
			rr, fetched := o.relationQueryMap[key]
			o.syncMu.Unlock()
			if !fetched {
				continue
			}
			v, err := o.relationResultJSON(stdCtx, rr, childPath)
			if err != nil {
				return value.Null, err
			}
			if !v.IsNull() {
				out.Set(key, v)
			}
			continue
		}

		if f, ok := o.model.Field(key); ok {
			v, err := o.fieldOutputValue(stdCtx, f, childPath)
			if err != nil {
				return value.Null, err
			}
			if !v.IsNull() {
				out.Set(key, v)
			}
			continue
		}

		if p, ok := o.model.Property(key); ok {
			v, err := o.getProperty(stdCtx, p)
			if err != nil {
				return value.Null, err
			}
			if !v.IsNull() {
				out.Set(key, v)
			}
			continue
		}
	}

	return value.Map(out), nil
}

func (o *Object) fieldOutputValue(stdCtx context.Context, f *schema.Field, path []string) (value.Value, error) {
	if f.Read.Kind == schema.ReadNo {
		return value.Null, nil
	}
	v, _ := o.GetScalar(f.Name)
	if f.Read.Kind == schema.ReadIf && f.Read.Pipeline != nil {
		ctx := o.ctx(stdCtx).WithValue(v)
		ctx.Path = path
		ok, _ := f.Read.Pipeline.RunAsCondition(ctx)
		if !ok {
			return value.Null, nil
		}
	}
	if f.CanRead != nil {
		ctx := o.ctx(stdCtx).WithValue(v)
		ctx.Path = path
		if err := f.CanRead.RunAsGate(ctx); err != nil {
			return value.Null, nil
		}
	}
	if f.OnOutput != nil {
		ctx := o.ctx(stdCtx).WithValue(v)
		ctx.Path = path
		out, err := f.OnOutput.Run(ctx)
		if err != nil {
			return value.Null, err
		}
		v = out
	}
	return v, nil
}

// relationResultJSON recurses to_json into a previously fetched relation
// result, elementwise for a vec with the index appended to path (spec.md
// §4.3 step 3).
func (o *Object) relationResultJSON(stdCtx context.Context, rr *RelationResult, path []string) (value.Value, error) {
	if !rr.IsVec {
		if rr.One == nil {
			return value.Null, nil
		}
		return rr.One.ToJSON(stdCtx, path)
	}
	out := make([]value.Value, 0, len(rr.Many))
	for i, child := range rr.Many {
		elemPath := append(append([]string{}, path...), "["+strconv.Itoa(i)+"]")
		v, err := child.ToJSON(stdCtx, elemPath)
		if err != nil {
			return value.Null, err
		}
		out = append(out, v)
	}
	return value.Array(out), nil
}

// relationResultValue implements get(key) for a relation (spec.md §4.2
// "get"): the same shape to_json produces for a fetched relation, rooted at
// an empty path.
func (o *Object) relationResultValue(stdCtx context.Context, rr *RelationResult) (value.Value, error) {
	if rr == nil {
		return value.Null, nil
	}
	return o.relationResultJSON(stdCtx, rr, nil)
}
