package object

import (
	"context"

	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/value"
)

// Get returns a field's current scalar value, or lazily evaluates and
// (if cached) memoizes a property getter (spec.md §4.2 "get").
func (o *Object) Get(stdCtx context.Context, key string) (value.Value, error) {
	if f, ok := o.model.Field(key); ok {
		o.syncMu.Lock()
		defer o.syncMu.Unlock()
		if v, ok := o.valueMap.Get(f.Name); ok {
			return v, nil
		}
		return value.Null, nil
	}

	if p, ok := o.model.Property(key); ok {
		return o.getProperty(stdCtx, p)
	}

	if _, ok := o.model.Relation(key); ok {
		o.syncMu.Lock()
		rr, ok := o.relationQueryMap[key]
		o.syncMu.Unlock()
		if !ok {
			return value.Null, nil
		}
		return o.relationResultValue(stdCtx, rr)
	}

	return value.Null, rkerr.New(rkerr.InvalidKey, "unknown key "+key).At(pathKeys(key))
}

func (o *Object) getProperty(stdCtx context.Context, p *schema.Property) (value.Value, error) {
	if p.Cached {
		o.syncMu.Lock()
		if v, ok := o.cachedPropertyMap[p.Name]; ok {
			o.syncMu.Unlock()
			return v, nil
		}
		o.syncMu.Unlock()
	}
	if p.Getter == nil {
		return value.Null, nil
	}
	ctx := o.ctx(stdCtx).WithValue(value.Null)
	v, err := p.Getter.Run(ctx)
	if err != nil {
		return value.Null, err
	}
	if p.Cached {
		o.syncMu.Lock()
		o.cachedPropertyMap[p.Name] = v
		o.syncMu.Unlock()
	}
	return v, nil
}
