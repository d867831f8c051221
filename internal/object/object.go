// Package object implements the Record Object state machine (spec.md §3,
// §4.2): the mutable handle that tracks one row's lifecycle, translates
// nested user payloads into ordered store calls, and runs every pipeline
// the schema attaches to a field, relation, or property.
package object

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"recordkit/internal/action"
	"recordkit/internal/pipeline"
	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"
)

// Object is a Record Object: one row's runtime handle. Objects are always
// held by pointer and shared by reference — nested interpretation walks a
// graph of Objects that hold each other live while children are resolved,
// the same sharing spec.md §3 describes as "reference-counted" in the
// source; Go's garbage collector makes an explicit refcount unnecessary,
// so a live *Object is kept alive simply by being reachable.
//
// Three locking disciplines coexist, per spec.md §5:
//   - syncMu guards the pure-synchronous maps (value, previous-value,
//     modified-fields, atomic-updater, cached-property, relation-query,
//     selected-fields) with a short critical section that never awaits.
//   - mutationMu guards the relation-mutation and programmatic set/
//     connect/disconnect maps, which the nested interpreter may hold
//     across a store round trip while resolving a child.
//   - the atomic.Bool flags need no lock at all.
type Object struct {
	model    *schema.Model
	registry *schema.Registry
	act      action.Action
	txn      store.TransactionContext
	request  pipeline.Request

	isNew           atomic.Bool
	isModified      atomic.Bool
	isInitialized   atomic.Bool
	isDeleted       atomic.Bool
	isPartial       atomic.Bool
	insideBeforeSave atomic.Bool
	insideAfterSave  atomic.Bool

	syncMu sync.Mutex

	valueMap           *value.OrderedMap
	previousValueMap   map[string]value.Value
	modifiedFields     map[string]bool
	atomicUpdaterMap   map[string]value.AtomicUpdater
	cachedPropertyMap  map[string]value.Value
	relationQueryMap   map[string]*RelationResult
	// relationMutationFetched is kept distinct from relationQueryMap (see
	// SPEC_FULL.md "OPEN QUESTIONS" #1). New allocates it empty; no code
	// path writes or reads it.
	relationMutationFetched map[string]bool
	selectedFields          map[string]bool

	mutationMu sync.Mutex

	relationMutationMap *value.OrderedMap // relation name -> raw user payload
	setManyMap          map[string][]value.Value
	setOneMap           map[string]value.Value
	connectMap          map[string][]value.Value
	disconnectMap       map[string][]value.Value

	virtualFields map[string]value.Value
}

// RelationResult is what fetch_relation stores: either a single fetched
// object (one-to-one/many-to-one) or a vec of them.
type RelationResult struct {
	IsVec   bool
	One     *Object
	Many    []*Object
}

// New returns a blank record with is_new=true, is_initialized=false
// (spec.md §4.2 "new").
func New(reg *schema.Registry, model *schema.Model, act action.Action, txn store.TransactionContext, req pipeline.Request) *Object {
	o := &Object{
		model:                   model,
		registry:                reg,
		act:                     act,
		txn:                     txn,
		request:                 req,
		valueMap:                value.NewOrderedMap(),
		previousValueMap:        map[string]value.Value{},
		modifiedFields:          map[string]bool{},
		atomicUpdaterMap:        map[string]value.AtomicUpdater{},
		cachedPropertyMap:       map[string]value.Value{},
		relationQueryMap:        map[string]*RelationResult{},
		relationMutationFetched: map[string]bool{},
		selectedFields:          map[string]bool{},
		relationMutationMap:     value.NewOrderedMap(),
		setManyMap:              map[string][]value.Value{},
		setOneMap:               map[string]value.Value{},
		connectMap:              map[string][]value.Value{},
		disconnectMap:           map[string][]value.Value{},
		virtualFields:           map[string]value.Value{},
	}
	o.isNew.Store(true)
	return o
}

// Model returns the schema model this object is an instance of.
func (o *Object) Model() *schema.Model { return o.model }

// ModelName implements pipeline.ObjectHandle.
func (o *Object) ModelName() string { return o.model.Name }

// Action returns the action bits this object was created under.
func (o *Object) Action() action.Action { return o.act }

// IsNew implements pipeline.ObjectHandle and spec.md §3 invariant 1.
func (o *Object) IsNew() bool { return o.isNew.Load() }

// IsModified reports whether any field/relation has been touched since
// load or the last save (spec.md §3 invariant 1).
func (o *Object) IsModified() bool { return o.isModified.Load() }

// IsInitialized reports whether set_from_payload has run at least once or
// the record was hydrated from a store row by SetFromStoreRow.
func (o *Object) IsInitialized() bool { return o.isInitialized.Load() }

// IsDeleted reports whether Delete has completed successfully.
func (o *Object) IsDeleted() bool { return o.isDeleted.Load() }

// ctx builds the base pipeline.Ctx for this object; callers add Value/Path.
func (o *Object) ctx(stdCtx context.Context) pipeline.Ctx {
	return pipeline.Ctx{
		Object:      o,
		Action:      o.act,
		Transaction: o.txn,
		Request:     o.request,
		StdCtx:      stdCtx,
	}
}

// GetScalar implements pipeline.ObjectHandle and is also used internally by
// the relation interpreter and auto-fill to read a raw field value without
// running any pipeline (spec.md §4.2 "set_scalar" is the write-side
// counterpart of this read).
func (o *Object) GetScalar(key string) (value.Value, bool) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	return o.valueMap.Get(key)
}

// SetScalar writes key directly to value_map without running any pipeline
// (spec.md §4.2 "set_scalar"), marking the field modified. Used by the
// relation interpreter to fill FK columns and by auto-increment/auto
// default population.
func (o *Object) SetScalar(key string, v value.Value) error {
	f, ok := o.model.Field(key)
	if !ok {
		return rkerr.New(rkerr.InvalidKey, "unknown field "+key)
	}
	o.setScalarLocked(f, v)
	return nil
}

func (o *Object) setScalarLocked(f *schema.Field, v value.Value) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	o.recordPreviousLocked(f)
	if v.IsNull() {
		o.valueMap.Delete(f.Name)
	} else {
		o.valueMap.Set(f.Name, v)
	}
	o.modifiedFields[f.Name] = true
	o.evictDependentPropertiesLocked(f.Name)
	o.isModified.Store(true)
}

// recordPreviousLocked implements spec.md §3 invariant 3: previous_value_map[k]
// is populated once, at the moment k is first mutated on a non-new object,
// and only if the field's previous flag is Keep. Caller must hold syncMu.
func (o *Object) recordPreviousLocked(f *schema.Field) {
	if o.isNew.Load() {
		return
	}
	if f.Previous != schema.PreviousKeep {
		return
	}
	if o.modifiedFields[f.Name] {
		return // already recorded on first touch
	}
	if cur, ok := o.valueMap.Get(f.Name); ok {
		o.previousValueMap[f.Name] = cur
	}
}

// evictDependentPropertiesLocked implements spec.md §3 invariant 4: when a
// scalar field changes, every cached property depending on it is evicted
// and added to modified_fields. Caller must hold syncMu.
func (o *Object) evictDependentPropertiesLocked(fieldName string) {
	for _, p := range o.model.Properties {
		if !p.Cached {
			continue
		}
		for _, dep := range p.Dependencies {
			if dep == fieldName {
				delete(o.cachedPropertyMap, p.Name)
				o.modifiedFields[p.Name] = true
				break
			}
		}
	}
}

// GetPreviousValue returns the value recorded at the moment field was
// first mutated (spec.md §8 testable property 2), or the current value if
// none was recorded (new record, or field wasn't Keep, or never mutated).
func (o *Object) GetPreviousValue(field string) value.Value {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	if v, ok := o.previousValueMap[field]; ok {
		return v
	}
	v, _ := o.valueMap.Get(field)
	return v
}

// ModifiedFields returns a snapshot of the fields touched since load/clear.
func (o *Object) ModifiedFields() []string {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	out := make([]string, 0, len(o.modifiedFields))
	for k := range o.modifiedFields {
		out = append(out, k)
	}
	return out
}

// SetVirtual sets a virtual (store-less) field value, preserved across
// Refreshed (spec.md §3 glossary "Virtual field").
func (o *Object) SetVirtual(name string, v value.Value) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()
	o.virtualFields[name] = v
}

// newChildID generates an identifier for a new record lacking a
// store-assigned key, the way the teacher's domain.Contact generates ids
// with google/uuid before insert.
func newChildID() string {
	return uuid.NewString()
}
