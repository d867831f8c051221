package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	rkaction "recordkit/internal/action"
	"recordkit/internal/auth"
	"recordkit/internal/http/httperr"
	"recordkit/internal/object"
	"recordkit/internal/observability/logger"
	"recordkit/internal/pipeline"
	"recordkit/internal/rkerr"
	"recordkit/internal/schema"
	"recordkit/internal/store"
	"recordkit/internal/value"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RecordHandler serves the generic, schema-driven object CRUD surface
// (`/objects/{model}`) every SPEC_FULL.md operation ultimately runs through:
// it resolves a model from the URL, opens one store transaction per request,
// and drives the Record Object engine the way the teacher's per-domain
// handlers (contact.go, task.go, ...) drive service.ContactService et al —
// except here one handler serves every model in the registry instead of one
// per domain type.
type RecordHandler struct {
	registry *schema.Registry
	txn      store.TransactionContext
}

// NewRecordHandler builds a RecordHandler over reg, persisting through txn
// (normally a *postgres.Store, which Begin's one store.Tx per request).
func NewRecordHandler(reg *schema.Registry, txn store.TransactionContext) *RecordHandler {
	return &RecordHandler{registry: reg, txn: txn}
}

func (h *RecordHandler) modelFromRequest(w http.ResponseWriter, r *http.Request) (*schema.Model, bool) {
	name := chi.URLParam(r, "model")
	m, ok := h.registry.Model(name)
	if !ok {
		httperr.WriteError(w, r.Context(), http.StatusNotFound, httperr.ErrCodeNotFound, "unknown model "+name)
		return nil, false
	}
	return m, true
}

func requestInitiator(ctx context.Context) pipeline.Request {
	claims, _ := auth.GetClaims(ctx)
	return pipeline.Request{Initiator: auth.Initiator(claims)}
}

// List handles GET /objects/{model}.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	m, ok := h.modelFromRequest(w, r)
	if !ok {
		return
	}

	filter := store.Filter{}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 || limit > 200 {
			httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidLimit, "limit must be between 1 and 200")
			return
		}
		filter.Take = &limit
	}

	rows, err := h.txn.FindMany(ctx, store.ModelName(m.Name), filter, rkaction.FindMany, value.Null)
	if err != nil {
		log.Error(ctx, "list failed", zap.String("model", m.Name), zap.Error(err))
		writeEngineError(w, ctx, err)
		return
	}

	req := requestInitiator(ctx)
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		o := object.New(h.registry, m, rkaction.FindSingle, h.txn, req)
		if err := o.SetFromStoreRow(row); err != nil {
			writeEngineError(w, ctx, err)
			return
		}
		json, err := o.ToJSON(ctx, nil)
		if err != nil {
			writeEngineError(w, ctx, err)
			return
		}
		out = append(out, value.ToInterface(json))
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

// Get handles GET /objects/{model}/{id}.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, ok := h.modelFromRequest(w, r)
	if !ok {
		return
	}

	o, found, err := h.loadByID(ctx, m, chi.URLParam(r, "id"), requestInitiator(ctx))
	if err != nil {
		writeEngineError(w, ctx, err)
		return
	}
	if !found {
		httperr.WriteError(w, ctx, http.StatusNotFound, httperr.ErrCodeNotFound, m.Name+" not found")
		return
	}

	json, err := o.ToJSON(ctx, nil)
	if err != nil {
		writeEngineError(w, ctx, err)
		return
	}
	writeJSON(w, http.StatusOK, value.ToInterface(json))
}

// Create handles POST /objects/{model}.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	m, ok := h.modelFromRequest(w, r)
	if !ok {
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, err.Error())
		return
	}

	tx, err := h.txn.Begin(ctx)
	if err != nil {
		log.Error(ctx, "begin transaction failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	o := object.New(h.registry, m, rkaction.CreateSingle, tx, requestInitiator(ctx))
	if err := o.SetFromPayload(ctx, payload); err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if err := o.Save(ctx); err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, "commit failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	json, err := o.ToJSON(ctx, nil)
	if err != nil {
		writeEngineError(w, ctx, err)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+idFromObject(o))
	writeJSON(w, http.StatusCreated, value.ToInterface(json))
}

// Update handles PATCH /objects/{model}/{id}.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	m, ok := h.modelFromRequest(w, r)
	if !ok {
		return
	}

	payload, err := decodePayload(r)
	if err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, err.Error())
		return
	}

	tx, err := h.txn.Begin(ctx)
	if err != nil {
		log.Error(ctx, "begin transaction failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	req := requestInitiator(ctx)
	o, found, err := h.loadByID(ctx, m, chi.URLParam(r, "id"), req)
	if err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if !found {
		_ = tx.Rollback(ctx)
		httperr.WriteError(w, ctx, http.StatusNotFound, httperr.ErrCodeNotFound, m.Name+" not found")
		return
	}

	if err := o.UpdateFromPayload(ctx, payload); err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if err := o.Save(ctx); err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, "commit failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	json, err := o.ToJSON(ctx, nil)
	if err != nil {
		writeEngineError(w, ctx, err)
		return
	}
	writeJSON(w, http.StatusOK, value.ToInterface(json))
}

// Delete handles DELETE /objects/{model}/{id}.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)
	m, ok := h.modelFromRequest(w, r)
	if !ok {
		return
	}

	tx, err := h.txn.Begin(ctx)
	if err != nil {
		log.Error(ctx, "begin transaction failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	o, found, err := h.loadByID(ctx, m, chi.URLParam(r, "id"), requestInitiator(ctx))
	if err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if !found {
		_ = tx.Rollback(ctx)
		httperr.WriteError(w, ctx, http.StatusNotFound, httperr.ErrCodeNotFound, m.Name+" not found")
		return
	}

	if err := o.Delete(ctx); err != nil {
		_ = tx.Rollback(ctx)
		writeEngineError(w, ctx, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, "commit failed", zap.Error(err))
		httperr.InternalError(w, ctx)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// loadByID fetches the row whose single-column primary key equals id and
// hydrates a Record Object from it. Composite-key models (e.g. the demo
// schema's PostTag join table) aren't reachable through this route — they
// are only ever addressed through the owning side's relation payload.
func (h *RecordHandler) loadByID(ctx context.Context, m *schema.Model, id string, req pipeline.Request) (*object.Object, bool, error) {
	if len(m.PrimaryIndex) != 1 {
		return nil, false, rkerr.New(rkerr.InvalidOperation, m.Name+" has no single-column primary key addressable by id")
	}
	pkField, ok := m.Field(m.PrimaryIndex[0])
	if !ok {
		return nil, false, rkerr.New(rkerr.InvalidOperation, m.Name+" primary key field not found")
	}

	filter := store.Filter{Equals: map[string]value.Value{pkField.ColumnName: value.String(id)}}
	row, found, err := h.txn.FindUnique(ctx, store.ModelName(m.Name), filter, rkaction.FindSingle, req.Initiator)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	o := object.New(h.registry, m, rkaction.UpdateSingle, h.txn, req)
	if err := o.SetFromStoreRow(row); err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func idFromObject(o *object.Object) string {
	v, ok := o.GetScalar("id")
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

func decodePayload(r *http.Request) (*value.OrderedMap, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.New("failed to read request body")
	}
	v, err := value.FromJSON(raw)
	if err != nil {
		return nil, errors.New("request body must be valid JSON")
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return m, nil
}

// writeEngineError maps an *rkerr.Error to its HTTP status per spec.md §7;
// any other error (store-driver failures not already wrapped) is an
// internal error.
func writeEngineError(w http.ResponseWriter, ctx context.Context, err error) {
	var e *rkerr.Error
	if !errors.As(err, &e) {
		httperr.InternalError(w, ctx)
		return
	}
	switch e.Kind {
	case rkerr.NotFound:
		httperr.WriteError(w, ctx, http.StatusNotFound, httperr.ErrCodeNotFound, e.Message)
	case rkerr.PermissionDenied, rkerr.DeletionDenied, rkerr.CannotDisconnectPreviousRelation:
		httperr.Forbidden403(w, ctx, httperr.ErrCodeForbidden, e.Message)
	case rkerr.MissingRequiredInput, rkerr.InvalidKey, rkerr.TypeError, rkerr.ValueError, rkerr.InvalidOperation:
		httperr.WriteErrorWithFields(w, ctx, http.StatusUnprocessableEntity, httperr.ErrCodeValidationError, e.Message, e.Fields)
	default:
		httperr.InternalError500(w, ctx, e.Message)
	}
}
