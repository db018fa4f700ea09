package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// ResourceDef describes one resource type: its name in paths and messages,
// how its key is read from a request, how a new entity is bound from query
// parameters and how it is laid out in PostgreSQL.
type ResourceDef[E Entity[E, K], K comparable] struct {
	Name     string
	KeyParam string
	ParseKey func(string) (K, error)
	// NextKey turns a store sequence number into a generated key. It is nil
	// for resources whose key is supplied by the client.
	NextKey func(seq int64) K
	Bind    func(p *params) E
	Table   Table[E]
	// Policy overrides the default role per operation.
	Policy Policy
}

func (d *ResourceDef[E, K]) generated() bool { return d.NextKey != nil }

// Resource serves List, Get, Create, Update and Delete for one entity type.
type Resource[E Entity[E, K], K comparable] struct {
	def    *ResourceDef[E, K]
	store  Store[E, K]
	policy Policy
}

// NewResource creates a Resource backed by store. The definition's policy is
// applied over DefaultPolicy, then overrides on top.
func NewResource[E Entity[E, K], K comparable](def *ResourceDef[E, K], store Store[E, K], overrides Policy) *Resource[E, K] {
	policy := DefaultPolicy()
	for op, role := range def.Policy {
		policy = policy.With(op, role)
	}
	for op, role := range overrides {
		policy = policy.With(op, role)
	}
	return &Resource[E, K]{def: def, store: store, policy: policy}
}

// Name returns the resource type name.
func (h *Resource[E, K]) Name() string { return h.def.Name }

// Register adds the resource's routes under /api/<Name>.
func (h *Resource[E, K]) Register(router *mux.Router) {
	base := "/api/" + h.def.Name
	router.HandleFunc(base+"/all", h.guard(OpList, h.handleList)).Methods(http.MethodGet)
	router.HandleFunc(base, h.guard(OpGet, h.handleGet)).Methods(http.MethodGet)
	router.HandleFunc(base+"/post", h.guard(OpCreate, h.handleCreate)).Methods(http.MethodPost)
	router.HandleFunc(base, h.guard(OpUpdate, h.handleUpdate)).Methods(http.MethodPut)
	router.HandleFunc(base, h.guard(OpDelete, h.handleDelete)).Methods(http.MethodDelete)
}

func (h *Resource[E, K]) guard(op Operation, next http.HandlerFunc) http.HandlerFunc {
	return requireRole(h.policy.Required(op), next)
}

// handleList processes GET /api/<Name>/all.
func (h *Resource[E, K]) handleList(w http.ResponseWriter, r *http.Request) {
	entities, err := h.store.FindAll(r.Context())
	if err != nil {
		writeError(w, r, fmt.Errorf("listing %s: %w", h.def.Name, err))
		return
	}
	writeJSON(w, r, http.StatusOK, entities)
}

// handleGet processes GET /api/<Name>?<key>=.
func (h *Resource[E, K]) handleGet(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entity, err := h.find(r, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entity)
}

// handleCreate processes POST /api/<Name>/post with one query parameter per field.
func (h *Resource[E, K]) handleCreate(w http.ResponseWriter, r *http.Request) {
	p := newParams(r.URL.Query())
	entity := h.def.Bind(p)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	var zero K
	if h.def.generated() {
		entity = entity.WithKey(zero)
	} else if entity.Key() == zero {
		writeError(w, r, validationErrorf("parameter '%s' must not be empty", h.def.KeyParam))
		return
	}
	if err := validateEntity(entity); err != nil {
		writeError(w, r, err)
		return
	}

	FromContext(r.Context()).WithField("resource", h.def.Name).Debugf("creating %+v", entity)
	saved, err := h.store.Save(r.Context(), entity)
	if err != nil {
		writeError(w, r, fmt.Errorf("saving %s: %w", h.def.Name, err))
		return
	}
	writeJSON(w, r, http.StatusOK, saved)
}

// handleUpdate processes PUT /api/<Name>?<key>= with the full entity as body.
func (h *Resource[E, K]) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var body *E
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, r, validationErrorf("invalid request payload: %v", err))
		return
	}
	if err := ensureSingleJSON(dec); err != nil {
		writeError(w, r, err)
		return
	}
	if body == nil {
		writeError(w, r, validationErrorf("request body is required"))
		return
	}
	incoming := *body
	if err := validateEntity(incoming); err != nil {
		writeError(w, r, err)
		return
	}

	existing, err := h.find(r, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	updated := incoming.WithKey(existing.Key())
	if _, err := h.store.Save(r.Context(), updated); err != nil {
		writeError(w, r, fmt.Errorf("updating %s: %w", h.def.Name, err))
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// handleDelete processes DELETE /api/<Name>?<key>=.
func (h *Resource[E, K]) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := h.key(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entity, err := h.find(r, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.store.Delete(r.Context(), entity); err != nil {
		writeError(w, r, fmt.Errorf("deleting %s: %w", h.def.Name, err))
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("%s with id %v deleted", h.def.Name, key),
	})
}

func (h *Resource[E, K]) key(r *http.Request) (K, error) {
	p := newParams(r.URL.Query())
	raw := p.String(h.def.KeyParam)
	if err := p.Err(); err != nil {
		var zero K
		return zero, err
	}
	key, err := h.def.ParseKey(raw)
	if err != nil {
		return key, validationErrorf("invalid value for parameter '%s': %v", h.def.KeyParam, err)
	}
	return key, nil
}

func (h *Resource[E, K]) find(r *http.Request, key K) (E, error) {
	entity, ok, err := h.store.FindByID(r.Context(), key)
	if err != nil {
		return entity, fmt.Errorf("finding %s %v: %w", h.def.Name, key, err)
	}
	if !ok {
		return entity, &EntityNotFoundError{Resource: h.def.Name, Key: key}
	}
	return entity, nil
}

// ensureSingleJSON ensures only a single JSON object is in the request body.
func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return validationErrorf("request body must only contain a single JSON object")
	}
	return nil
}
