package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the collection endpoints over a Store.
type Handler struct {
	// Store holds the collections.
	Store *Store
}

// List handles GET /{collection}, applying every query parameter as an
// equality filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	filters := map[string]string{}
	for field, vals := range r.URL.Query() {
		if len(vals) > 0 {
			filters[field] = vals[0]
		}
	}

	writeJSON(w, http.StatusOK, h.Store.List(coll, filters))
}

// GetByID handles GET /{collection}/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	doc, found := h.Store.Get(coll, chi.URLParam(r, "id"))
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Create handles POST /{collection}, answering 201 with the stored record.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, h.Store.Insert(coll, doc))
}

// Replace handles PUT /{collection}/{id}, answering 200 with the stored
// record.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	coll, ok := collectionFrom(w, r)
	if !ok {
		return
	}

	var doc Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil || doc == nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	stored, found := h.Store.Replace(coll, chi.URLParam(r, "id"), doc)
	if !found {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func collectionFrom(w http.ResponseWriter, r *http.Request) (string, bool) {
	coll := chi.URLParam(r, "collection")
	if !Known(coll) {
		http.Error(w, "unknown collection", http.StatusNotFound)
		return "", false
	}
	return coll, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
