package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/content-parts/pkg/contentitem"
)

// maxPartBytes bounds request bodies carrying a single part
const maxPartBytes = 1 << 20

// CreateItemRequest is the request body for creating an item
type CreateItemRequest struct {
	ContentType string                     `json:"content_type"`
	DisplayText string                     `json:"display_text"`
	Owner       string                     `json:"owner"`
	Author      string                     `json:"author"`
	Parts       map[string]json.RawMessage `json:"parts,omitempty"`
}

// UpdateItemRequest is the request body for changing item header fields.
// Omitted fields are left unchanged.
type UpdateItemRequest struct {
	DisplayText *string `json:"display_text,omitempty"`
	Owner       *string `json:"owner,omitempty"`
	Author      *string `json:"author,omitempty"`
	Published   *bool   `json:"published,omitempty"`
}

// PartResponse is the response body for part operations
type PartResponse struct {
	ItemID    string          `json:"item_id"`
	VersionID string          `json:"version_id"`
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	Welded    *bool           `json:"welded,omitempty"`
}

// SnapshotRequest is the request body for snapshot and restore
type SnapshotRequest struct {
	Backend string `json:"backend"`
	Key     string `json:"key,omitempty"`
}

// SnapshotResponse is the response body for a snapshot
type SnapshotResponse struct {
	*contentitem.Snapshot
	URL string `json:"url,omitempty"`
}

// ItemHandler handles HTTP requests for content items and their parts
type ItemHandler struct {
	service         contentitem.Service
	snapshotBackend string
	logger          *slog.Logger
}

// NewItemHandler creates a new item handler. snapshotBackend is used when a
// snapshot request names no backend.
func NewItemHandler(service contentitem.Service, snapshotBackend string, logger *slog.Logger) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{
		service:         service,
		snapshotBackend: snapshotBackend,
		logger:          logger,
	}
}

// Routes returns the routes for items
func (h *ItemHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateItem)
	r.Get("/", h.ListItems)
	r.Get("/{id}", h.GetItem)
	r.Put("/{id}", h.UpdateItem)
	r.Delete("/{id}", h.DeleteItem)

	r.Get("/{id}/parts/{name}", h.GetPart)
	r.Post("/{id}/parts/{name}", h.WeldPart)
	r.Put("/{id}/parts/{name}", h.ApplyPart)
	r.Patch("/{id}/parts/{name}", h.AlterPart)
	r.Delete("/{id}/parts/{name}", h.RemovePart)

	r.Post("/{id}/snapshots", h.SnapshotItem)

	return r
}

// SnapshotRoutes returns the routes for snapshots not tied to a stored item
func (h *ItemHandler) SnapshotRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/restore", h.RestoreSnapshot)
	return r
}

// CreateItem creates a new item
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ContentType == "" {
		http.Error(w, "content_type is required", http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), contentitem.CreateItemRequest{
		ContentType: req.ContentType,
		DisplayText: req.DisplayText,
		Owner:       req.Owner,
		Author:      req.Author,
		Parts:       req.Parts,
	})
	if err != nil {
		h.fail(w, r, "Failed to create item", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Item created", "item_id", item.ID, "content_type", item.ContentType)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

// ListItems lists items, optionally filtered by content type and owner
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := contentitem.ListItemsRequest{
		ContentType: q.Get("content_type"),
		Owner:       q.Get("owner"),
	}

	var err error
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	if req.Offset, err = intParam(q.Get("offset")); err != nil {
		http.Error(w, "Invalid offset", http.StatusBadRequest)
		return
	}

	items, err := h.service.ListItems(r.Context(), req)
	if err != nil {
		h.fail(w, r, "Failed to list items", err)
		return
	}
	render.JSON(w, r, items)
}

// GetItem retrieves an item by ID
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get item", err)
		return
	}
	render.JSON(w, r, item)
}

// UpdateItem changes item header fields
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), contentitem.UpdateItemRequest{
		ID:          id,
		DisplayText: req.DisplayText,
		Owner:       req.Owner,
		Author:      req.Author,
		Published:   req.Published,
	})
	if err != nil {
		h.fail(w, r, "Failed to update item", err)
		return
	}
	render.JSON(w, r, item)
}

// DeleteItem deletes an item
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, "Failed to delete item", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetPart returns a single part of an item
func (h *ItemHandler) GetPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to get item", err)
		return
	}
	h.renderPart(w, r, item, name, nil)
}

// WeldPart attaches a part unless the item already has one under that name.
// The response carries the stored value, which is the existing one when the
// weld did not happen.
func (h *ItemHandler) WeldPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	raw, ok := readPart(w, r)
	if !ok {
		return
	}

	item, welded, err := h.service.WeldPart(r.Context(), id, name, raw)
	if err != nil {
		h.fail(w, r, "Failed to weld part", err)
		return
	}
	if !welded {
		h.logger.DebugContext(r.Context(), "Part already present, weld ignored", "item_id", id, "part", name)
	}
	h.renderPart(w, r, item, name, &welded)
}

// ApplyPart stores a part, replacing any existing value
func (h *ItemHandler) ApplyPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	raw, ok := readPart(w, r)
	if !ok {
		return
	}

	item, err := h.service.ApplyPart(r.Context(), id, name, raw)
	if err != nil {
		h.fail(w, r, "Failed to apply part", err)
		return
	}
	h.renderPart(w, r, item, name, nil)
}

// AlterPart merges the fields of a JSON object into a part, creating it
// when absent
func (h *ItemHandler) AlterPart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	patch, ok := readPart(w, r)
	if !ok {
		return
	}

	item, err := h.service.AlterPart(r.Context(), id, name, patch)
	if err != nil {
		h.fail(w, r, "Failed to alter part", err)
		return
	}
	h.renderPart(w, r, item, name, nil)
}

// RemovePart deletes a part from an item
func (h *ItemHandler) RemovePart(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")

	if _, err := h.service.RemovePart(r.Context(), id, name); err != nil {
		h.fail(w, r, "Failed to remove part", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SnapshotItem exports an item to a snapshot backend
func (h *ItemHandler) SnapshotItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var req SnapshotRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Backend == "" {
		req.Backend = h.snapshotBackend
	}

	snap, err := h.service.SnapshotItem(r.Context(), id, req.Backend)
	if err != nil {
		h.fail(w, r, "Failed to snapshot item", err)
		return
	}

	resp := SnapshotResponse{Snapshot: snap}
	url, err := h.service.SnapshotURL(r.Context(), snap.Backend, snap.Key)
	switch {
	case err == nil:
		resp.URL = url
	case !errors.Is(err, contentitem.ErrURLNotSupported):
		h.logger.WarnContext(r.Context(), "Failed to get snapshot URL", "key", snap.Key, "error", err)
	}

	h.logger.InfoContext(r.Context(), "Item snapshot taken", "item_id", id, "backend", snap.Backend, "key", snap.Key)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// RestoreSnapshot loads an item back from a snapshot
func (h *ItemHandler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	var req SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Key == "" {
		http.Error(w, "key is required", http.StatusBadRequest)
		return
	}
	if req.Backend == "" {
		req.Backend = h.snapshotBackend
	}

	item, err := h.service.RestoreSnapshot(r.Context(), req.Backend, req.Key)
	if err != nil {
		h.fail(w, r, "Failed to restore snapshot", err)
		return
	}

	h.logger.InfoContext(r.Context(), "Item restored", "item_id", item.ID, "key", req.Key)
	render.JSON(w, r, item)
}

func (h *ItemHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid item ID", "item_id", idStr, "error", err)
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ItemHandler) renderPart(w http.ResponseWriter, r *http.Request, item *contentitem.ContentItem, name string, welded *bool) {
	raw, err := item.RawPart(name)
	if err != nil {
		h.fail(w, r, "Failed to get part", err)
		return
	}
	render.JSON(w, r, PartResponse{
		ItemID:    item.ID.String(),
		VersionID: item.VersionID.String(),
		Name:      name,
		Value:     raw,
		Welded:    welded,
	})
}

func (h *ItemHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), msg, "error", err)
	} else {
		h.logger.InfoContext(r.Context(), msg, "status", status, "error", err)
	}
	http.Error(w, err.Error(), status)
}

func readPart(w http.ResponseWriter, r *http.Request) (json.RawMessage, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPartBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "part too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	if !json.Valid(body) {
		http.Error(w, "part body must be valid JSON", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.New("invalid integer parameter")
	}
	return v, nil
}
