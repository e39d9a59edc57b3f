package contentitem

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Hook system allows extending item persistence without modifying core code.
// Hooks are called at specific points of the service's save cycle.

// Hooks defines all available lifecycle hooks
type Hooks struct {
	BeforeItemCreate []BeforeItemCreateHook
	BeforeItemSave   []BeforeItemSaveHook
	AfterItemSave    []AfterItemSaveHook
	AfterItemDelete  []AfterItemDeleteHook

	OnPartChange []PartChangeHook

	OnError []ErrorHook
}

// HookContext carries information through the hook chain
type HookContext struct {
	Context   context.Context
	Metadata  map[string]interface{} // Custom metadata passed between hooks
	StopChain bool                   // Set to true to stop processing remaining hooks
}

// NewHookContext creates a new hook context
func NewHookContext(ctx context.Context) *HookContext {
	return &HookContext{
		Context:  ctx,
		Metadata: make(map[string]interface{}),
	}
}

// BeforeItemCreateHook is called before an item is created; it may reject the request
type BeforeItemCreateHook func(hctx *HookContext, req *CreateItemRequest) error

// BeforeItemSaveHook is called before an item is written; it may mutate the item
type BeforeItemSaveHook func(hctx *HookContext, item *ContentItem) error

// AfterItemSaveHook is called after an item was written
type AfterItemSaveHook func(hctx *HookContext, item *ContentItem) error

// AfterItemDeleteHook is called after an item was deleted
type AfterItemDeleteHook func(hctx *HookContext, itemID uuid.UUID) error

// PartChangeHook is called after a part change was persisted
type PartChangeHook func(hctx *HookContext, itemID uuid.UUID, part string, change PartChange) error

// ErrorHook is called when an error occurs
type ErrorHook func(hctx *HookContext, operation string, err error)

// Merge appends the hooks of other to h.
func (h *Hooks) Merge(other *Hooks) *Hooks {
	if other == nil {
		return h
	}
	h.BeforeItemCreate = append(h.BeforeItemCreate, other.BeforeItemCreate...)
	h.BeforeItemSave = append(h.BeforeItemSave, other.BeforeItemSave...)
	h.AfterItemSave = append(h.AfterItemSave, other.AfterItemSave...)
	h.AfterItemDelete = append(h.AfterItemDelete, other.AfterItemDelete...)
	h.OnPartChange = append(h.OnPartChange, other.OnPartChange...)
	h.OnError = append(h.OnError, other.OnError...)
	return h
}

func (h *Hooks) executeBeforeItemCreate(ctx context.Context, req *CreateItemRequest) error {
	if len(h.BeforeItemCreate) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeItemCreate {
		if err := hook(hctx, req); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeBeforeItemSave(ctx context.Context, item *ContentItem) error {
	if len(h.BeforeItemSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.BeforeItemSave {
		if err := hook(hctx, item); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterItemSave(ctx context.Context, item *ContentItem) error {
	if len(h.AfterItemSave) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterItemSave {
		if err := hook(hctx, item); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeAfterItemDelete(ctx context.Context, itemID uuid.UUID) error {
	if len(h.AfterItemDelete) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.AfterItemDelete {
		if err := hook(hctx, itemID); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeOnPartChange(ctx context.Context, itemID uuid.UUID, part string, change PartChange) error {
	if len(h.OnPartChange) == 0 {
		return nil
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnPartChange {
		if err := hook(hctx, itemID, part, change); err != nil {
			return err
		}
		if hctx.StopChain {
			break
		}
	}
	return nil
}

func (h *Hooks) executeOnError(ctx context.Context, operation string, err error) {
	if len(h.OnError) == 0 {
		return
	}

	hctx := NewHookContext(ctx)
	for _, hook := range h.OnError {
		hook(hctx, operation, err)
		if hctx.StopChain {
			break
		}
	}
}

// LoggingHook logs saves, deletes, part changes and errors
func LoggingHook(logger *slog.Logger) *Hooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{
		AfterItemSave: []AfterItemSaveHook{
			func(hctx *HookContext, item *ContentItem) error {
				logger.InfoContext(hctx.Context, "Content item saved", "item_id", item.ID, "content_type", item.ContentType, "parts", item.PartCount())
				return nil
			},
		},
		AfterItemDelete: []AfterItemDeleteHook{
			func(hctx *HookContext, itemID uuid.UUID) error {
				logger.InfoContext(hctx.Context, "Content item deleted", "item_id", itemID)
				return nil
			},
		},
		OnPartChange: []PartChangeHook{
			func(hctx *HookContext, itemID uuid.UUID, part string, change PartChange) error {
				logger.InfoContext(hctx.Context, "Content part changed", "item_id", itemID, "part", part, "change", string(change))
				return nil
			},
		},
		OnError: []ErrorHook{
			func(hctx *HookContext, operation string, err error) {
				logger.ErrorContext(hctx.Context, "Content item operation failed", "operation", operation, "error", err)
			},
		},
	}
}

// RequirePartsHook rejects saving items of contentType that lack any of the named parts
func RequirePartsHook(contentType string, parts ...string) BeforeItemSaveHook {
	return func(hctx *HookContext, item *ContentItem) error {
		if item.ContentType != contentType {
			return nil
		}
		for _, name := range parts {
			if !item.HasPart(name) {
				return &PartError{Part: name, Op: "validate", Err: ErrRequiredPartMissing}
			}
		}
		return nil
	}
}
