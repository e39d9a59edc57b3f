package contentitem

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// Service defines the persisted-item interface of the contentitem library
type Service interface {
	// Item operations
	CreateItem(ctx context.Context, req CreateItemRequest) (*ContentItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	SaveItem(ctx context.Context, item *ContentItem) error
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*ContentItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, req ListItemsRequest) ([]*ContentItem, error)

	// Part operations on stored items
	GetPart(ctx context.Context, itemID uuid.UUID, name string) (json.RawMessage, error)
	WeldPart(ctx context.Context, itemID uuid.UUID, name string, raw json.RawMessage) (*ContentItem, bool, error)
	ApplyPart(ctx context.Context, itemID uuid.UUID, name string, raw json.RawMessage) (*ContentItem, error)
	AlterPart(ctx context.Context, itemID uuid.UUID, name string, patch json.RawMessage) (*ContentItem, error)
	RemovePart(ctx context.Context, itemID uuid.UUID, name string) (*ContentItem, error)

	// CommitPart saves an item whose part was changed in memory and fires part events
	CommitPart(ctx context.Context, item *ContentItem, part string, change PartChange) error

	// Snapshot operations
	SnapshotItem(ctx context.Context, itemID uuid.UUID, backend string) (*Snapshot, error)
	RestoreSnapshot(ctx context.Context, backend, key string) (*ContentItem, error)
	SnapshotURL(ctx context.Context, backend, key string) (string, error)

	// Storage backend operations
	RegisterBackend(name string, backend BlobStore)
	GetBackend(name string) (BlobStore, error)
}

// AlterStored loads an item, alters its part of type T and saves it. The item
// is not saved when fn fails; fn's error is returned unchanged. A stored part
// that cannot be read as T is reported as a *PartError and fn is not called.
func AlterStored[T any](ctx context.Context, svc Service, itemID uuid.UUID, fn func(context.Context, *T) error) (*ContentItem, error) {
	item, err := svc.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if _, err := AlterContext(ctx, item, fn); err != nil {
		return nil, err
	}
	if err := svc.CommitPart(ctx, item, NameOf[T](), PartAltered); err != nil {
		return nil, err
	}
	return item, nil
}
