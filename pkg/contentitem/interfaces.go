package contentitem

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for content item persistence
type Repository interface {
	// CreateItem stores a new item
	CreateItem(ctx context.Context, item *ContentItem) error

	// GetItem returns a fresh copy of a stored item
	GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error)

	// UpdateItem replaces a stored item, header and parts
	UpdateItem(ctx context.Context, item *ContentItem) error

	// DeleteItem soft-deletes an item
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// ListItems returns items matching the filter, newest first
	ListItems(ctx context.Context, filter ListItemsFilter) ([]*ContentItem, error)
}

// ListItemsFilter narrows ListItems. Zero values match everything.
type ListItemsFilter struct {
	ContentType string
	Owner       string
	Limit       int
	Offset      int
}

// BlobStore defines the interface for snapshot storage backends
type BlobStore interface {
	// Upload uploads content directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// GetDownloadURL returns a URL for downloading content
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// Download downloads content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for an object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// PartChange names the kind of change made to a part.
type PartChange string

const (
	PartWelded  PartChange = "welded"
	PartApplied PartChange = "applied"
	PartAltered PartChange = "altered"
	PartRemoved PartChange = "removed"
)

// EventSink defines the interface for event handling
type EventSink interface {
	// ItemCreated is fired when an item is created
	ItemCreated(ctx context.Context, item *ContentItem) error

	// ItemUpdated is fired when an item is saved
	ItemUpdated(ctx context.Context, item *ContentItem) error

	// ItemDeleted is fired when an item is deleted
	ItemDeleted(ctx context.Context, itemID uuid.UUID) error

	// PartChanged is fired after a part change was persisted
	PartChanged(ctx context.Context, itemID uuid.UUID, part string, change PartChange) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
