package contentitem

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrItemNotFound indicates a content item was not found
	ErrItemNotFound = errors.New("content item not found")

	// ErrItemExists indicates a content item with the same ID is already stored
	ErrItemExists = errors.New("content item already exists")

	// ErrPartNotFound indicates the item holds no part under the requested name
	ErrPartNotFound = errors.New("content part not found")

	// ErrRequiredPartMissing indicates a save was rejected because a required part is absent
	ErrRequiredPartMissing = errors.New("required content part missing")

	// ErrPartTypeMismatch indicates the stored part is not of the requested type
	ErrPartTypeMismatch = errors.New("content part type mismatch")

	// ErrInvalidPartName indicates an empty or otherwise unusable part name
	ErrInvalidPartName = errors.New("invalid content part name")

	// ErrViewNotRegistered indicates no constructor is registered for a view type
	ErrViewNotRegistered = errors.New("typed view not registered")

	// ErrNilContentItem is returned when an operation receives a nil item
	ErrNilContentItem = errors.New("content item is nil")

	// ErrStorageBackendNotFound indicates a snapshot backend was not found
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrSnapshotNotFound indicates a snapshot key does not exist in a backend
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrURLNotSupported indicates a storage backend cannot hand out URLs
	ErrURLNotSupported = errors.New("storage backend does not support URLs")
)

// PartError represents an error related to a single content part
type PartError struct {
	Part string
	Op   string
	Err  error
}

func (e *PartError) Error() string {
	return fmt.Sprintf("part operation %s failed for part %s: %v", e.Op, e.Part, e.Err)
}

func (e *PartError) Unwrap() error {
	return e.Err
}

// ViewError represents an error raised while projecting an item into a typed view
type ViewError struct {
	View string
	Err  error
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("cannot build view %s: %v", e.View, e.Err)
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// ItemError represents an error related to content item persistence
type ItemError struct {
	ItemID uuid.UUID
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("content item operation %s failed for item %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to snapshot storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
