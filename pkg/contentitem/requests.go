package contentitem

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Request/Response DTOs

// CreateItemRequest contains parameters for creating a new content item
type CreateItemRequest struct {
	ContentType string
	DisplayText string
	Owner       string
	Author      string
	Parts       map[string]json.RawMessage
}

// UpdateItemRequest contains header fields to change. Nil fields are left as is.
type UpdateItemRequest struct {
	ID          uuid.UUID
	DisplayText *string
	Owner       *string
	Author      *string
	Published   *bool
}

// ListItemsRequest contains parameters for listing content items
type ListItemsRequest struct {
	ContentType string
	Owner       string
	Limit       int
	Offset      int
}

// Snapshot describes an item exported to a blob storage backend
type Snapshot struct {
	ItemID    uuid.UUID `json:"item_id"`
	VersionID uuid.UUID `json:"version_id"`
	Backend   string    `json:"backend"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
