package contentitem

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ContentItem is a schema-less document made of named parts.
//
// Header fields are first-class; everything else lives in parts. A part entry
// holds either the raw JSON it was loaded with or a pointer to the decoded
// part. Typed access decodes lazily and caches the pointer, so repeated
// lookups of the same part return the same value.
//
// Part access is guarded by a per-item mutex, so concurrent lookups (which
// may decode and cache) are safe. Decoded part values are shared pointers:
// callers changing a part's fields from several goroutines must coordinate.
// A ContentItem must not be copied after first use.
type ContentItem struct {
	ID          uuid.UUID
	VersionID   uuid.UUID
	ContentType string
	DisplayText string
	Owner       string
	Author      string
	Published   bool
	Latest      bool
	CreatedAt   time.Time
	ModifiedAt  time.Time
	PublishedAt *time.Time

	mu    sync.Mutex
	parts map[string]any
}

// New creates an empty content item of the given content type.
func New(contentType string) *ContentItem {
	now := time.Now().UTC()
	return &ContentItem{
		ID:          uuid.New(),
		VersionID:   uuid.New(),
		ContentType: contentType,
		Latest:      true,
		CreatedAt:   now,
		ModifiedAt:  now,
		parts:       make(map[string]any),
	}
}

// setPart stores value under name. c.mu must be held.
func (c *ContentItem) setPart(name string, value any) {
	if c.parts == nil {
		c.parts = make(map[string]any)
	}
	c.parts[name] = value
}

// HasPart reports whether a part is stored under name.
func (c *ContentItem) HasPart(name string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.parts[name]
	return ok
}

// PartNames returns the stored part names in sorted order.
func (c *ContentItem) PartNames() []string {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	names := make([]string, 0, len(c.parts))
	for name := range c.parts {
		names = append(names, name)
	}
	c.mu.Unlock()
	slices.Sort(names)
	return names
}

// PartCount returns the number of stored parts.
func (c *ContentItem) PartCount() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.parts)
}

// RemovePart deletes the part stored under name and reports whether it existed.
func (c *ContentItem) RemovePart(name string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.parts[name]; !ok {
		return false
	}
	delete(c.parts, name)
	return true
}

// RawPart returns the JSON encoding of the part stored under name.
func (c *ContentItem) RawPart(name string) (json.RawMessage, error) {
	if c == nil {
		return nil, ErrNilContentItem
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawPartLocked(name)
}

func (c *ContentItem) rawPartLocked(name string) (json.RawMessage, error) {
	v, ok := c.parts[name]
	if !ok {
		return nil, &PartError{Part: name, Op: "raw", Err: ErrPartNotFound}
	}
	return encodePart(name, v)
}

// SetRawPart stores raw JSON under name, replacing any existing part.
// The raw value is decoded on first typed access.
func (c *ContentItem) SetRawPart(name string, raw json.RawMessage) error {
	if err := validateRawPart(name, raw); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPart(name, cloneRaw(raw))
	return nil
}

// WeldRawPart stores raw JSON under name only if no part of that name exists.
// It reports whether the part was stored.
func (c *ContentItem) WeldRawPart(name string, raw json.RawMessage) (bool, error) {
	if err := validateRawPart(name, raw); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.parts[name]; ok {
		return false, nil
	}
	c.setPart(name, cloneRaw(raw))
	return true, nil
}

// MergeRawPart merges the top-level fields of a JSON object patch into the
// part stored under name, creating the part when absent. A null field in the
// patch removes that field from the part.
func (c *ContentItem) MergeRawPart(name string, patch json.RawMessage) error {
	if err := validateRawPart(name, patch); err != nil {
		return err
	}

	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patch, &changes); err != nil {
		return &PartError{Part: name, Op: "merge", Err: fmt.Errorf("patch must be a JSON object: %w", err)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	fields := make(map[string]json.RawMessage)
	if _, ok := c.parts[name]; ok {
		current, err := c.rawPartLocked(name)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(current, &fields); err != nil {
			return &PartError{Part: name, Op: "merge", Err: fmt.Errorf("stored part is not a JSON object: %w", err)}
		}
		if fields == nil {
			fields = make(map[string]json.RawMessage)
		}
	}

	for key, value := range changes {
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			delete(fields, key)
			continue
		}
		fields[key] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return &PartError{Part: name, Op: "merge", Err: err}
	}
	c.setPart(name, json.RawMessage(merged))
	return nil
}

// Clone returns a deep copy of the item. Decoded parts are re-encoded, so
// the copy shares no part values with the original.
func (c *ContentItem) Clone() (*ContentItem, error) {
	if c == nil {
		return nil, ErrNilContentItem
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	clone := &ContentItem{}
	if err := json.Unmarshal(data, clone); err != nil {
		return nil, err
	}
	return clone, nil
}

// document is the JSON shape of a content item.
type document struct {
	ContentItemID        uuid.UUID                  `json:"ContentItemId"`
	ContentItemVersionID uuid.UUID                  `json:"ContentItemVersionId"`
	ContentType          string                     `json:"ContentType"`
	DisplayText          string                     `json:"DisplayText,omitempty"`
	Latest               bool                       `json:"Latest"`
	Published            bool                       `json:"Published"`
	Owner                string                     `json:"Owner,omitempty"`
	Author               string                     `json:"Author,omitempty"`
	CreatedUtc           time.Time                  `json:"CreatedUtc"`
	ModifiedUtc          time.Time                  `json:"ModifiedUtc"`
	PublishedUtc         *time.Time                 `json:"PublishedUtc,omitempty"`
	Parts                map[string]json.RawMessage `json:"Parts"`
}

// MarshalJSON encodes the item header and all parts.
func (c *ContentItem) MarshalJSON() ([]byte, error) {
	c.mu.Lock()
	parts, err := c.encodeParts()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return json.Marshal(document{
		ContentItemID:        c.ID,
		ContentItemVersionID: c.VersionID,
		ContentType:          c.ContentType,
		DisplayText:          c.DisplayText,
		Latest:               c.Latest,
		Published:            c.Published,
		Owner:                c.Owner,
		Author:               c.Author,
		CreatedUtc:           c.CreatedAt,
		ModifiedUtc:          c.ModifiedAt,
		PublishedUtc:         c.PublishedAt,
		Parts:                parts,
	})
}

// UnmarshalJSON decodes the item header; parts are kept as raw JSON until
// accessed through a typed helper.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	c.ID = doc.ContentItemID
	c.VersionID = doc.ContentItemVersionID
	c.ContentType = doc.ContentType
	c.DisplayText = doc.DisplayText
	c.Latest = doc.Latest
	c.Published = doc.Published
	c.Owner = doc.Owner
	c.Author = doc.Author
	c.CreatedAt = doc.CreatedUtc
	c.ModifiedAt = doc.ModifiedUtc
	c.PublishedAt = doc.PublishedUtc

	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts = make(map[string]any, len(doc.Parts))
	for name, raw := range doc.Parts {
		c.parts[name] = raw
	}
	return nil
}

// PartsJSON encodes only the parts map. Repositories that keep header fields
// in their own columns store this.
func (c *ContentItem) PartsJSON() ([]byte, error) {
	c.mu.Lock()
	parts, err := c.encodeParts()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return json.Marshal(parts)
}

// SetPartsJSON replaces all parts with the entries of a JSON object.
func (c *ContentItem) SetPartsJSON(data []byte) error {
	var parts map[string]json.RawMessage
	if len(data) > 0 {
		if err := json.Unmarshal(data, &parts); err != nil {
			return fmt.Errorf("decode parts: %w", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parts = make(map[string]any, len(parts))
	for name, raw := range parts {
		c.parts[name] = raw
	}
	return nil
}

// encodeParts encodes every part. c.mu must be held.
func (c *ContentItem) encodeParts() (map[string]json.RawMessage, error) {
	parts := make(map[string]json.RawMessage, len(c.parts))
	for name, v := range c.parts {
		raw, err := encodePart(name, v)
		if err != nil {
			return nil, err
		}
		parts[name] = raw
	}
	return parts, nil
}

func encodePart(name string, v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return cloneRaw(raw), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, &PartError{Part: name, Op: "encode", Err: err}
	}
	return data, nil
}

func validateRawPart(name string, raw json.RawMessage) error {
	if name == "" {
		return &PartError{Part: name, Op: "set", Err: ErrInvalidPartName}
	}
	if !json.Valid(raw) {
		return &PartError{Part: name, Op: "set", Err: fmt.Errorf("invalid JSON value")}
	}
	return nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	return append(json.RawMessage(nil), raw...)
}
