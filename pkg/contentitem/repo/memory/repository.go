package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/content-parts/pkg/contentitem"
)

// entry keeps an item in encoded form so callers never share part values
// with the repository
type entry struct {
	id          uuid.UUID
	doc         []byte
	contentType string
	owner       string
	createdAt   time.Time
	deletedAt   *time.Time
}

// Repository implements contentitem.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entry
}

// New creates a new in-memory repository
func New() contentitem.Repository {
	return &Repository{
		items: make(map[uuid.UUID]*entry),
	}
}

func encode(item *contentitem.ContentItem) (*entry, error) {
	doc, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	return &entry{
		id:          item.ID,
		doc:         doc,
		contentType: item.ContentType,
		owner:       item.Owner,
		createdAt:   item.CreatedAt,
	}, nil
}

func decode(e *entry) (*contentitem.ContentItem, error) {
	item := &contentitem.ContentItem{}
	if err := json.Unmarshal(e.doc, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *contentitem.ContentItem) error {
	e, err := encode(item)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// A soft-deleted item may be created again under the same ID
	if current, exists := r.items[item.ID]; exists && current.deletedAt == nil {
		return contentitem.ErrItemExists
	}
	r.items[item.ID] = e
	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*contentitem.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.items[id]
	if !exists || e.deletedAt != nil {
		return nil, contentitem.ErrItemNotFound
	}
	return decode(e)
}

func (r *Repository) UpdateItem(ctx context.Context, item *contentitem.ContentItem) error {
	e, err := encode(item)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.items[item.ID]
	if !exists || current.deletedAt != nil {
		return contentitem.ErrItemNotFound
	}
	r.items[item.ID] = e
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.items[id]
	if !exists || e.deletedAt != nil {
		return contentitem.ErrItemNotFound
	}

	now := time.Now().UTC()
	e.deletedAt = &now
	return nil
}

func (r *Repository) ListItems(ctx context.Context, filter contentitem.ListItemsFilter) ([]*contentitem.ContentItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*entry
	for _, e := range r.items {
		if e.deletedAt != nil {
			continue
		}
		if filter.ContentType != "" && e.contentType != filter.ContentType {
			continue
		}
		if filter.Owner != "" && e.owner != filter.Owner {
			continue
		}
		matched = append(matched, e)
	}

	// Sort by created_at descending, then by ID so ties page consistently
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return bytes.Compare(a.id[:], b.id[:]) < 0
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*contentitem.ContentItem{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	result := make([]*contentitem.ContentItem, 0, len(matched))
	for _, e := range matched {
		item, err := decode(e)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, nil
}
