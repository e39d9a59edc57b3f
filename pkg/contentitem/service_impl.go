package contentitem

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/content-parts/pkg/contentitem/snapshotkey"
)

// service implements the Service interface
type service struct {
	repository   Repository
	storesMu     sync.RWMutex
	blobStores   map[string]BlobStore
	eventSink    EventSink
	hooks        *Hooks
	keyGenerator snapshotkey.Generator
	logger       *slog.Logger
	now          func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a snapshot storage backend
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithHooks adds lifecycle hooks; repeated options accumulate
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks.Merge(hooks)
	}
}

// WithKeyGenerator sets the snapshot key generator
func WithKeyGenerator(g snapshotkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = g
	}
}

// WithLogger sets the logger used for non-fatal failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// NewService creates a new service instance with the given options
func NewService(options ...Option) (Service, error) {
	s := &service{
		blobStores:   make(map[string]BlobStore),
		eventSink:    NewNoopEventSink(),
		hooks:        &Hooks{},
		keyGenerator: snapshotkey.NewRecommendedGenerator(),
		logger:       slog.Default(),
		now:          time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}

	return s, nil
}

// Item operations

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*ContentItem, error) {
	if req.ContentType == "" {
		return nil, fmt.Errorf("content type is required")
	}
	if err := s.hooks.executeBeforeItemCreate(ctx, &req); err != nil {
		s.hooks.executeOnError(ctx, "create", err)
		return nil, err
	}

	now := s.now().UTC()
	item := New(req.ContentType)
	item.DisplayText = req.DisplayText
	item.Owner = req.Owner
	item.Author = req.Author
	item.CreatedAt = now
	item.ModifiedAt = now

	for name, raw := range req.Parts {
		if err := item.SetRawPart(name, raw); err != nil {
			return nil, err
		}
	}

	if err := s.hooks.executeBeforeItemSave(ctx, item); err != nil {
		s.hooks.executeOnError(ctx, "create", err)
		return nil, &ItemError{ItemID: item.ID, Op: "create", Err: err}
	}

	if err := s.repository.CreateItem(ctx, item); err != nil {
		s.hooks.executeOnError(ctx, "create", err)
		return nil, &ItemError{ItemID: item.ID, Op: "create", Err: err}
	}

	if err := s.hooks.executeAfterItemSave(ctx, item); err != nil {
		return nil, err
	}
	if err := s.eventSink.ItemCreated(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "item_created", "item_id", item.ID, "error", err)
	}

	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*ContentItem, error) {
	return s.repository.GetItem(ctx, id)
}

func (s *service) SaveItem(ctx context.Context, item *ContentItem) error {
	if item == nil {
		return ErrNilContentItem
	}
	item.ModifiedAt = s.now().UTC()
	item.VersionID = uuid.New()

	if err := s.hooks.executeBeforeItemSave(ctx, item); err != nil {
		s.hooks.executeOnError(ctx, "save", err)
		return &ItemError{ItemID: item.ID, Op: "save", Err: err}
	}

	if err := s.repository.UpdateItem(ctx, item); err != nil {
		s.hooks.executeOnError(ctx, "save", err)
		return &ItemError{ItemID: item.ID, Op: "save", Err: err}
	}

	if err := s.hooks.executeAfterItemSave(ctx, item); err != nil {
		return err
	}
	if err := s.eventSink.ItemUpdated(ctx, item); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "item_updated", "item_id", item.ID, "error", err)
	}
	return nil
}

func (s *service) UpdateItem(ctx context.Context, req UpdateItemRequest) (*ContentItem, error) {
	item, err := s.repository.GetItem(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.DisplayText != nil {
		item.DisplayText = *req.DisplayText
	}
	if req.Owner != nil {
		item.Owner = *req.Owner
	}
	if req.Author != nil {
		item.Author = *req.Author
	}
	if req.Published != nil && *req.Published != item.Published {
		item.Published = *req.Published
		if item.Published {
			publishedAt := s.now().UTC()
			item.PublishedAt = &publishedAt
		} else {
			item.PublishedAt = nil
		}
	}

	if err := s.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := s.repository.DeleteItem(ctx, id); err != nil {
		s.hooks.executeOnError(ctx, "delete", err)
		return &ItemError{ItemID: id, Op: "delete", Err: err}
	}

	if err := s.hooks.executeAfterItemDelete(ctx, id); err != nil {
		return err
	}
	if err := s.eventSink.ItemDeleted(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "item_deleted", "item_id", id, "error", err)
	}
	return nil
}

func (s *service) ListItems(ctx context.Context, req ListItemsRequest) ([]*ContentItem, error) {
	return s.repository.ListItems(ctx, ListItemsFilter{
		ContentType: req.ContentType,
		Owner:       req.Owner,
		Limit:       req.Limit,
		Offset:      req.Offset,
	})
}

// Part operations

func (s *service) GetPart(ctx context.Context, itemID uuid.UUID, name string) (json.RawMessage, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return item.RawPart(name)
}

func (s *service) WeldPart(ctx context.Context, itemID uuid.UUID, name string, raw json.RawMessage) (*ContentItem, bool, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, false, err
	}

	welded, err := item.WeldRawPart(name, raw)
	if err != nil {
		return nil, false, err
	}
	if !welded {
		return item, false, nil
	}

	if err := s.CommitPart(ctx, item, name, PartWelded); err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *service) ApplyPart(ctx context.Context, itemID uuid.UUID, name string, raw json.RawMessage) (*ContentItem, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.SetRawPart(name, raw); err != nil {
		return nil, err
	}
	if err := s.CommitPart(ctx, item, name, PartApplied); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) AlterPart(ctx context.Context, itemID uuid.UUID, name string, patch json.RawMessage) (*ContentItem, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.MergeRawPart(name, patch); err != nil {
		return nil, err
	}
	if err := s.CommitPart(ctx, item, name, PartAltered); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) RemovePart(ctx context.Context, itemID uuid.UUID, name string) (*ContentItem, error) {
	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.RemovePart(name) {
		return nil, &PartError{Part: name, Op: "remove", Err: ErrPartNotFound}
	}
	if err := s.CommitPart(ctx, item, name, PartRemoved); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *service) CommitPart(ctx context.Context, item *ContentItem, part string, change PartChange) error {
	if err := s.SaveItem(ctx, item); err != nil {
		return err
	}
	if err := s.hooks.executeOnPartChange(ctx, item.ID, part, change); err != nil {
		return err
	}
	if err := s.eventSink.PartChanged(ctx, item.ID, part, change); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "part_changed", "item_id", item.ID, "part", part, "error", err)
	}
	return nil
}

// Snapshot operations

func (s *service) SnapshotItem(ctx context.Context, itemID uuid.UUID, backendName string) (*Snapshot, error) {
	backend, err := s.GetBackend(backendName)
	if err != nil {
		return nil, err
	}

	item, err := s.repository.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return nil, &ItemError{ItemID: itemID, Op: "snapshot", Err: err}
	}

	takenAt := s.now().UTC()
	key := s.keyGenerator.GenerateKey(item.ID, item.VersionID, &snapshotkey.KeyMetadata{
		ContentType: item.ContentType,
		Owner:       item.Owner,
		TakenAt:     takenAt,
	})

	err = backend.UploadWithParams(ctx, bytes.NewReader(data), UploadParams{
		ObjectKey: key,
		MimeType:  "application/json",
	})
	if err != nil {
		s.hooks.executeOnError(ctx, "snapshot", err)
		return nil, &StorageError{Backend: backendName, Key: key, Op: "snapshot", Err: err}
	}

	return &Snapshot{
		ItemID:    item.ID,
		VersionID: item.VersionID,
		Backend:   backendName,
		Key:       key,
		Size:      int64(len(data)),
		CreatedAt: takenAt,
	}, nil
}

func (s *service) RestoreSnapshot(ctx context.Context, backendName, key string) (*ContentItem, error) {
	backend, err := s.GetBackend(backendName)
	if err != nil {
		return nil, err
	}

	reader, err := backend.Download(ctx, key)
	if err != nil {
		return nil, &StorageError{Backend: backendName, Key: key, Op: "restore", Err: err}
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, &StorageError{Backend: backendName, Key: key, Op: "restore", Err: err}
	}

	item := &ContentItem{}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, &StorageError{Backend: backendName, Key: key, Op: "restore", Err: err}
	}

	if err := s.hooks.executeBeforeItemSave(ctx, item); err != nil {
		s.hooks.executeOnError(ctx, "restore", err)
		return nil, &ItemError{ItemID: item.ID, Op: "restore", Err: err}
	}

	_, err = s.repository.GetItem(ctx, item.ID)
	switch {
	case errors.Is(err, ErrItemNotFound):
		if err := s.repository.CreateItem(ctx, item); err != nil {
			s.hooks.executeOnError(ctx, "restore", err)
			return nil, &ItemError{ItemID: item.ID, Op: "restore", Err: err}
		}
		if err := s.hooks.executeAfterItemSave(ctx, item); err != nil {
			return nil, err
		}
		if err := s.eventSink.ItemCreated(ctx, item); err != nil {
			s.logger.WarnContext(ctx, "Event sink failed", "event", "item_created", "item_id", item.ID, "error", err)
		}
	case err != nil:
		return nil, err
	default:
		if err := s.repository.UpdateItem(ctx, item); err != nil {
			s.hooks.executeOnError(ctx, "restore", err)
			return nil, &ItemError{ItemID: item.ID, Op: "restore", Err: err}
		}
		if err := s.hooks.executeAfterItemSave(ctx, item); err != nil {
			return nil, err
		}
		if err := s.eventSink.ItemUpdated(ctx, item); err != nil {
			s.logger.WarnContext(ctx, "Event sink failed", "event", "item_updated", "item_id", item.ID, "error", err)
		}
	}

	return item, nil
}

func (s *service) SnapshotURL(ctx context.Context, backendName, key string) (string, error) {
	backend, err := s.GetBackend(backendName)
	if err != nil {
		return "", err
	}
	return backend.GetDownloadURL(ctx, key, "")
}

// Storage backend operations

func (s *service) RegisterBackend(name string, backend BlobStore) {
	s.storesMu.Lock()
	defer s.storesMu.Unlock()
	s.blobStores[name] = backend
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	s.storesMu.RLock()
	backend, exists := s.blobStores[name]
	s.storesMu.RUnlock()
	if !exists {
		return nil, ErrStorageBackendNotFound
	}
	return backend, nil
}
