package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-parts/pkg/contentitem"
)

type TitlePart struct {
	Title string
}

func newItem(t *testing.T, contentType, owner string, createdAt time.Time) *contentitem.ContentItem {
	t.Helper()
	item := contentitem.New(contentType)
	item.Owner = owner
	item.CreatedAt = createdAt
	item.ModifiedAt = createdAt
	require.NoError(t, item.SetRawPart("TitlePart", json.RawMessage(`{"Title":"hello"}`)))
	return item
}

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := New()
	item := newItem(t, "Article", "alice", time.Now().UTC())

	require.NoError(t, repo.CreateItem(ctx, item))
	assert.ErrorIs(t, repo.CreateItem(ctx, item), contentitem.ErrItemExists)

	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, item.VersionID, got.VersionID)
	assert.Equal(t, "alice", got.Owner)
	require.NotNil(t, contentitem.As[TitlePart](got))
	assert.Equal(t, "hello", contentitem.As[TitlePart](got).Title)

	_, err = repo.GetItem(ctx, uuid.New())
	assert.ErrorIs(t, err, contentitem.ErrItemNotFound)
}

func TestRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()
	item := newItem(t, "Article", "", time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))

	// Mutating the caller's item or a fetched copy must not leak into storage
	contentitem.As[TitlePart](item).Title = "changed"
	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	contentitem.As[TitlePart](got).Title = "also changed"

	again, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", contentitem.As[TitlePart](again).Title)
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := New()
	item := newItem(t, "Article", "", time.Now().UTC())

	assert.ErrorIs(t, repo.UpdateItem(ctx, item), contentitem.ErrItemNotFound)
	require.NoError(t, repo.CreateItem(ctx, item))

	contentitem.Apply(item, &TitlePart{Title: "updated"})
	item.DisplayText = "Updated"
	require.NoError(t, repo.UpdateItem(ctx, item))

	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated", got.DisplayText)
	assert.Equal(t, "updated", contentitem.As[TitlePart](got).Title)
}

func TestRepository_SoftDelete(t *testing.T) {
	ctx := context.Background()
	repo := New()
	item := newItem(t, "Article", "", time.Now().UTC())
	require.NoError(t, repo.CreateItem(ctx, item))

	require.NoError(t, repo.DeleteItem(ctx, item.ID))
	assert.ErrorIs(t, repo.DeleteItem(ctx, item.ID), contentitem.ErrItemNotFound)

	_, err := repo.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, contentitem.ErrItemNotFound)
	assert.ErrorIs(t, repo.UpdateItem(ctx, item), contentitem.ErrItemNotFound)

	items, err := repo.ListItems(ctx, contentitem.ListItemsFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)

	// Creating under the same ID revives the item
	require.NoError(t, repo.CreateItem(ctx, item))
	got, err := repo.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.VersionID, got.VersionID)
}

func TestRepository_ListItems(t *testing.T) {
	ctx := context.Background()
	repo := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	oldest := newItem(t, "Article", "alice", base)
	middle := newItem(t, "Product", "bob", base.Add(time.Hour))
	newest := newItem(t, "Article", "bob", base.Add(2*time.Hour))
	for _, item := range []*contentitem.ContentItem{oldest, middle, newest} {
		require.NoError(t, repo.CreateItem(ctx, item))
	}

	ids := func(items []*contentitem.ContentItem) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		filter   contentitem.ListItemsFilter
		expected []uuid.UUID
	}{
		{"all newest first", contentitem.ListItemsFilter{}, []uuid.UUID{newest.ID, middle.ID, oldest.ID}},
		{"by content type", contentitem.ListItemsFilter{ContentType: "Article"}, []uuid.UUID{newest.ID, oldest.ID}},
		{"by owner", contentitem.ListItemsFilter{Owner: "bob"}, []uuid.UUID{newest.ID, middle.ID}},
		{"type and owner", contentitem.ListItemsFilter{ContentType: "Article", Owner: "alice"}, []uuid.UUID{oldest.ID}},
		{"limit", contentitem.ListItemsFilter{Limit: 2}, []uuid.UUID{newest.ID, middle.ID}},
		{"offset", contentitem.ListItemsFilter{Offset: 1, Limit: 1}, []uuid.UUID{middle.ID}},
		{"offset past end", contentitem.ListItemsFilter{Offset: 5}, []uuid.UUID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := repo.ListItems(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(items))
		})
	}
}

func TestRepository_ListItemsOrdersTiesByID(t *testing.T) {
	ctx := context.Background()
	repo := New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var want []uuid.UUID
	for i := 0; i < 6; i++ {
		item := newItem(t, "Article", "alice", created)
		require.NoError(t, repo.CreateItem(ctx, item))
		want = append(want, item.ID)
	}
	later := newItem(t, "Article", "alice", created.Add(time.Minute))
	require.NoError(t, repo.CreateItem(ctx, later))

	slices.SortFunc(want, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	want = append([]uuid.UUID{later.ID}, want...)

	for run := 0; run < 5; run++ {
		all, err := repo.ListItems(ctx, contentitem.ListItemsFilter{})
		require.NoError(t, err)
		got := make([]uuid.UUID, 0, len(all))
		for _, item := range all {
			got = append(got, item.ID)
		}
		assert.Equal(t, want, got)

		var paged []uuid.UUID
		for offset := 0; offset < len(want); offset += 2 {
			page, err := repo.ListItems(ctx, contentitem.ListItemsFilter{Limit: 2, Offset: offset})
			require.NoError(t, err)
			for _, item := range page {
				paged = append(paged, item.ID)
			}
		}
		assert.Equal(t, want, paged)
	}
}
