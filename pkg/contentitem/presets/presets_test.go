package presets

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-parts/pkg/contentitem"
	"github.com/tendant/content-parts/pkg/contentitem/config"
)

type Color struct {
	Value string
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDevelopment(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dev-data")
	svc, cleanup, err := NewDevelopment(WithDevStorage(dir), WithDevLogger(quietLogger()))
	require.NoError(t, err)
	require.NotNil(t, cleanup)

	ctx := context.Background()
	item, err := svc.CreateItem(ctx, contentitem.CreateItemRequest{ContentType: "Product"})
	require.NoError(t, err)

	_, err = contentitem.AlterStored(ctx, svc, item.ID, func(_ context.Context, c *Color) error {
		c.Value = "red"
		return nil
	})
	require.NoError(t, err)

	snap, err := svc.SnapshotItem(ctx, item.ID, "fs")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(snap.Key)))
	require.NoError(t, err)

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestNewDevelopmentHooks(t *testing.T) {
	hooks := &contentitem.Hooks{
		BeforeItemSave: []contentitem.BeforeItemSaveHook{
			contentitem.RequirePartsHook("Product", "Color"),
		},
	}
	svc, cleanup, err := NewDevelopment(
		WithDevStorage(t.TempDir()),
		WithDevLogger(quietLogger()),
		WithDevHooks(hooks),
	)
	require.NoError(t, err)
	defer cleanup()

	_, err = svc.CreateItem(context.Background(), contentitem.CreateItemRequest{ContentType: "Product"})
	assert.ErrorIs(t, err, contentitem.ErrRequiredPartMissing)
}

func TestNewTesting(t *testing.T) {
	svc := NewTesting(t)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, contentitem.CreateItemRequest{ContentType: "Article"})
	require.NoError(t, err)

	snap, err := svc.SnapshotItem(ctx, item.ID, "memory")
	require.NoError(t, err)

	restored, err := svc.RestoreSnapshot(ctx, "memory", snap.Key)
	require.NoError(t, err)
	assert.Equal(t, item.ID, restored.ID)
}

func TestNewTestingIsolated(t *testing.T) {
	ctx := context.Background()
	first := NewTesting(t)
	second := NewTesting(t)

	item, err := first.CreateItem(ctx, contentitem.CreateItemRequest{ContentType: "Article"})
	require.NoError(t, err)

	_, err = second.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, contentitem.ErrItemNotFound)
}

func TestNewTestingFixtures(t *testing.T) {
	svc := NewTesting(t, WithTestFixtures(
		contentitem.CreateItemRequest{
			ContentType: "Product",
			Parts:       map[string]json.RawMessage{"Color": json.RawMessage(`{"Value":"red"}`)},
		},
		contentitem.CreateItemRequest{ContentType: "Article"},
	))

	items, err := svc.ListItems(context.Background(), contentitem.ListItemsRequest{ContentType: "Product"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "red", contentitem.As[Color](items[0]).Value)
}

func TestNewProductionRejectsMemoryStorage(t *testing.T) {
	t.Setenv("CONTENT_DATABASE_URL", "")
	t.Setenv("CONTENT_STORAGE_URL", "")

	_, err := NewProduction(context.Background(), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")

	_, err = NewProduction(context.Background(), quietLogger(),
		config.WithDatabase("postgres", "postgres://localhost/content"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persistent snapshot storage")
}
