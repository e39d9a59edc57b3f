package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/content-parts/pkg/contentitem"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "content", cfg.DBSchema)
	assert.Equal(t, "memory", cfg.DefaultSnapshotBackend)
	require.Len(t, cfg.SnapshotBackends, 1)
	assert.True(t, cfg.EnableEventLogging)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
	}{
		{"empty port", []Option{WithPort("")}, "port is required"},
		{"unknown database", []Option{WithDatabase("mysql", "x")}, "database_type"},
		{"postgres without url", []Option{WithDatabase("postgres", "")}, "database_url"},
		{
			"default backend missing",
			[]Option{func(c *ServerConfig) error { c.DefaultSnapshotBackend = "nope"; return nil }},
			"default snapshot backend 'nope'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.opts...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithSnapshotBackend(t *testing.T) {
	cfg, err := Load(WithSnapshotBackend(StorageBackendConfig{Name: "fs", Type: "fs"}, true))
	require.NoError(t, err)
	assert.Equal(t, "fs", cfg.DefaultSnapshotBackend)
	require.Len(t, cfg.SnapshotBackends, 2)
	assert.NotNil(t, cfg.SnapshotBackends[1].Config)

	_, err = Load(WithSnapshotBackend(StorageBackendConfig{Type: "fs"}, false))
	assert.Error(t, err)
}

func TestBuildServiceMemory(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(WithSnapshotBackend(StorageBackendConfig{
		Name:   "fs",
		Type:   "fs",
		Config: map[string]interface{}{"base_dir": dir},
	}, true))
	require.NoError(t, err)

	ctx := context.Background()
	svc, err := cfg.BuildService(ctx, nil)
	require.NoError(t, err)

	_, err = svc.GetBackend("memory")
	assert.NoError(t, err)
	_, err = svc.GetBackend("fs")
	assert.NoError(t, err)

	item, err := svc.CreateItem(ctx, contentitem.CreateItemRequest{ContentType: "Article"})
	require.NoError(t, err)

	snap, err := svc.SnapshotItem(ctx, item.ID, "fs")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(snap.Key)))
	assert.NoError(t, err)
}

func TestBuildServiceRejectsUnknownBackend(t *testing.T) {
	cfg, err := Load(WithSnapshotBackend(StorageBackendConfig{Name: "odd", Type: "ftp"}, false))
	require.NoError(t, err)

	_, err = cfg.BuildService(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage backend type")
}

func TestBuildServiceS3RequiresBucket(t *testing.T) {
	cfg, err := Load(WithSnapshotBackend(StorageBackendConfig{Name: "s3", Type: "s3"}, false))
	require.NoError(t, err)

	_, err = cfg.BuildService(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket name is required")
}

func TestConfigValueHelpers(t *testing.T) {
	m := map[string]interface{}{
		"s":      "value",
		"b":      true,
		"bs":     "true",
		"i":      7,
		"is":     "8",
		"f":      float64(9),
		"broken": "x",
	}

	assert.Equal(t, "value", getString(m, "s", "d"))
	assert.Equal(t, "d", getString(m, "missing", "d"))
	assert.True(t, getBool(m, "b", false))
	assert.True(t, getBool(m, "bs", false))
	assert.False(t, getBool(m, "broken", false))
	assert.Equal(t, 7, getInt(m, "i", 0))
	assert.Equal(t, 8, getInt(m, "is", 0))
	assert.Equal(t, 9, getInt(m, "f", 0))
	assert.Equal(t, 3, getInt(m, "broken", 3))
}
