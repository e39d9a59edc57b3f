// Package presets builds ready-to-use services for common setups.
package presets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"

	"github.com/tendant/content-parts/pkg/contentitem"
	"github.com/tendant/content-parts/pkg/contentitem/config"
	memoryrepo "github.com/tendant/content-parts/pkg/contentitem/repo/memory"
	fsstorage "github.com/tendant/content-parts/pkg/contentitem/storage/fs"
	memorystorage "github.com/tendant/content-parts/pkg/contentitem/storage/memory"
)

// NewDevelopment creates a service for local development: items live in
// memory and snapshots are written below ./dev-data (backend "fs").
//
// The returned cleanup function removes the snapshot directory.
//
//	svc, cleanup, err := presets.NewDevelopment()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
func NewDevelopment(opts ...DevelopmentOption) (contentitem.Service, func(), error) {
	cfg := &devConfig{
		storageDir: "./dev-data",
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	fsBackend, err := fsstorage.New(fsstorage.Config{BaseDir: cfg.storageDir})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create filesystem storage: %w", err)
	}

	options := []contentitem.Option{
		contentitem.WithRepository(memoryrepo.New()),
		contentitem.WithBlobStore("fs", fsBackend),
		contentitem.WithLogger(cfg.logger),
		contentitem.WithEventSink(contentitem.NewLoggingEventSink(cfg.logger)),
		contentitem.WithHooks(contentitem.LoggingHook(cfg.logger)),
	}
	for _, h := range cfg.hooks {
		options = append(options, contentitem.WithHooks(h))
	}

	svc, err := contentitem.NewService(options...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}

	cleanup := func() {
		os.RemoveAll(cfg.storageDir)
	}
	return svc, cleanup, nil
}

// NewTesting creates an isolated in-memory service for tests, with a
// "memory" snapshot backend and no event logging.
func NewTesting(t testing.TB, opts ...TestingOption) contentitem.Service {
	t.Helper()

	cfg := &testConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	options := []contentitem.Option{
		contentitem.WithRepository(memoryrepo.New()),
		contentitem.WithBlobStore("memory", memorystorage.New()),
	}
	for _, h := range cfg.hooks {
		options = append(options, contentitem.WithHooks(h))
	}

	svc, err := contentitem.NewService(options...)
	if err != nil {
		t.Fatalf("failed to create test service: %v", err)
	}

	for _, req := range cfg.fixtures {
		if _, err := svc.CreateItem(context.Background(), req); err != nil {
			t.Fatalf("failed to create fixture %s: %v", req.ContentType, err)
		}
	}
	return svc
}

// NewProduction loads configuration from the CONTENT_* environment and
// builds a service from it. Options are applied after the environment.
// It refuses in-memory item or snapshot storage.
func NewProduction(ctx context.Context, logger *slog.Logger, opts ...config.Option) (contentitem.Service, error) {
	cfg, err := config.Load(append([]config.Option{config.WithEnv()}, opts...)...)
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseType != "postgres" {
		return nil, fmt.Errorf("production preset requires a postgres database, got %q", cfg.DatabaseType)
	}
	for _, backend := range cfg.SnapshotBackends {
		if backend.Name == cfg.DefaultSnapshotBackend && backend.Type == "memory" {
			return nil, fmt.Errorf("production preset requires persistent snapshot storage (s3 or fs, not memory)")
		}
	}

	cfg.Environment = "production"
	return cfg.BuildService(ctx, logger)
}

type devConfig struct {
	storageDir string
	logger     *slog.Logger
	hooks      []*contentitem.Hooks
}

type testConfig struct {
	hooks    []*contentitem.Hooks
	fixtures []contentitem.CreateItemRequest
}

// DevelopmentOption is a functional option for NewDevelopment
type DevelopmentOption func(*devConfig)

// WithDevStorage sets the development snapshot directory
func WithDevStorage(dir string) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.storageDir = dir
	}
}

// WithDevLogger sets the logger used for events and hook errors
func WithDevLogger(logger *slog.Logger) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.logger = logger
	}
}

// WithDevHooks adds lifecycle hooks
func WithDevHooks(hooks *contentitem.Hooks) DevelopmentOption {
	return func(cfg *devConfig) {
		cfg.hooks = append(cfg.hooks, hooks)
	}
}

// TestingOption is a functional option for NewTesting
type TestingOption func(*testConfig)

// WithTestHooks adds lifecycle hooks
func WithTestHooks(hooks *contentitem.Hooks) TestingOption {
	return func(cfg *testConfig) {
		cfg.hooks = append(cfg.hooks, hooks)
	}
}

// WithTestFixtures creates the given items when the service is built
func WithTestFixtures(reqs ...contentitem.CreateItemRequest) TestingOption {
	return func(cfg *testConfig) {
		cfg.fixtures = append(cfg.fixtures, reqs...)
	}
}
