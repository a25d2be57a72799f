package media

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/go-monolith/mono/pkg/types"
)

// MediaModule owns the image buckets of the fs-jetstream plugin.
type MediaModule struct {
	storage *fsjetstream.PluginModule
	service *MediaService
	baseURL string
	logger  types.Logger
}

// Compile-time interface checks
var (
	_ mono.Module                = (*MediaModule)(nil)
	_ mono.UsePluginModule       = (*MediaModule)(nil)
	_ mono.HealthCheckableModule = (*MediaModule)(nil)
)

// NewModule creates a new media module. baseURL is the public origin used
// in object URLs.
func NewModule(baseURL string, logger types.Logger) *MediaModule {
	return &MediaModule{
		baseURL: baseURL,
		logger:  logger,
	}
}

// Name returns the module name.
func (m *MediaModule) Name() string {
	return "media"
}

// SetPlugin receives the storage plugin from the framework.
func (m *MediaModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "storage" {
		storage, ok := plugin.(*fsjetstream.PluginModule)
		if !ok {
			m.logger.Error("Invalid plugin type for storage",
				"alias", alias,
				"expected", "*fsjetstream.PluginModule")
			return
		}
		m.storage = storage
		m.logger.Info("Received storage plugin", "alias", alias)
	}
}

// Start resolves the image buckets and creates the service.
func (m *MediaModule) Start(_ context.Context) error {
	if m.storage == nil {
		return fmt.Errorf("required plugin 'storage' not registered")
	}

	buckets := make(map[string]fsjetstream.FileStoragePort, len(MaxSizes))
	for name := range MaxSizes {
		bucket := m.storage.Bucket(name)
		if bucket == nil {
			return fmt.Errorf("bucket '%s' not found in storage plugin", name)
		}
		buckets[name] = bucket
	}

	service, err := NewMediaService(buckets, m.baseURL)
	if err != nil {
		return err
	}
	m.service = service

	m.logger.Info("Media module started", "buckets", len(buckets), "base_url", m.baseURL)
	return nil
}

// Stop shuts down the module.
func (m *MediaModule) Stop(_ context.Context) error {
	m.logger.Info("Media module stopped")
	return nil
}

// Health reports whether the buckets are available.
func (m *MediaModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "not started",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"buckets": []string{ProductImages, ProfileImages},
		},
	}
}

// Service returns the media service instance.
func (m *MediaModule) Service() *MediaService {
	return m.service
}

// BucketConfigs returns the fs-jetstream bucket definitions the module
// needs. Memory storage is used by tests.
func BucketConfigs(inMemory bool) []fsjetstream.BucketConfig {
	configs := []fsjetstream.BucketConfig{
		{
			Name:        ProductImages,
			Description: "Product images",
			MaxBytes:    1024 * 1024 * 1024,
			Storage:     fsjetstream.FileStorage,
			Compression: true,
		},
		{
			Name:        ProfileImages,
			Description: "Profile images",
			MaxBytes:    256 * 1024 * 1024,
			Storage:     fsjetstream.FileStorage,
			Compression: true,
		},
	}
	if inMemory {
		for i := range configs {
			configs[i].Storage = fsjetstream.MemoryStorage
			configs[i].Compression = false
		}
	}
	return configs
}
