// Package services provides external service integrations and technical concerns like platform clients and tokens
package services

import (
	"context"
	"errors"

	"github.com/clipforge/clipforge/models"
)

// Platform adapter error constants
var (
	// ErrVideoUnavailable means the platform answered but the video is gone,
	// private, or otherwise not resolvable. Distinct from transport errors.
	ErrVideoUnavailable = errors.New("video unavailable")
)

// IsVideoUnavailable reports whether err is the unavailable sentinel
func IsVideoUnavailable(err error) bool {
	return errors.Is(err, ErrVideoUnavailable)
}

// PlatformAdapter fetches the current public view count for a video URL on
// one platform. Implementations must be safe for concurrent use.
type PlatformAdapter interface {
	Platform() models.Platform
	FetchViews(ctx context.Context, videoURL string) (int64, error)
}

// AdapterRegistry holds the configured platform adapters. The set is fixed at
// startup; there is no registration after construction, so lookups need no
// locking.
type AdapterRegistry struct {
	adapters map[models.Platform]PlatformAdapter
}

// NewAdapterRegistry creates a registry from the given adapters
func NewAdapterRegistry(adapters ...PlatformAdapter) *AdapterRegistry {
	m := make(map[models.Platform]PlatformAdapter, len(adapters))
	for _, a := range adapters {
		m[a.Platform()] = a
	}
	return &AdapterRegistry{adapters: m}
}

// Get returns the adapter for a platform, nil when none is configured
func (r *AdapterRegistry) Get(platform models.Platform) PlatformAdapter {
	return r.adapters[platform]
}

// Has reports whether an adapter is configured for the platform
func (r *AdapterRegistry) Has(platform models.Platform) bool {
	_, ok := r.adapters[platform]
	return ok
}

// Platforms returns the platforms with a configured adapter
func (r *AdapterRegistry) Platforms() []models.Platform {
	out := make([]models.Platform, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	return out
}
