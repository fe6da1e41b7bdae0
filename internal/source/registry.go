// Package source holds the static descriptions of the image providers and
// their API clients.
package source

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

// descriptors is the compiled-in source table
var descriptors = map[domain.SourceID]domain.SourceDescriptor{
	domain.SourceSpotlight: {
		ID:            domain.SourceSpotlight,
		DisplayName:   "Windows Spotlight",
		Resolution:    domain.Resolution4K,
		MaxPerRequest: 4,
	},
	domain.SourceWallhaven: {
		ID:               domain.SourceWallhaven,
		DisplayName:      "Wallhaven",
		Window:           time.Minute,
		Limit:            45,
		Capacity:         40,
		SilentVocabulary: wallhavenVocabulary,
		DefaultQuery:     "nature landscape wallpaper",
		Resolution:       domain.ResolutionFHD,
		MaxPerRequest:    24,
	},
	domain.SourceUnsplash: {
		ID:                 domain.SourceUnsplash,
		DisplayName:        "Unsplash",
		RequiresCredential: true,
		Window:             time.Hour,
		Limit:              50,
		Capacity:           45,
		SilentVocabulary:   unsplashVocabulary,
		DefaultQuery:       "nature",
		Resolution:         domain.ResolutionFHD,
		MaxPerRequest:      30,
	},
	domain.SourcePexels: {
		ID:                 domain.SourcePexels,
		DisplayName:        "Pexels",
		RequiresCredential: true,
		Window:             time.Hour,
		Limit:              200,
		Capacity:           190,
		SilentVocabulary:   pexelsVocabulary,
		DefaultQuery:       "nature landscape",
		Resolution:         domain.ResolutionFHD,
		MaxPerRequest:      80,
	},
}

// Describe returns the descriptor of id
func Describe(id domain.SourceID) (domain.SourceDescriptor, error) {
	d, ok := descriptors[id]
	if !ok {
		return domain.SourceDescriptor{}, fmt.Errorf("%w: %q", domain.ErrUnknownSource, id)
	}
	return d, nil
}

// Registry dispatches source ids to their clients
type Registry struct {
	logger  *zap.Logger
	sources map[domain.SourceID]domain.Source
}

// NewRegistry builds the clients for every registered provider
func NewRegistry(logger *zap.Logger, api domain.APIClient) *Registry {
	return NewRegistryWith(logger,
		NewSpotlight(api),
		NewWallhaven(api),
		NewUnsplash(api),
		NewPexels(api),
	)
}

// NewRegistryWith builds a registry from explicit clients
func NewRegistryWith(logger *zap.Logger, sources ...domain.Source) *Registry {
	r := &Registry{logger: logger, sources: make(map[domain.SourceID]domain.Source, len(sources))}
	for _, s := range sources {
		r.sources[s.Descriptor().ID] = s
	}
	return r
}

// Get returns the client for id
func (r *Registry) Get(id domain.SourceID) (domain.Source, error) {
	s, ok := r.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownSource, id)
	}
	return s, nil
}

// Descriptors returns the descriptors in menu order
func (r *Registry) Descriptors() []domain.SourceDescriptor {
	out := make([]domain.SourceDescriptor, 0, len(r.sources))
	for _, id := range domain.AllSources() {
		if s, ok := r.sources[id]; ok {
			out = append(out, s.Descriptor())
		}
	}
	return out
}

// classify maps provider HTTP statuses onto the engine's error kinds
func classify(id domain.SourceID, err error) error {
	var statusErr *domain.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	switch statusErr.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", id, domain.ErrCredentialInvalid)
	case http.StatusForbidden, http.StatusTooManyRequests:
		return &domain.RateLimitError{Source: id}
	default:
		return fmt.Errorf("%s: %w", id, err)
	}
}

// remainingFrom reads the provider's remaining-quota header, -1 if absent
func remainingFrom(h http.Header) int {
	v := h.Get("X-Ratelimit-Remaining")
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return -1
	}
	return n
}
