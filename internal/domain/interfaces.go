package domain

import (
	"context"
	"net/http"
)

// Source defines the capability of a remote image provider.
// Implementations translate a query into download candidates.
//
//go:generate mockgen -destination=mocks/source_mock.go -package=mocks github.com/genricoloni/visuals/internal/domain Source
type Source interface {
	// Descriptor returns the static description of the provider
	Descriptor() SourceDescriptor

	// Search returns one page of candidates for the request
	// Every call is exactly one network request against the provider API
	Search(ctx context.Context, req SearchRequest) (SearchResult, error)
}

// Fetcher defines the interface for retrieving image bytes
//
//go:generate mockgen -destination=mocks/fetcher_mock.go -package=mocks github.com/genricoloni/visuals/internal/domain Fetcher
type Fetcher interface {
	// Fetch downloads image data from a URL
	// Returns the raw image bytes or an error
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ImageProcessor validates downloaded bytes and normalizes their encoding
// This is OS-agnostic and works purely with byte streams
type ImageProcessor interface {
	// Process returns the bytes to store and their file extension
	Process(ctx context.Context, imageData []byte) (ProcessedImage, error)
}

// APIClient performs JSON requests against provider APIs
type APIClient interface {
	// GetJSON decodes the response body into v and returns the response headers
	GetJSON(ctx context.Context, url string, header http.Header, v any) (http.Header, error)
}

// Executor defines the interface for the OS background capability
//
//go:generate mockgen -destination=mocks/executor_mock.go -package=mocks github.com/genricoloni/visuals/internal/domain Executor
type Executor interface {
	// SetWallpaper sets the desktop wallpaper to the specified image path
	SetWallpaper(ctx context.Context, imagePath string) error

	// GetCurrentWallpaper retrieves the path to the currently set wallpaper
	// Returns an error if the operation is not supported or fails
	GetCurrentWallpaper(ctx context.Context) (string, error)
}

// CommandRunner executes external programs
//
//go:generate mockgen -destination=mocks/command_runner_mock.go -package=mocks github.com/genricoloni/visuals/internal/domain CommandRunner
type CommandRunner interface {
	// Run executes name with args and returns the combined output
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
