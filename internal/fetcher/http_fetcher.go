package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
)

const (
	_maxImageSize    = 32 * 1024 * 1024 // 32 MB
	_maxResponseSize = 4 * 1024 * 1024  // 4 MB
	_requestTimeout  = 30 * time.Second
	_userAgent       = "visuals/1.0"
)

// HTTPFetcher handles downloading image data and provider API responses
type HTTPFetcher struct {
	logger *zap.Logger
	client *http.Client
}

var (
	_ domain.Fetcher   = (*HTTPFetcher)(nil)
	_ domain.APIClient = (*HTTPFetcher)(nil)
)

// NewHTTPFetcher creates a new HTTP-based fetcher instance
func NewHTTPFetcher(logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		logger: logger,
		client: &http.Client{
			Timeout: _requestTimeout,
		},
	}
}

// Fetch downloads image data from the given URL
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.do(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
		return nil, fmt.Errorf("%w: url is not an image: %s", domain.ErrNetwork, resp.Header.Get("Content-Type"))
	}

	data, err := readLimited(resp.Body, _maxImageSize)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Image fetched successfully", zap.Int("bytes", len(data)), zap.String("url", url))
	return data, nil
}

// GetJSON performs a GET request and decodes the JSON body into v
func (f *HTTPFetcher) GetJSON(ctx context.Context, url string, header http.Header, v any) (http.Header, error) {
	resp, err := f.do(ctx, url, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readLimited(resp.Body, _maxResponseSize)
	if err != nil {
		return resp.Header, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return resp.Header, fmt.Errorf("%w: decode response: %w", domain.ErrNetwork, err)
	}
	return resp.Header, nil
}

func (f *HTTPFetcher) do(ctx context.Context, url string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", _userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &domain.StatusError{StatusCode: resp.StatusCode, URL: url}
	}
	return resp, nil
}

// readLimited reads at most limit bytes and fails on larger bodies
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %w", domain.ErrNetwork, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrNetwork, limit)
	}
	return data, nil
}
