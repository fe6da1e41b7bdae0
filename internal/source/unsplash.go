package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/genricoloni/visuals/internal/domain"
)

const unsplashBaseURL = "https://api.unsplash.com"

// Unsplash searches unsplash.com with a client id
type Unsplash struct {
	api     domain.APIClient
	BaseURL string
}

// NewUnsplash creates an Unsplash client
func NewUnsplash(api domain.APIClient) *Unsplash {
	return &Unsplash{api: api, BaseURL: unsplashBaseURL}
}

func (u *Unsplash) Descriptor() domain.SourceDescriptor {
	return descriptors[domain.SourceUnsplash]
}

type unsplashResponse struct {
	Results []struct {
		ID   string `json:"id"`
		URLs struct {
			Raw string `json:"raw"`
		} `json:"urls"`
	} `json:"results"`
}

func (u *Unsplash) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	if req.Credential == "" {
		return domain.SearchResult{}, fmt.Errorf("unsplash: %w", domain.ErrCredentialMissing)
	}

	q := url.Values{
		"client_id":      {req.Credential},
		"query":          {req.Query},
		"per_page":       {strconv.Itoa(min(max(req.Count, 1), u.Descriptor().MaxPerRequest))},
		"page":           {strconv.Itoa(max(req.Page, 1))},
		"order_by":       {"relevant"},
		"orientation":    {"landscape"},
		"content_filter": {"high"},
	}

	var resp unsplashResponse
	header, err := u.api.GetJSON(ctx, u.BaseURL+"/search/photos?"+q.Encode(), nil, &resp)
	if err != nil {
		return domain.SearchResult{}, classify(domain.SourceUnsplash, err)
	}

	width := max(req.Screen.Width, domain.MinimumSize.Width)
	result := domain.SearchResult{Remaining: remainingFrom(header)}
	for _, photo := range resp.Results {
		download, err := sizedURL(photo.URLs.Raw, width)
		if err != nil {
			continue
		}
		result.Candidates = append(result.Candidates, domain.Candidate{
			NativeID: photo.ID,
			URL:      download,
			Theme:    req.Query,
			Ext:      "jpg",
		})
	}

	if len(result.Candidates) == 0 {
		return result, fmt.Errorf("unsplash %q: %w", req.Query, domain.ErrNoResults)
	}
	return result, nil
}

// sizedURL asks the Unsplash image CDN for a JPEG at the screen width
func sizedURL(raw string, width int) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid image url %q", raw)
	}
	q := u.Query()
	q.Set("w", strconv.Itoa(width))
	q.Set("q", "90")
	q.Set("fm", "jpg")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
