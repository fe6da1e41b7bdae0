package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strconv"

	"github.com/genricoloni/visuals/internal/domain"
)

const spotlightBaseURL = "https://fd.api.iris.microsoft.com"

// Spotlight serves the curated Windows Spotlight feed. It needs no key and
// is the fallback for silent runs.
type Spotlight struct {
	api     domain.APIClient
	BaseURL string
}

// NewSpotlight creates a Spotlight client
func NewSpotlight(api domain.APIClient) *Spotlight {
	return &Spotlight{api: api, BaseURL: spotlightBaseURL}
}

func (s *Spotlight) Descriptor() domain.SourceDescriptor {
	return descriptors[domain.SourceSpotlight]
}

type spotlightResponse struct {
	BatchResponse struct {
		Items []struct {
			// Item is itself a JSON document encoded as a string
			Item string `json:"item"`
		} `json:"items"`
	} `json:"batchrsp"`
}

type spotlightItem struct {
	Ad struct {
		LandscapeImage *struct {
			Asset string `json:"asset"`
		} `json:"landscapeImage"`
		Title    string `json:"title"`
		EntityID string `json:"entityId"`
	} `json:"ad"`
}

// Search ignores the query: the feed is curated
func (s *Spotlight) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	count := min(max(req.Count, 1), s.Descriptor().MaxPerRequest)
	q := url.Values{
		"placement": {"88000820"},
		"bcnt":      {strconv.Itoa(count)},
		"country":   {"US"},
		"locale":    {"en-US"},
		"fmt":       {"json"},
	}

	var resp spotlightResponse
	if _, err := s.api.GetJSON(ctx, s.BaseURL+"/v4/api/selection?"+q.Encode(), nil, &resp); err != nil {
		return domain.SearchResult{}, classify(domain.SourceSpotlight, err)
	}

	result := domain.SearchResult{Remaining: -1}
	for _, raw := range resp.BatchResponse.Items {
		var item spotlightItem
		if err := json.Unmarshal([]byte(raw.Item), &item); err != nil {
			continue
		}
		if item.Ad.LandscapeImage == nil || item.Ad.LandscapeImage.Asset == "" {
			continue
		}
		asset := item.Ad.LandscapeImage.Asset

		id := item.Ad.EntityID
		if id == "" {
			id = path.Base(asset)
		}
		if len(id) > 8 {
			id = id[:8]
		}
		title := item.Ad.Title
		if title == "" {
			title = "Spotlight"
		}

		result.Candidates = append(result.Candidates, domain.Candidate{
			NativeID: id,
			URL:      asset,
			Theme:    title,
			Ext:      "jpg",
		})
	}

	if len(result.Candidates) == 0 {
		return result, fmt.Errorf("spotlight: %w", domain.ErrNoResults)
	}
	return result, nil
}
