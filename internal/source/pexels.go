package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/genricoloni/visuals/internal/domain"
)

const pexelsBaseURL = "https://api.pexels.com"

// Pexels searches pexels.com with an API key
type Pexels struct {
	api     domain.APIClient
	BaseURL string
}

// NewPexels creates a Pexels client
func NewPexels(api domain.APIClient) *Pexels {
	return &Pexels{api: api, BaseURL: pexelsBaseURL}
}

func (p *Pexels) Descriptor() domain.SourceDescriptor {
	return descriptors[domain.SourcePexels]
}

type pexelsResponse struct {
	Photos []struct {
		ID  int64 `json:"id"`
		Src struct {
			Original string `json:"original"`
			Large2x  string `json:"large2x"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *Pexels) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	if req.Credential == "" {
		return domain.SearchResult{}, fmt.Errorf("pexels: %w", domain.ErrCredentialMissing)
	}

	q := url.Values{
		"query":       {req.Query},
		"orientation": {"landscape"},
		"size":        {"large"},
		"per_page":    {strconv.Itoa(min(max(req.Count, 1), p.Descriptor().MaxPerRequest))},
		"page":        {strconv.Itoa(max(req.Page, 1))},
	}
	header := http.Header{"Authorization": {req.Credential}}

	var resp pexelsResponse
	respHeader, err := p.api.GetJSON(ctx, p.BaseURL+"/v1/search?"+q.Encode(), header, &resp)
	if err != nil {
		return domain.SearchResult{}, classify(domain.SourcePexels, err)
	}

	result := domain.SearchResult{Remaining: remainingFrom(respHeader)}
	for _, photo := range resp.Photos {
		download := photo.Src.Large2x
		if req.Screen.Is4K() || download == "" {
			download = photo.Src.Original
		}
		if download == "" {
			continue
		}
		result.Candidates = append(result.Candidates, domain.Candidate{
			NativeID: strconv.FormatInt(photo.ID, 10),
			URL:      download,
			Theme:    req.Query,
			Ext:      "jpg",
		})
	}

	if len(result.Candidates) == 0 {
		return result, fmt.Errorf("pexels %q: %w", req.Query, domain.ErrNoResults)
	}
	return result, nil
}
