package source

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/genricoloni/visuals/internal/domain"
)

const wallhavenBaseURL = "https://wallhaven.cc"

// Wallhaven searches the SFW general category of wallhaven.cc
type Wallhaven struct {
	api     domain.APIClient
	BaseURL string
}

// NewWallhaven creates a Wallhaven client
func NewWallhaven(api domain.APIClient) *Wallhaven {
	return &Wallhaven{api: api, BaseURL: wallhavenBaseURL}
}

func (w *Wallhaven) Descriptor() domain.SourceDescriptor {
	return descriptors[domain.SourceWallhaven]
}

type wallhavenResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	} `json:"data"`
}

func (w *Wallhaven) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResult, error) {
	sorting := "relevance"
	if req.Silent {
		sorting = "random"
	}
	atleast := domain.MinimumSize
	if req.Screen.Width > atleast.Width && req.Screen.Height > atleast.Height {
		atleast = req.Screen
	}

	q := url.Values{
		"q":          {req.Query},
		"categories": {"100"},
		"purity":     {"100"},
		"sorting":    {sorting},
		"atleast":    {fmt.Sprintf("%dx%d", atleast.Width, atleast.Height)},
		"ratios":     {"16x9"},
		"page":       {strconv.Itoa(max(req.Page, 1))},
	}

	var resp wallhavenResponse
	if _, err := w.api.GetJSON(ctx, w.BaseURL+"/api/v1/search?"+q.Encode(), nil, &resp); err != nil {
		return domain.SearchResult{}, classify(domain.SourceWallhaven, err)
	}

	result := domain.SearchResult{Remaining: -1}
	for _, item := range resp.Data {
		if item.Path == "" {
			continue
		}
		result.Candidates = append(result.Candidates, domain.Candidate{
			NativeID: item.ID,
			URL:      item.Path,
			Theme:    req.Query,
			Ext:      strings.TrimPrefix(path.Ext(item.Path), "."),
		})
		if req.Count > 0 && len(result.Candidates) >= req.Count {
			break
		}
	}

	if len(result.Candidates) == 0 {
		return result, fmt.Errorf("wallhaven %q: %w", req.Query, domain.ErrNoResults)
	}
	return result, nil
}
