package domain

import (
	"fmt"
	"strings"
)

// SourceID identifies an image provider
type SourceID string

const (
	SourceSpotlight SourceID = "spotlight"
	SourceWallhaven SourceID = "wallhaven"
	SourceUnsplash  SourceID = "unsplash"
	SourcePexels    SourceID = "pexels"
)

// FallbackSource is the key-free source silent runs fall back to
const FallbackSource = SourceSpotlight

// retiredSources maps ids that older configurations may still carry
var retiredSources = map[string]SourceID{
	"bing": SourceSpotlight,
}

// AllSources lists the providers in menu order
func AllSources() []SourceID {
	return []SourceID{SourceSpotlight, SourceWallhaven, SourceUnsplash, SourcePexels}
}

// ParseSourceID resolves a user or persisted name, remapping retired ids
func ParseSourceID(s string) (SourceID, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if repl, ok := retiredSources[name]; ok {
		return repl, nil
	}
	for _, id := range AllSources() {
		if string(id) == name {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

func (s SourceID) String() string {
	return string(s)
}

// UnmarshalText remaps retired ids and keeps unknown ones verbatim so
// the configuration loader can default them.
func (s *SourceID) UnmarshalText(b []byte) error {
	if id, err := ParseSourceID(string(b)); err == nil {
		*s = id
		return nil
	}
	*s = SourceID(strings.ToLower(strings.TrimSpace(string(b))))
	return nil
}

// Valid reports whether s names a registered provider
func (s SourceID) Valid() bool {
	_, err := ParseSourceID(string(s))
	return err == nil && retiredSources[string(s)] == ""
}
