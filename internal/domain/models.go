package domain

import "time"

// ScreenResolution holds the display dimensions
type ScreenResolution struct {
	Width  int
	Height int
}

// Is4K reports whether the display is at least UHD wide
func (r ScreenResolution) Is4K() bool {
	return r.Width >= 3840
}

// ResolutionClass is the minimum quality a provider guarantees
type ResolutionClass int

const (
	// ResolutionFHD requires at least 1920x1080
	ResolutionFHD ResolutionClass = iota
	// Resolution4K requires at least 3840x2160
	Resolution4K
)

// MinimumSize is the floor every accepted image must meet
var MinimumSize = ScreenResolution{Width: 1920, Height: 1080}

func (c ResolutionClass) String() string {
	if c == Resolution4K {
		return "4K"
	}
	return "FHD"
}

// SourceDescriptor is the static description of an image provider
type SourceDescriptor struct {
	ID                 SourceID
	DisplayName        string
	RequiresCredential bool
	// Window is the rate-limit window; zero means the provider is unmetered
	Window time.Duration
	// Limit is the provider's published request limit per window
	Limit int
	// Capacity is Limit minus a safety reserve
	Capacity         int
	SilentVocabulary []string
	DefaultQuery     string
	Resolution       ResolutionClass
	MaxPerRequest    int
}

// Metered reports whether requests against the source are budgeted
func (d SourceDescriptor) Metered() bool {
	return d.Window > 0 && d.Capacity > 0
}

// SearchRequest describes one page of a provider search
type SearchRequest struct {
	Query      string
	Count      int
	Page       int
	Credential string
	Silent     bool
	Screen     ScreenResolution
}

// Candidate is a downloadable image returned by a provider
type Candidate struct {
	NativeID string
	URL      string
	Theme    string
	Ext      string
}

// SearchResult is one page of provider results
type SearchResult struct {
	Candidates []Candidate
	// Remaining is the provider-reported remaining quota, -1 when unknown
	Remaining int
}

// ProcessedImage is an image ready to be written to the managed directory
type ProcessedImage struct {
	Data   []byte
	Ext    string
	Width  int
	Height int
}
