package library

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const maxTagLength = 32

// namePattern matches {sequence}_{source}_{theme}_{native_id}.{ext}.
// The theme may itself contain underscores in files written by older
// releases, so the native id is taken from the last segment.
var namePattern = regexp.MustCompile(`^(\d{4,})_([A-Za-z0-9-]+)_(.+)_([A-Za-z0-9-]+)\.([A-Za-z0-9]+)$`)

var tagReplacer = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// Name is the parsed form of a managed file name
type Name struct {
	Sequence int
	Source   string
	Theme    string
	NativeID string
	Ext      string
}

// ParseName parses a managed file name. ok is false for files outside the
// naming template, which rotation ignores.
func ParseName(s string) (n Name, ok bool) {
	m := namePattern.FindStringSubmatch(s)
	if m == nil {
		return Name{}, false
	}
	ext := strings.ToLower(m[5])
	if !isImageExt(ext) {
		return Name{}, false
	}
	seq, err := strconv.Atoi(m[1])
	if err != nil {
		return Name{}, false
	}
	return Name{Sequence: seq, Source: m[2], Theme: m[3], NativeID: m[4], Ext: m[5]}, true
}

// String formats the name with a zero-padded sequence
func (n Name) String() string {
	return fmt.Sprintf("%04d_%s_%s_%s.%s", n.Sequence, n.Source, n.Theme, n.NativeID, n.Ext)
}

// WithSequence returns n renumbered to seq
func (n Name) WithSequence(seq int) Name {
	n.Sequence = seq
	return n
}

// NewName builds a sanitized name for an acquired image
func NewName(seq int, source, theme, nativeID, ext string) Name {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "jpg"
	}
	return Name{
		Sequence: seq,
		Source:   sanitizeTag(strings.ToLower(source), "source"),
		Theme:    ThemeTag(theme),
		NativeID: sanitizeTag(nativeID, "unknown"),
		Ext:      ext,
	}
}

// ThemeTag turns a free-form query into the theme segment of a name
func ThemeTag(query string) string {
	return sanitizeTag(strings.ToUpper(query), "RANDOM")
}

func sanitizeTag(s, fallback string) string {
	s = tagReplacer.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.Trim(s, "-")
	if len(s) > maxTagLength {
		s = strings.TrimRight(s[:maxTagLength], "-")
	}
	if s == "" {
		return fallback
	}
	return s
}
