// Package library manages the directory of acquired images: the naming
// template, numeric ordering, content hashes and collision-free writes.
package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const imagePattern = "*.{jpg,jpeg,png,bmp,webp}"

// ErrSequenceTaken is returned by Write when the target name already exists
var ErrSequenceTaken = errors.New("sequence number already in use")

// Image is a managed file derived from its name and stat data
type Image struct {
	Name
	Path    string
	ModTime time.Time
}

// Library is the managed image directory
type Library struct {
	logger *zap.Logger
	dir    string
}

// New creates a library rooted at dir
func New(logger *zap.Logger, dir string) *Library {
	return &Library{logger: logger, dir: filepath.Clean(dir)}
}

// Dir returns the managed directory
func (l *Library) Dir() string {
	return l.dir
}

func isImageExt(ext string) bool {
	ok, _ := doublestar.Match(imagePattern, "x."+strings.ToLower(ext))
	return ok
}

// List returns the managed images sorted by numeric sequence.
// A missing directory is an empty library.
func (l *Library) List() ([]Image, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.FilesystemError("read managed directory", err)
	}

	images := make([]Image, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name, ok := ParseName(e.Name())
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, Image{
			Name:    name,
			Path:    filepath.Join(l.dir, e.Name()),
			ModTime: info.ModTime(),
		})
	}

	slices.SortFunc(images, func(a, b Image) int {
		if a.Sequence != b.Sequence {
			return a.Sequence - b.Sequence
		}
		return strings.Compare(filepath.Base(a.Path), filepath.Base(b.Path))
	})
	return images, nil
}

// Latest returns the image with the numerically highest sequence
func Latest(images []Image) (Image, bool) {
	if len(images) == 0 {
		return Image{}, false
	}
	return slices.MaxFunc(images, func(a, b Image) int { return a.Sequence - b.Sequence }), true
}

// Contains reports whether path lies directly inside the managed directory
func (l *Library) Contains(path string) bool {
	if path == "" {
		return false
	}
	return SamePath(filepath.Dir(filepath.Clean(path)), l.dir)
}

// IndexOf returns the position of path in images, or -1
func IndexOf(images []Image, path string) int {
	return slices.IndexFunc(images, func(img Image) bool { return SamePath(img.Path, path) })
}

// SamePath compares cleaned paths, ignoring case on Windows
func SamePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// NextSequence reconciles the persisted counter with what is on disk. The
// counter is advisory: the result is never below the highest sequence
// present plus one.
func NextSequence(hint int, images []Image) int {
	next := max(hint, 1)
	if latest, ok := Latest(images); ok && latest.Sequence >= next {
		next = latest.Sequence + 1
	}
	return next
}

// HashBytes returns the content hash used for deduplication
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile hashes the file at path
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Hashes computes the content hash of every image, keyed by hash
func (l *Library) Hashes(ctx context.Context, images []Image) (map[string]string, error) {
	sums := make([]string, len(images))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := HashFile(img.Path)
			if err != nil {
				return domain.FilesystemError("hash "+img.Path, err)
			}
			sums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]string, len(images))
	for i, sum := range sums {
		index[sum] = images[i].Path
	}
	l.logger.Debug("Library hashed", zap.Int("images", len(images)))
	return index, nil
}

// Write stores data under name without ever overwriting an existing file
func (l *Library) Write(name Name, data []byte) (Image, error) {
	if err := os.MkdirAll(l.dir, 0755); err != nil {
		return Image{}, domain.FilesystemError("create managed directory", err)
	}

	path := filepath.Join(l.dir, name.String())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Image{}, fmt.Errorf("%w: %s", ErrSequenceTaken, name)
		}
		return Image{}, domain.FilesystemError("create "+path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return Image{}, domain.FilesystemError("write "+path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Image{}, domain.FilesystemError("close "+path, err)
	}

	l.logger.Debug("Image written", zap.String("path", path), zap.Int("bytes", len(data)))
	return Image{Name: name, Path: path, ModTime: time.Now()}, nil
}

// Renumber renames img to carry seq, refusing to overwrite
func (l *Library) Renumber(img Image, seq int) (Image, error) {
	if img.Sequence == seq {
		return img, nil
	}
	renamed := img
	renamed.Name = img.Name.WithSequence(seq)
	renamed.Path = filepath.Join(l.dir, renamed.Name.String())

	if _, err := os.Lstat(renamed.Path); err == nil {
		return img, fmt.Errorf("%w: %s", ErrSequenceTaken, renamed.Name)
	}
	if err := os.Rename(img.Path, renamed.Path); err != nil {
		return img, domain.FilesystemError("rename "+img.Path, err)
	}
	return renamed, nil
}

// Remove deletes img from disk
func (l *Library) Remove(img Image) error {
	if err := os.Remove(img.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return domain.FilesystemError("remove "+img.Path, err)
	}
	return nil
}
