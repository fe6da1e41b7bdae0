package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support

	"github.com/disintegration/imaging"
	"github.com/genricoloni/visuals/internal/domain"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"  // BMP format support
	_ "golang.org/x/image/webp" // WebP format support
)

const jpegQuality = 90

var (
	// ErrNotImage is returned for payloads no registered decoder accepts
	ErrNotImage = errors.New("payload is not a supported image")
	// ErrTooSmall is returned for images below the minimum resolution
	ErrTooSmall = errors.New("image below minimum resolution")
)

// storedExt maps decoder format names to the extension written to disk
var storedExt = map[string]string{
	"jpeg": "jpg",
	"png":  "png",
	"bmp":  "bmp",
}

// Normalizer validates downloaded images and re-encodes formats the OS
// wallpaper setters do not reliably accept
type Normalizer struct {
	logger  *zap.Logger
	minSize domain.ScreenResolution
}

var _ domain.ImageProcessor = (*Normalizer)(nil)

// NewNormalizer creates a normalizer enforcing domain.MinimumSize
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger, minSize: domain.MinimumSize}
}

// Process checks the image header and returns the bytes to store.
// JPEG, PNG and BMP are kept byte for byte, anything else (WebP, GIF)
// is converted to JPEG.
func (n *Normalizer) Process(ctx context.Context, imageData []byte) (domain.ProcessedImage, error) {
	// 1. Inspect header only
	cfg, format, err := image.DecodeConfig(bytes.NewReader(imageData))
	if err != nil {
		return domain.ProcessedImage{}, fmt.Errorf("%w: %w", ErrNotImage, err)
	}

	// 2. Enforce minimum resolution, in either orientation
	if cfg.Width == 0 || cfg.Height == 0 {
		return domain.ProcessedImage{}, fmt.Errorf("invalid image dimensions: %dx%d", cfg.Width, cfg.Height)
	}
	long, short := max(cfg.Width, cfg.Height), min(cfg.Width, cfg.Height)
	if long < n.minSize.Width || short < n.minSize.Height {
		return domain.ProcessedImage{}, fmt.Errorf("%w: %dx%d", ErrTooSmall, cfg.Width, cfg.Height)
	}

	out := domain.ProcessedImage{Data: imageData, Width: cfg.Width, Height: cfg.Height}
	if ext, ok := storedExt[format]; ok {
		out.Ext = ext
		return out, nil
	}

	// 3. Re-encode everything else as JPEG
	n.logger.Debug("Re-encoding image", zap.String("format", format),
		zap.Int("w", cfg.Width), zap.Int("h", cfg.Height))

	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return domain.ProcessedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return domain.ProcessedImage{}, fmt.Errorf("failed to encode result: %w", err)
	}

	out.Data = buf.Bytes()
	out.Ext = "jpg"
	n.logger.Debug("Image normalized", zap.Int("bytes", buf.Len()))
	return out, nil
}
