package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // GIF format support
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support

	"github.com/disintegration/imaging"
	"github.com/genricoloni/nowplaying/internal/config"
	"github.com/genricoloni/nowplaying/internal/domain"
	"go.uber.org/zap"
)

// ProcessorConfig holds configuration for album art processing
type ProcessorConfig struct {
	Size   domain.ArtSize
	Format imaging.Format
}

// ArtProcessor fits album art into the image widget and re-encodes it,
// so the host only has to decode something already sized for the screen.
type ArtProcessor struct {
	logger *zap.Logger
	config ProcessorConfig
}

// NewArtProcessor creates a processor sized for the configured art widget
func NewArtProcessor(logger *zap.Logger, cfg config.Config) *ArtProcessor {
	format := imaging.PNG
	if cfg.Art.Format == config.FormatBMP {
		format = imaging.BMP
	}
	return &ArtProcessor{
		logger: logger,
		config: ProcessorConfig{
			Size:   cfg.ArtSize(),
			Format: format,
		},
	}
}

// Process decodes imageData, scales it down to fit the widget while keeping
// the aspect ratio, and encodes the result.
func (p *ArtProcessor) Process(ctx context.Context, imageData []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dy() == 0 || bounds.Dx() == 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	var out image.Image = img
	if bounds.Dx() > p.config.Size.Width || bounds.Dy() > p.config.Size.Height {
		p.logger.Debug("Fitting album art",
			zap.Int("srcW", bounds.Dx()), zap.Int("srcH", bounds.Dy()),
			zap.Int("w", p.config.Size.Width), zap.Int("h", p.config.Size.Height))
		out = imaging.Fit(img, p.config.Size.Width, p.config.Size.Height, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, out, p.config.Format); err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	p.logger.Debug("Image processed successfully", zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Passthrough returns image bytes untouched. It is used when art
// processing is disabled.
type Passthrough struct{}

// Process returns imageData as-is
func (Passthrough) Process(_ context.Context, imageData []byte) ([]byte, error) {
	return imageData, nil
}

// New picks the processor matching cfg.Art.Resize.
func New(logger *zap.Logger, cfg config.Config) domain.ImageProcessor {
	if !cfg.Art.Resize {
		logger.Info("Album art processing disabled")
		return Passthrough{}
	}
	return NewArtProcessor(logger, cfg)
}
