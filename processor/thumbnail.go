// Package processor provides the built-in post-upload processors that derive
// side artifacts from stored content, such as image thumbnails.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/prn-tf/alexander-attach/file"
	"github.com/prn-tf/alexander-attach/storage"
)

// DefaultThumbnailWidth and DefaultThumbnailHeight bound the generated
// thumbnail when no explicit size is given.
const (
	DefaultThumbnailWidth  = 128
	DefaultThumbnailHeight = 128
)

// ThumbnailGenerator scales the uploaded image down to fit within the given
// bounds and stores the result as a side artifact next to the original.
// The descriptor gains a "thumbnail" attribute describing the artifact.
type ThumbnailGenerator struct {
	// Width and Height bound the thumbnail; aspect ratio is preserved.
	Width  int
	Height int

	// Format selects the encoding of the artifact: "png", "jpeg" or "gif".
	// Empty keeps the source format when known, falling back to png.
	Format string
}

// NewThumbnailGenerator builds a generator with the default 128x128 bounds.
func NewThumbnailGenerator() *ThumbnailGenerator {
	return &ThumbnailGenerator{Width: DefaultThumbnailWidth, Height: DefaultThumbnailHeight}
}

// Process implements file.Processor.
func (p *ThumbnailGenerator) Process(ctx context.Context, f *file.File, reg *storage.Registry, storageName string) error {
	width, height := p.Width, p.Height
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	if height <= 0 {
		height = DefaultThumbnailHeight
	}

	info, err := generateThumbnail(ctx, f, reg, storageName, width, height, p.Format)
	if err != nil {
		return err
	}
	return f.Set("thumbnail", info)
}

// ThumbnailsGenerator produces one thumbnail per requested size. The
// descriptor gains a "thumbnails" attribute keyed by "<width>x<height>".
type ThumbnailsGenerator struct {
	// Sizes lists the bounding boxes to generate, e.g. {{64, 64}, {256, 256}}.
	Sizes []image.Point

	// Format selects the encoding of the artifacts, as in ThumbnailGenerator.
	Format string
}

// Process implements file.Processor.
func (p *ThumbnailsGenerator) Process(ctx context.Context, f *file.File, reg *storage.Registry, storageName string) error {
	thumbnails := make(map[string]any, len(p.Sizes))
	for _, size := range p.Sizes {
		info, err := generateThumbnail(ctx, f, reg, storageName, size.X, size.Y, p.Format)
		if err != nil {
			return err
		}
		thumbnails[fmt.Sprintf("%dx%d", size.X, size.Y)] = info
	}
	return f.Set("thumbnails", thumbnails)
}

func generateThumbnail(ctx context.Context, f *file.File, reg *storage.Registry, storageName string, width, height int, format string) (map[string]any, error) {
	content := f.Original()
	if content == nil {
		return nil, file.ErrNoContent
	}
	r, err := content.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	src, srcFormat, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "" {
		format = srcFormat
	}

	thumb := scaleToFit(src, width, height)
	var buf bytes.Buffer
	contentType, err := encodeImage(&buf, thumb, format)
	if err != nil {
		return nil, err
	}

	bounds := thumb.Bounds()
	objectName := uuid.NewString()
	stored, err := f.StoreContent(ctx, reg, storageName, objectName, &buf, storage.UploadOptions{
		ContentType: contentType,
		Size:        int64(buf.Len()),
		Metadata: map[string]string{
			"filename":     thumbnailFilename(f.Filename(), format),
			"content_type": contentType,
		},
	})
	if err != nil {
		return nil, err
	}

	info := map[string]any{
		"file_id":        objectName,
		"upload_storage": stored.Storage(),
		"path":           stored.Storage() + "/" + objectName,
		"width":          bounds.Dx(),
		"height":         bounds.Dy(),
		"content_type":   contentType,
	}
	if url := stored.CDNURL(); url != "" {
		info["url"] = url
	}
	return info, nil
}

// scaleToFit shrinks src to fit within maxWidth x maxHeight, preserving the
// aspect ratio. Images already within bounds are returned unchanged.
func scaleToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW <= maxWidth && srcH <= maxHeight {
		return src
	}

	ratio := float64(srcW) / float64(srcH)
	dstW, dstH := maxWidth, int(float64(maxWidth)/ratio)
	if dstH > maxHeight {
		dstH = maxHeight
		dstW = int(float64(maxHeight) * ratio)
	}
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func encodeImage(w io.Writer, img image.Image, format string) (string, error) {
	switch format {
	case "jpeg", "jpg":
		return "image/jpeg", jpeg.Encode(w, img, nil)
	case "gif":
		return "image/gif", gif.Encode(w, img, nil)
	case "", "png":
		return "image/png", png.Encode(w, img)
	default:
		return "", fmt.Errorf("unsupported thumbnail format %q", format)
	}
}

func thumbnailFilename(base, format string) string {
	ext := "png"
	switch format {
	case "jpeg", "jpg":
		ext = "jpg"
	case "gif":
		ext = "gif"
	}
	return fmt.Sprintf("thumbnail_%s.%s", base, ext)
}
