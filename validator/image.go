package validator

import (
	"image"

	// Register the decoders the validator can recognize.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/prn-tf/alexander-attach/file"
)

// defaultImageContentTypes matches the registered stdlib decoders.
var defaultImageContentTypes = []string{"image/png", "image/jpeg", "image/gif"}

// ImageValidator checks that the content is a decodable image and optionally
// enforces dimension and aspect-ratio bounds. On success it records the
// image width and height on the descriptor.
type ImageValidator struct {
	// MinWidth/MinHeight/MaxWidth/MaxHeight bound the image dimensions.
	// Zero disables the corresponding bound.
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	// MinAspectRatio/MaxAspectRatio bound width/height. Zero disables the
	// corresponding bound.
	MinAspectRatio float64
	MaxAspectRatio float64

	// AllowedContentTypes restricts the accepted MIME types. Defaults to
	// the decodable image types.
	AllowedContentTypes []string
}

// NewImageValidator builds a validator accepting any decodable image.
func NewImageValidator() *ImageValidator {
	return &ImageValidator{AllowedContentTypes: defaultImageContentTypes}
}

// Validate implements file.Validator.
func (v *ImageValidator) Validate(f *file.File, key string) error {
	allowed := v.AllowedContentTypes
	if allowed == nil {
		allowed = defaultImageContentTypes
	}
	if err := (&ContentTypeValidator{Allowed: allowed}).Validate(f, key); err != nil {
		return err
	}

	content := f.Original()
	if content == nil {
		return newError(ErrInvalidImage, key, "no image content to validate")
	}
	r, err := content.Open()
	if err != nil {
		return newError(ErrInvalidImage, key, "unable to read image content: %v", err)
	}
	defer r.Close()

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return newError(ErrInvalidImage, key, "provide a valid image file")
	}
	width, height := cfg.Width, cfg.Height

	if v.MinWidth > 0 && width < v.MinWidth {
		return newError(ErrDimensionOutOfBounds, key,
			"minimum allowed width is %d, but %d is given", v.MinWidth, width)
	}
	if v.MinHeight > 0 && height < v.MinHeight {
		return newError(ErrDimensionOutOfBounds, key,
			"minimum allowed height is %d, but %d is given", v.MinHeight, height)
	}
	if v.MaxWidth > 0 && width > v.MaxWidth {
		return newError(ErrDimensionOutOfBounds, key,
			"maximum allowed width is %d, but %d is given", v.MaxWidth, width)
	}
	if v.MaxHeight > 0 && height > v.MaxHeight {
		return newError(ErrDimensionOutOfBounds, key,
			"maximum allowed height is %d, but %d is given", v.MaxHeight, height)
	}

	ratio := float64(width) / float64(height)
	if (v.MinAspectRatio > 0 && ratio < v.MinAspectRatio) ||
		(v.MaxAspectRatio > 0 && ratio > v.MaxAspectRatio) {
		return newError(ErrAspectRatioOutOfBounds, key,
			"invalid aspect ratio %d/%d = %.3f, accepted range: %v - %v",
			width, height, ratio, v.MinAspectRatio, v.MaxAspectRatio)
	}

	return f.Update(map[string]any{"width": width, "height": height})
}
