package validator

import (
	"github.com/prn-tf/alexander-attach/file"
)

// ContentTypeValidator rejects files whose MIME type is not in the allowed
// list. An empty list allows everything.
type ContentTypeValidator struct {
	Allowed []string
}

// NewContentTypeValidator builds a validator restricted to the given types.
func NewContentTypeValidator(allowed ...string) *ContentTypeValidator {
	return &ContentTypeValidator{Allowed: allowed}
}

// Validate implements file.Validator.
func (v *ContentTypeValidator) Validate(f *file.File, key string) error {
	if len(v.Allowed) == 0 {
		return nil
	}
	contentType := f.ContentType()
	for _, allowed := range v.Allowed {
		if contentType == allowed {
			return nil
		}
	}
	return newError(ErrContentTypeNotAllowed, key,
		"content type %s is not allowed, allowed content types are: %v", contentType, v.Allowed)
}
