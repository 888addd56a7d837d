package validator

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/prn-tf/alexander-attach/file"
)

var sizePattern = regexp.MustCompile(`^(\d+)\s*(k|K|M|Ki|Mi)$`)

var sizeUnits = map[string]int64{
	"k":  1000,
	"K":  1000,
	"M":  1000 * 1000,
	"Ki": 1024,
	"Mi": 1024 * 1024,
}

// ParseSize converts a human-readable size to a byte count. Plain integers
// pass through unchanged; supported suffixes are k/K (1000), M (1000^2),
// Ki (1024) and Mi (1024^2). Anything else fails.
func ParseSize(v string) (int64, error) {
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	m := sizePattern.FindStringSubmatch(v)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, v)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSizeFormat, v)
	}
	return n * sizeUnits[m[2]], nil
}

// SizeValidator rejects files larger than a maximum size.
type SizeValidator struct {
	// MaxSize is the inclusive upper bound in bytes.
	MaxSize int64

	// display is the original human-readable form for error messages.
	display string
}

// NewSizeValidator builds a size validator from a human-readable maximum
// such as "5K", "2M" or "8Mi".
func NewSizeValidator(maxSize string) (*SizeValidator, error) {
	n, err := ParseSize(maxSize)
	if err != nil {
		return nil, err
	}
	return &SizeValidator{MaxSize: n, display: maxSize}, nil
}

// Validate implements file.Validator.
func (v *SizeValidator) Validate(f *file.File, key string) error {
	if f.Size() > v.MaxSize {
		display := v.display
		if display == "" {
			display = strconv.FormatInt(v.MaxSize, 10)
		}
		return newError(ErrFileTooLarge, key,
			"the file is too large (%d bytes), allowed maximum size is %s", f.Size(), display)
	}
	return nil
}
