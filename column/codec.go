package column

import (
	"encoding/json"
	"fmt"

	"github.com/prn-tf/alexander-attach/file"
)

// Encode converts a bound value into its persistable form: nil, a map for
// single columns, or a slice of maps for multiple ones. The value must be
// homogeneous with the column shape. An empty collection encodes to nil so
// the column stores NULL rather than an empty array.
func (t *Type) Encode(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if t.Multiple {
		switch v := value.(type) {
		case *file.List:
			if v.Len() == 0 {
				return nil, nil
			}
			return v.Encode(), nil
		case []*file.File:
			if len(v) == 0 {
				return nil, nil
			}
			out := make([]map[string]any, 0, len(v))
			for _, f := range v {
				out = append(out, f.Encode())
			}
			return out, nil
		case *file.File:
			return nil, ErrMultipleExpected
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
		}
	}
	switch v := value.(type) {
	case *file.File:
		return v.Encode(), nil
	case *file.List, []*file.File:
		return nil, ErrSingleExpected
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, value)
	}
}

// Decode converts a persisted representation back into the bound form.
// Single columns yield *file.File; multiple columns yield *file.List. A lone
// map under a multiple column wraps into a one-element collection. Nil passes
// through.
func (t *Type) Decode(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if t.Multiple {
		switch v := raw.(type) {
		case map[string]any:
			return file.NewList(file.Decode(v)), nil
		case []map[string]any:
			files := make([]*file.File, 0, len(v))
			for _, m := range v {
				files = append(files, file.Decode(m))
			}
			return file.NewList(files...), nil
		case []any:
			files := make([]*file.File, 0, len(v))
			for _, item := range v {
				m, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("%w: %T in collection", ErrUnsupportedValue, item)
				}
				files = append(files, file.Decode(m))
			}
			return file.NewList(files...), nil
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
		}
	}
	switch v := raw.(type) {
	case map[string]any:
		return file.Decode(v), nil
	case []any, []map[string]any:
		return nil, ErrSingleExpected
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// EncodeJSON encodes a bound value to the JSON bytes stored in the column.
// Nil encodes to nil so the column stays NULL.
func (t *Type) EncodeJSON(value any) ([]byte, error) {
	encoded, err := t.Encode(value)
	if err != nil {
		return nil, err
	}
	if encoded == nil {
		return nil, nil
	}
	return json.Marshal(encoded)
}

// DecodeJSON decodes the JSON bytes of a column into the bound form. Empty
// input decodes to nil.
func (t *Type) DecodeJSON(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return t.Decode(raw)
}
