package column

import (
	"github.com/prn-tf/alexander-attach/file"
	"github.com/prn-tf/alexander-attach/processor"
	"github.com/prn-tf/alexander-attach/validator"
)

// Factory turns a raw assignment value into a descriptor. The default is
// file.New.
type Factory func(content any, opts ...file.Option) (*file.File, error)

// Type describes one attachment column: where its content uploads, which
// checks and transformations the save pipeline runs, and whether the column
// holds one descriptor or a collection.
type Type struct {
	// UploadStorage overrides the registry default for this column.
	UploadStorage string

	// Validators run before any upload of the column, in order.
	Validators []file.Validator

	// Processors run after upload, in order, before the descriptor freezes.
	Processors []file.Processor

	// Factory materializes raw assignments. Defaults to file.New.
	Factory Factory

	// Multiple marks the column as holding a tracked collection of files.
	Multiple bool

	// Extra and Headers are defaults merged into descriptors that carry
	// none of their own.
	Extra   map[string]any
	Headers map[string]string
}

// Option configures a Type.
type Option func(*Type)

// WithStorage routes the column's uploads to the named storage.
func WithStorage(name string) Option {
	return func(t *Type) { t.UploadStorage = name }
}

// WithValidators appends validators to the column pipeline.
func WithValidators(validators ...file.Validator) Option {
	return func(t *Type) { t.Validators = append(t.Validators, validators...) }
}

// WithProcessors appends processors to the column pipeline.
func WithProcessors(processors ...file.Processor) Option {
	return func(t *Type) { t.Processors = append(t.Processors, processors...) }
}

// WithFactory replaces the descriptor constructor.
func WithFactory(factory Factory) Option {
	return func(t *Type) { t.Factory = factory }
}

// WithMultiple marks the column as a collection.
func WithMultiple() Option {
	return func(t *Type) { t.Multiple = true }
}

// WithExtra sets default extra attributes for descriptors without their own.
func WithExtra(extra map[string]any) Option {
	return func(t *Type) { t.Extra = extra }
}

// WithHeaders sets default driver headers for descriptors without their own.
func WithHeaders(headers map[string]string) Option {
	return func(t *Type) { t.Headers = headers }
}

// WithThumbnail appends a thumbnail generator bounded to width x height.
func WithThumbnail(width, height int) Option {
	return func(t *Type) {
		t.Processors = append(t.Processors, &processor.ThumbnailGenerator{Width: width, Height: height})
	}
}

// New builds a column type.
func New(opts ...Option) *Type {
	t := &Type{Factory: file.New}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewImage builds a column type for images: an image validator always runs
// after any option-supplied validators, so cheaper user checks fire first.
func NewImage(opts ...Option) *Type {
	t := New(opts...)
	t.Validators = append(t.Validators, validator.NewImageValidator())
	return t
}

// Materialize converts a raw assignment into the column's bound form: a
// *file.File for single columns, a *file.List for multiple ones. Nil passes
// through. Single values bound to a multiple column wrap into a one-element
// collection; collections bound to a single column fail.
func (t *Type) Materialize(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if t.Multiple {
		return t.materializeList(value)
	}
	switch value.(type) {
	case *file.List, []*file.File, []any, []map[string]any:
		return nil, ErrSingleExpected
	}
	return t.materializeOne(value)
}

func (t *Type) materializeList(value any) (*file.List, error) {
	var items []any
	switch v := value.(type) {
	case *file.List:
		for _, f := range v.Items() {
			if err := t.applyDefaults(f); err != nil {
				return nil, err
			}
		}
		return v, nil
	case []*file.File:
		for _, f := range v {
			items = append(items, f)
		}
	case []any:
		items = v
	case []map[string]any:
		for _, m := range v {
			items = append(items, m)
		}
	default:
		items = []any{value}
	}

	files := make([]*file.File, 0, len(items))
	for _, item := range items {
		f, err := t.materializeOne(item)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return file.NewList(files...), nil
}

func (t *Type) materializeOne(value any) (*file.File, error) {
	factory := t.Factory
	if factory == nil {
		factory = file.New
	}
	f, err := factory(value)
	if err != nil {
		return nil, err
	}
	if err := t.applyDefaults(f); err != nil {
		return nil, err
	}
	return f, nil
}

// applyDefaults merges the column's extra/headers into an unsaved descriptor
// that carries none of its own. Persisted descriptors are left untouched.
func (t *Type) applyDefaults(f *file.File) error {
	if f.Frozen() || f.Saved() {
		return nil
	}
	if len(t.Extra) > 0 && len(f.Extra()) == 0 {
		extra := make(map[string]any, len(t.Extra))
		for k, v := range t.Extra {
			extra[k] = v
		}
		if err := f.Set(file.KeyExtra, extra); err != nil {
			return err
		}
	}
	if len(t.Headers) > 0 && len(f.Headers()) == 0 {
		headers := make(map[string]string, len(t.Headers))
		for k, v := range t.Headers {
			headers[k] = v
		}
		if err := f.Set(file.KeyHeaders, headers); err != nil {
			return err
		}
	}
	return nil
}
