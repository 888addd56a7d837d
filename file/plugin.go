package file

import (
	"context"

	"github.com/prn-tf/alexander-attach/storage"
)

// Validator inspects an unsaved descriptor before it is stored. Validators
// run in order; the first failure aborts the save. A validator may also
// enrich the descriptor (for example with image dimensions).
type Validator interface {
	// Validate checks the unsaved file. key is the column key the file is
	// bound to, carried into validation errors.
	Validate(f *File, key string) error
}

// Processor enriches a descriptor after its primary content has been stored.
// Processors run in order and may store additional side artifacts through
// File.StoreContent and merge extra fields before the descriptor is frozen.
type Processor interface {
	// Process runs against the saved-but-not-yet-frozen file. storageName is
	// the storage the primary content went to; side artifacts normally go to
	// the same one.
	Process(ctx context.Context, f *File, reg *storage.Registry, storageName string) error
}
