package lifecycle

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prn-tf/alexander-attach/column"
	"github.com/prn-tf/alexander-attach/file"
	"github.com/prn-tf/alexander-attach/metrics"
	"github.com/prn-tf/alexander-attach/storage"
)

// Binding ties one record attribute to its column type.
type Binding struct {
	Key  string
	Type *column.Type
}

// PathError reports one storage path that could not be purged.
type PathError struct {
	Path string
	Err  error
}

// CleanupResult contains the outcome of a commit or rollback purge.
type CleanupResult struct {
	// Deleted lists the paths successfully purged.
	Deleted []string

	// Failed lists the paths whose purge failed, with the cause.
	Failed []PathError
}

// Coordinator drives the attachment lifecycle around a data-mapper's flush
// and transaction events. Mappings register once at startup; the hook methods
// are then safe to call from any number of concurrent transactions, each with
// its own Txn.
type Coordinator struct {
	registry *storage.Registry
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	mappings map[string][]Binding
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithMetrics attaches Prometheus instrumentation to the coordinator.
func WithMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// NewCoordinator creates a coordinator uploading through reg.
func NewCoordinator(reg *storage.Registry, logger zerolog.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		registry: reg,
		logger:   logger.With().Str("component", "lifecycle-coordinator").Logger(),
		mappings: make(map[string][]Binding),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterMapping declares the attachment attributes of a mapping. The
// mapping table is copied on write so hook methods never contend with
// registration.
func (c *Coordinator) RegisterMapping(name string, bindings []Binding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make(map[string][]Binding, len(c.mappings)+1)
	for k, v := range c.mappings {
		next[k] = v
	}
	next[name] = append([]Binding(nil), bindings...)
	c.mappings = next
}

func (c *Coordinator) bindings(mapping string) []Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mappings[mapping]
}

// BeforeInsert materializes, validates and uploads the attachment attributes
// of a record about to be inserted. Every path written is recorded on txn as
// new. A validation failure aborts before any content of the record uploads.
func (c *Coordinator) BeforeInsert(ctx context.Context, txn *Txn, rec Record) error {
	return c.prepare(ctx, txn, rec)
}

// BeforeUpdate is BeforeInsert for records about to be updated: newly
// assigned content validates and uploads, with every written path recorded
// on txn as new. Replaced paths known at this point are recorded as old;
// AfterUpdate captures them a second time once the history is final, and the
// path sets de-duplicate the overlap.
func (c *Coordinator) BeforeUpdate(ctx context.Context, txn *Txn, rec Record) error {
	if err := c.prepare(ctx, txn, rec); err != nil {
		return err
	}
	c.captureOld(txn, rec)
	return nil
}

// AfterUpdate records the paths of replaced or removed content on txn as
// old, so they purge once the transaction commits. Runs after the write so
// it sees histories only finalized post-flush.
func (c *Coordinator) AfterUpdate(txn *Txn, rec Record) {
	c.captureOld(txn, rec)
}

func (c *Coordinator) captureOld(txn *Txn, rec Record) {
	for _, b := range c.bindings(rec.Mapping()) {
		hist := rec.History(b.Key)
		for _, deleted := range hist.Deleted {
			txn.AddOld(pathsOf(deleted)...)
		}
		if list, ok := rec.Get(b.Key).(*file.List); ok {
			for _, removed := range list.Removed() {
				txn.AddOld(removed.Files()...)
			}
		}
	}
}

// AfterDelete records every path held by a deleted record on txn as old.
func (c *Coordinator) AfterDelete(txn *Txn, rec Record) {
	for _, b := range c.bindings(rec.Mapping()) {
		txn.AddOld(pathsOf(rec.Get(b.Key))...)
	}
}

// AfterCommit purges the old paths of the transaction: content replaced or
// removed while it was open. Failures never abort the purge; they are
// logged, counted and returned. The tracker is cleared afterwards.
func (c *Coordinator) AfterCommit(ctx context.Context, txn *Txn) CleanupResult {
	result := c.purge(ctx, "commit", txn.OldPaths())
	txn.Clear()
	return result
}

// AfterRollback purges the new paths of the transaction: content uploaded
// while it was open, now unreferenced. Failures never abort the purge; they
// are logged, counted and returned. The tracker is cleared afterwards.
func (c *Coordinator) AfterRollback(ctx context.Context, txn *Txn) CleanupResult {
	result := c.purge(ctx, "rollback", txn.NewPaths())
	txn.Clear()
	return result
}

// prepare runs the save pipeline over every attachment attribute of rec:
// materialize all raw assignments, validate every unsaved descriptor, then
// upload and process each. Validation of all attributes completes before the
// first upload, so a rejected record writes nothing.
func (c *Coordinator) prepare(ctx context.Context, txn *Txn, rec Record) error {
	bindings := c.bindings(rec.Mapping())
	if len(bindings) == 0 {
		return nil
	}

	type pending struct {
		binding Binding
		files   []*file.File
	}
	var work []pending

	for _, b := range bindings {
		value, err := b.Type.Materialize(rec.Get(b.Key))
		if err != nil {
			return err
		}
		rec.Set(b.Key, value)

		var unsaved []*file.File
		for _, f := range boundFiles(value) {
			if !f.Saved() {
				unsaved = append(unsaved, f)
			}
		}
		if len(unsaved) > 0 {
			work = append(work, pending{binding: b, files: unsaved})
		}
	}

	for _, w := range work {
		for _, f := range w.files {
			if err := f.ApplyValidators(w.binding.Type.Validators, w.binding.Key); err != nil {
				c.metrics.ObserveValidationFailure(w.binding.Key)
				c.logger.Debug().
					Err(err).
					Str("key", w.binding.Key).
					Str("mapping", rec.Mapping()).
					Msg("Descriptor rejected by validator")
				return err
			}
		}
	}

	for _, w := range work {
		storageName := w.binding.Type.UploadStorage
		for _, f := range w.files {
			if err := f.SaveToStorage(ctx, c.registry, storageName); err != nil {
				return err
			}
			txn.AddNew(f.Files()...)
			err := f.ApplyProcessors(ctx, c.registry, w.binding.Type.Processors, storageName)
			// Processors may have written side artifacts before failing;
			// every path uploaded so far must stay purgeable on rollback.
			txn.AddNew(f.Files()...)
			if err != nil {
				return err
			}
			c.metrics.ObserveUpload(f.UploadStorage(), f.Size())
			c.logger.Debug().
				Str("path", f.Path()).
				Str("key", w.binding.Key).
				Str("mapping", rec.Mapping()).
				Msg("Uploaded attachment content")
		}
	}
	return nil
}

// purge best-effort deletes every path, counting successes and failures.
func (c *Coordinator) purge(ctx context.Context, phase string, paths []string) CleanupResult {
	result := CleanupResult{}
	for _, path := range paths {
		if err := c.registry.Delete(ctx, path); err != nil {
			c.logger.Error().
				Err(err).
				Str("path", path).
				Str("phase", phase).
				Msg("Failed to purge attachment content")
			c.metrics.ObserveCleanup(phase, true)
			result.Failed = append(result.Failed, PathError{Path: path, Err: err})
			continue
		}
		c.metrics.ObserveCleanup(phase, false)
		result.Deleted = append(result.Deleted, path)
	}
	if len(paths) > 0 {
		c.logger.Info().
			Str("phase", phase).
			Int("deleted", len(result.Deleted)).
			Int("failed", len(result.Failed)).
			Msg("Transaction cleanup finished")
	}
	return result
}

// boundFiles flattens a bound column value into its descriptors.
func boundFiles(value any) []*file.File {
	switch v := value.(type) {
	case *file.File:
		return []*file.File{v}
	case *file.List:
		return v.Items()
	default:
		return nil
	}
}

// pathsOf extracts every storage path referenced by a previously bound or
// persisted value, including side artifacts.
func pathsOf(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case *file.File:
		return v.Files()
	case *file.List:
		var paths []string
		for _, f := range v.Items() {
			paths = append(paths, f.Files()...)
		}
		for _, f := range v.Removed() {
			paths = append(paths, f.Files()...)
		}
		return paths
	case map[string]any:
		return file.Decode(v).Files()
	case []map[string]any:
		var paths []string
		for _, m := range v {
			paths = append(paths, file.Decode(m).Files()...)
		}
		return paths
	case []any:
		var paths []string
		for _, item := range v {
			paths = append(paths, pathsOf(item)...)
		}
		return paths
	default:
		return nil
	}
}
