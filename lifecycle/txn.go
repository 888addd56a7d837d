// Package lifecycle ties the attachment pipeline to relational transaction
// boundaries: files uploaded during a transaction are purged on rollback, and
// files replaced or removed during it are purged on commit.
package lifecycle

import "sort"

// Txn tracks the storage paths touched while one relational transaction is
// open. "New" paths were uploaded inside the transaction and must go if it
// rolls back; "old" paths were replaced or removed and must go once it
// commits. A Txn belongs to a single transaction and is not safe for
// concurrent use.
type Txn struct {
	newPaths map[string]struct{}
	oldPaths map[string]struct{}
}

// NewTxn creates an empty transaction tracker.
func NewTxn() *Txn {
	return &Txn{}
}

// AddNew records paths uploaded inside the transaction.
func (t *Txn) AddNew(paths ...string) {
	if t.newPaths == nil {
		t.newPaths = make(map[string]struct{})
	}
	for _, p := range paths {
		t.newPaths[p] = struct{}{}
	}
}

// AddOld records paths replaced or removed inside the transaction.
func (t *Txn) AddOld(paths ...string) {
	if t.oldPaths == nil {
		t.oldPaths = make(map[string]struct{})
	}
	for _, p := range paths {
		t.oldPaths[p] = struct{}{}
	}
}

// NewPaths returns the recorded new paths, sorted.
func (t *Txn) NewPaths() []string {
	return sortedKeys(t.newPaths)
}

// OldPaths returns the recorded old paths, sorted.
func (t *Txn) OldPaths() []string {
	return sortedKeys(t.oldPaths)
}

// Clear drops both path sets, readying the tracker for reuse.
func (t *Txn) Clear() {
	t.newPaths = nil
	t.oldPaths = nil
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
