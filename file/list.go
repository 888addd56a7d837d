package file

import (
	"encoding/json"
	"sort"
)

// List is the ordered collection bound to multiple-file columns. Every
// element that leaves the collection through any mutation is appended to a
// removed side-list, in removal order, so the lifecycle coordinator knows
// which blobs to garbage-collect after commit. The side-list is read at each
// write boundary and never cleared by the collection itself.
//
// Mutations invoke the change callback (when set) so the owning mapper can
// mark the attribute dirty. A List is bound to one transaction's flush cycle
// and is not safe for concurrent use.
type List struct {
	items    []*File
	removed  []*File
	onChange func()
}

// NewList builds a collection over the given descriptors.
func NewList(items ...*File) *List {
	l := &List{items: make([]*File, len(items))}
	copy(l.items, items)
	return l
}

// SetOnChange installs the dirty-tracking callback invoked after every
// mutation.
func (l *List) SetOnChange(fn func()) { l.onChange = fn }

func (l *List) changed() {
	if l.onChange != nil {
		l.onChange()
	}
}

// Len returns the number of elements.
func (l *List) Len() int { return len(l.items) }

// At returns the element at index i.
func (l *List) At(i int) *File { return l.items[i] }

// Items returns a copy of the current sequence.
func (l *List) Items() []*File {
	out := make([]*File, len(l.items))
	copy(out, l.items)
	return out
}

// Removed returns the descriptors removed by any mutation, in removal order.
func (l *List) Removed() []*File {
	out := make([]*File, len(l.removed))
	copy(out, l.removed)
	return out
}

// Append adds elements at the end.
func (l *List) Append(files ...*File) {
	l.items = append(l.items, files...)
	l.changed()
}

// Extend adds all elements of items at the end.
func (l *List) Extend(items []*File) {
	l.items = append(l.items, items...)
	l.changed()
}

// Insert places f at index i, shifting later elements right.
func (l *List) Insert(i int, f *File) {
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = f
	l.changed()
}

// SetAt replaces the element at index i; the replaced element is recorded as
// removed.
func (l *List) SetAt(i int, f *File) {
	l.removed = append(l.removed, l.items[i])
	l.items[i] = f
	l.changed()
}

// SetRange replaces the elements in [i, j) with repl; every replaced element
// is recorded as removed.
func (l *List) SetRange(i, j int, repl []*File) {
	l.removed = append(l.removed, l.items[i:j]...)
	rest := append([]*File{}, l.items[j:]...)
	l.items = append(l.items[:i], repl...)
	l.items = append(l.items, rest...)
	l.changed()
}

// DeleteAt removes the element at index i and records it as removed.
func (l *List) DeleteAt(i int) {
	l.removed = append(l.removed, l.items[i])
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.changed()
}

// DeleteRange removes the elements in [i, j) and records them as removed.
func (l *List) DeleteRange(i, j int) {
	l.removed = append(l.removed, l.items[i:j]...)
	l.items = append(l.items[:i], l.items[j:]...)
	l.changed()
}

// Pop removes and returns the last element, recording it as removed.
func (l *List) Pop() *File {
	return l.PopAt(len(l.items) - 1)
}

// PopAt removes and returns the element at index i, recording it as removed.
func (l *List) PopAt(i int) *File {
	f := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.removed = append(l.removed, f)
	l.changed()
	return f
}

// Remove deletes the first element equal to f, recording it as removed.
// Reports whether an element was found.
func (l *List) Remove(f *File) bool {
	for i, item := range l.items {
		if item == f {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.removed = append(l.removed, f)
			l.changed()
			return true
		}
	}
	return false
}

// Clear removes every element, recording all of them as removed in order.
func (l *List) Clear() {
	l.removed = append(l.removed, l.items...)
	l.items = l.items[:0]
	l.changed()
}

// Sort reorders the elements in place. Nothing is removed.
func (l *List) Sort(less func(a, b *File) bool) {
	sort.SliceStable(l.items, func(i, j int) bool { return less(l.items[i], l.items[j]) })
	l.changed()
}

// Reverse reverses the element order in place. Nothing is removed.
func (l *List) Reverse() {
	for i, j := 0, len(l.items)-1; i < j; i, j = i+1, j-1 {
		l.items[i], l.items[j] = l.items[j], l.items[i]
	}
	l.changed()
}

// Encode returns the JSON-serializable form of every element.
func (l *List) Encode() []map[string]any {
	out := make([]map[string]any, len(l.items))
	for i, f := range l.items {
		out[i] = f.Encode()
	}
	return out
}

// MarshalJSON implements json.Marshaler over the encoded form.
func (l *List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Encode())
}
