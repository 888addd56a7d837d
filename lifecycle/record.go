package lifecycle

// History reports how one attribute of a record changed since it was loaded:
// Added holds the values assigned to it, Deleted the values they replaced.
type History struct {
	Added   []any
	Deleted []any
}

// Record is the data-mapper's view of one entity instance. The coordinator
// reads and writes attachment attributes through it and inspects attribute
// history to find replaced values. History must remain observable until
// AfterUpdate has run for the record.
type Record interface {
	// Mapping names the registered mapping this record belongs to.
	Mapping() string

	// Get returns the current value of an attribute, nil when unset.
	Get(key string) any

	// Set replaces the current value of an attribute.
	Set(key string, value any)

	// History reports the pending changes of an attribute.
	History(key string) History
}
