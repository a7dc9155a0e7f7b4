package pakdb

import (
	"reflect"

	"github.com/rpcpool/pakdb/value"
)

// IndexEntry is one (key, value) association an item contributes to the
// indices built over it.
type IndexEntry struct {
	Key   string
	Value value.Value
}

// Searchable is implemented by items that want to be discoverable
// through a query: SearchIndices returns every (field-name, value) pair
// the item should be indexed under. The list may be empty; keys may
// repeat — every association is recorded.
type Searchable interface {
	SearchIndices() []IndexEntry
}

// TypeNameOf returns the canonical, per-artifact-stable type name used
// for Pointer type tags and type-match checks. It is derived from Go's
// own reflection naming, which is stable within one build of one
// binary, the only property the core relies on.
func TypeNameOf[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		// T is an interface type instantiated with a nil value; fall
		// back to the static type parameter's own name.
		return reflect.TypeOf(&zero).Elem().String()
	}
	return t.String()
}
