// Package btree implements pakdb's persistent B-tree index: a paginated
// ordered map from value.Value to a set of pointer.Pointer, built
// in-memory by Builder and read back page-by-page by Reader without
// requiring the whole tree to be resident.
package btree

import (
	"errors"
	"fmt"

	"github.com/rpcpool/pakdb/binfmt"
	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/value"
)

// ErrCorrupt indicates a structural invariant of the persisted tree was
// violated: a page index absent from its TreeMeta, or a TreeMeta that
// does not decode. Failed page reads are reported with their own error.
var ErrCorrupt = errors.New("btree: corrupt tree")

// noChild marks the absence of a child/next page in Entry.Previous and
// page.next.
const noChild = int64(-1)

// Entry is one (key, pointer-list, optional-left-child) triple held by
// a page.
type Entry struct {
	Key      value.Value
	Values   []pointer.Pointer
	Previous int64 // page index of the subtree for keys < Key, or noChild
}

// page is one node of the persisted tree: a sorted run of entries plus a
// terminal child for keys greater than the last entry.
type page struct {
	entries []Entry
	next    int64 // page index for keys > all entries, or noChild
}

// TreeMeta is the persisted mapping from build-time page indices to
// concrete vault locations.
type TreeMeta struct {
	Pages map[int64]pointer.Pointer
}

func encodeEntry(w *binfmt.Writer, e Entry) {
	e.Key.Encode(w)
	w.U32(uint32(len(e.Values)))
	for _, p := range e.Values {
		p.Encode(w)
	}
	w.I64(e.Previous)
}

func decodeEntry(r *binfmt.Reader) (Entry, error) {
	key, err := value.Decode(r)
	if err != nil {
		return Entry{}, fmt.Errorf("btree: decode entry key: %w", err)
	}
	n, err := r.U32()
	if err != nil {
		return Entry{}, fmt.Errorf("btree: decode entry value count: %w", err)
	}
	values := make([]pointer.Pointer, n)
	for i := range values {
		p, err := pointer.Decode(r)
		if err != nil {
			return Entry{}, fmt.Errorf("btree: decode entry pointer %d: %w", i, err)
		}
		values[i] = p
	}
	previous, err := r.I64()
	if err != nil {
		return Entry{}, fmt.Errorf("btree: decode entry previous: %w", err)
	}
	return Entry{Key: key, Values: values, Previous: previous}, nil
}

func encodePage(pg page) []byte {
	w := binfmt.NewWriter()
	w.U32(uint32(len(pg.entries)))
	for _, e := range pg.entries {
		encodeEntry(w, e)
	}
	w.I64(pg.next)
	return w.Bytes()
}

func decodePage(buf []byte) (page, error) {
	r := binfmt.NewReader(buf)
	n, err := r.U32()
	if err != nil {
		return page{}, fmt.Errorf("btree: decode page entry count: %w", err)
	}
	entries := make([]Entry, n)
	for i := range entries {
		e, err := decodeEntry(r)
		if err != nil {
			return page{}, err
		}
		entries[i] = e
	}
	next, err := r.I64()
	if err != nil {
		return page{}, fmt.Errorf("btree: decode page next: %w", err)
	}
	return page{entries: entries, next: next}, nil
}

func encodeTreeMeta(m TreeMeta) []byte {
	w := binfmt.NewWriter()
	w.U32(uint32(len(m.Pages)))
	for idx, ptr := range m.Pages {
		w.I64(idx)
		ptr.Encode(w)
	}
	return w.Bytes()
}

func decodeTreeMeta(buf []byte) (TreeMeta, error) {
	r := binfmt.NewReader(buf)
	n, err := r.U32()
	if err != nil {
		return TreeMeta{}, fmt.Errorf("btree: decode tree meta count: %w", err)
	}
	pages := make(map[int64]pointer.Pointer, n)
	for i := uint32(0); i < n; i++ {
		idx, err := r.I64()
		if err != nil {
			return TreeMeta{}, fmt.Errorf("btree: decode tree meta index: %w", err)
		}
		ptr, err := pointer.Decode(r)
		if err != nil {
			return TreeMeta{}, fmt.Errorf("btree: decode tree meta pointer: %w", err)
		}
		pages[idx] = ptr
	}
	return TreeMeta{Pages: pages}, nil
}

func addAll(out map[pointer.Key]pointer.Pointer, values []pointer.Pointer) {
	for _, p := range values {
		out[p.Key()] = p
	}
}
