package btree

import (
	"fmt"
	"io"

	"github.com/valyala/bytebufferpool"

	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/value"
)

// Reader answers queries against a persisted tree without loading it
// wholesale: pages are decoded on demand as the descent visits them;
// no page cache is needed for correctness.
type Reader struct {
	src        io.ReaderAt
	vaultStart int64
	meta       TreeMeta
}

// Open loads the TreeMeta referenced by metaPtr (a pointer into the
// vault, relative to vaultStart) and returns a Reader for its tree.
func Open(src io.ReaderAt, vaultStart int64, metaPtr pointer.Pointer) (*Reader, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	bb.B = append(bb.B[:0], make([]byte, metaPtr.Size)...)
	if _, err := readFullAt(src, bb.B, vaultStart+int64(metaPtr.Offset)); err != nil {
		return nil, fmt.Errorf("btree: read tree meta: %w", err)
	}
	meta, err := decodeTreeMeta(bb.B)
	if err != nil {
		return nil, fmt.Errorf("btree: %w: %w", ErrCorrupt, err)
	}
	return &Reader{src: src, vaultStart: vaultStart, meta: meta}, nil
}

func readFullAt(src io.ReaderAt, buf []byte, off int64) (int, error) {
	n, err := src.ReadAt(buf, off)
	if n == len(buf) {
		return n, nil
	}
	return n, err
}

// loadPage reads and decodes page idx. The read buffer is pooled since
// decodePage copies out everything it keeps.
func (r *Reader) loadPage(idx int64) (page, error) {
	ptr, ok := r.meta.Pages[idx]
	if !ok {
		return page{}, fmt.Errorf("btree: page %d not in tree meta: %w", idx, ErrCorrupt)
	}
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	bb.B = append(bb.B[:0], make([]byte, ptr.Size)...)
	if _, err := readFullAt(r.src, bb.B, r.vaultStart+int64(ptr.Offset)); err != nil {
		return page{}, fmt.Errorf("btree: read page %d: %w", idx, err)
	}
	return decodePage(bb.B)
}

// PointerSet is the result of a tree traversal: the deduplicated set of
// TypedPointers whose key satisfies the query.
type PointerSet map[pointer.Key]pointer.Pointer

// Equal returns every pointer associated with key v.
func (r *Reader) Equal(v value.Value) (PointerSet, error) {
	out := make(PointerSet)
	return out, r.walkEqual(0, v, out)
}

func (r *Reader) walkEqual(idx int64, v value.Value, out PointerSet) error {
	pg, err := r.loadPage(idx)
	if err != nil {
		return err
	}
	for i := range pg.entries {
		e := &pg.entries[i]
		switch {
		case e.Key.Less(v):
			continue
		case v.Less(e.Key):
			if e.Previous != noChild {
				return r.walkEqual(e.Previous, v, out)
			}
			return nil
		default:
			addAll(out, e.Values)
			return nil
		}
	}
	if pg.next != noChild {
		return r.walkEqual(pg.next, v, out)
	}
	return nil
}

// Less returns every pointer whose key is less than v (strict=true) or
// less-than-or-equal to v (strict=false).
func (r *Reader) Less(v value.Value, strict bool) (PointerSet, error) {
	out := make(PointerSet)
	return out, r.walkLess(0, v, strict, out)
}

// walkLess collects the complete set of pointers whose key satisfies
// the Less(v)/LessOrEqual(v) predicate. Within one page, entries are
// visited in ascending order; once an entry's key is >= v, every
// entry/child to its right is also >= v and can be skipped.
func (r *Reader) walkLess(idx int64, v value.Value, strict bool, out PointerSet) error {
	pg, err := r.loadPage(idx)
	if err != nil {
		return err
	}
	for i := range pg.entries {
		e := &pg.entries[i]
		switch {
		case e.Key.Less(v):
			addAll(out, e.Values)
			if e.Previous != noChild {
				if err := r.walkLess(e.Previous, v, strict, out); err != nil {
					return err
				}
			}
		case v.Less(e.Key):
			if e.Previous != noChild {
				return r.walkLess(e.Previous, v, strict, out)
			}
			return nil
		default:
			if e.Previous != noChild {
				if err := r.walkLess(e.Previous, v, strict, out); err != nil {
					return err
				}
			}
			if !strict {
				addAll(out, e.Values)
			}
			return nil
		}
	}
	if pg.next != noChild {
		return r.walkLess(pg.next, v, strict, out)
	}
	return nil
}

// Greater returns every pointer whose key is greater than v
// (strict=true) or greater-than-or-equal to v (strict=false).
func (r *Reader) Greater(v value.Value, strict bool) (PointerSet, error) {
	out := make(PointerSet)
	return out, r.walkGreater(0, v, strict, out)
}

func (r *Reader) walkGreater(idx int64, v value.Value, strict bool, out PointerSet) error {
	pg, err := r.loadPage(idx)
	if err != nil {
		return err
	}
	for i := range pg.entries {
		e := &pg.entries[i]
		switch {
		case e.Key.Less(v):
			continue
		case v.Less(e.Key):
			if e.Previous != noChild {
				if err := r.walkGreater(e.Previous, v, strict, out); err != nil {
					return err
				}
			}
			addAll(out, e.Values)
		default:
			if !strict {
				addAll(out, e.Values)
			}
		}
	}
	if pg.next != noChild {
		return r.walkGreater(pg.next, v, strict, out)
	}
	return nil
}
