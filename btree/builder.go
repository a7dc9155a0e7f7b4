package btree

import (
	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/value"
)

// DefaultFanoutLog2 is the default page fan-out exponent (k=6 -> 64
// entries per page).
const DefaultFanoutLog2 = 6

// Builder accumulates (key, pointer) associations in memory and produces
// a dense vector of pages addressed by build-time integer index; page 0
// is always the root. The tree is read-only once persisted.
type Builder struct {
	pages []page
	max   int
}

// NewBuilder creates a Builder whose pages hold at most 2^fanoutLog2
// entries before splitting.
func NewBuilder(fanoutLog2 uint) *Builder {
	return &Builder{
		pages: []page{{next: noChild}},
		max:   1 << fanoutLog2,
	}
}

// Insert associates key with ptr. If key is already present, ptr is
// appended to the existing entry's pointer list: duplicate keys merge
// rather than duplicating entries.
func (b *Builder) Insert(key value.Value, ptr pointer.Pointer) {
	b.insertFrom(0, nil, Entry{Key: key, Values: []pointer.Pointer{ptr}, Previous: noChild})
}

// insertFrom descends from page cur following Previous/next links
// until e's slot is found; trail records the ancestors so a split can
// cascade upward.
func (b *Builder) insertFrom(cur int64, trail []int64, e Entry) {
pageLoop:
	for {
		pg := &b.pages[cur]
		for i := range pg.entries {
			entry := &pg.entries[i]
			switch {
			case entry.Key.Less(e.Key):
				continue
			case e.Key.Less(entry.Key):
				if entry.Previous != noChild {
					trail = append(trail, cur)
					cur = entry.Previous
					continue pageLoop
				}
				b.insertAt(cur, i, e)
				b.splitIfNeeded(cur, trail)
				return
			default:
				entry.Values = append(entry.Values, e.Values...)
				return
			}
		}
		if pg.next != noChild {
			trail = append(trail, cur)
			cur = pg.next
			continue pageLoop
		}
		b.pages[cur].entries = append(b.pages[cur].entries, e)
		b.splitIfNeeded(cur, trail)
		return
	}
}

func (b *Builder) insertAt(pageIdx int64, i int, e Entry) {
	pg := &b.pages[pageIdx]
	pg.entries = append(pg.entries, Entry{})
	copy(pg.entries[i+1:], pg.entries[i:])
	pg.entries[i] = e
}

func (b *Builder) splitIfNeeded(pageIdx int64, trail []int64) {
	if len(b.pages[pageIdx].entries) > b.max {
		b.split(pageIdx, trail)
	}
}

// split relieves an over-full page: half its entries move to a new
// leading page L, half stay as the trailing run, and the single
// remaining median entry is reinserted through the normal insert path
// starting at the parent page, which may carry it back down into a
// child page (or, if cur was the root, it is promoted into a freshly
// grown root).
func (b *Builder) split(cur int64, trail []int64) {
	half := b.max / 2
	entries := b.pages[cur].entries
	oldNext := b.pages[cur].next

	leading := append([]Entry(nil), entries[:half]...)
	median := entries[half]
	trailing := append([]Entry(nil), entries[half+1:]...)

	lIdx := int64(len(b.pages))
	b.pages = append(b.pages, page{entries: leading, next: median.Previous})
	median.Previous = lIdx

	if len(trail) == 0 {
		// cur is the root (page 0): grow the tree by one level. The old
		// contents become two children — L (already appended) and a new
		// trailing page — and the root shrinks to the single median.
		tIdx := int64(len(b.pages))
		b.pages = append(b.pages, page{entries: trailing, next: oldNext})
		b.pages[cur] = page{entries: []Entry{median}, next: tIdx}
		return
	}

	b.pages[cur] = page{entries: trailing, next: oldNext}
	parent := trail[len(trail)-1]
	b.insertFrom(parent, trail[:len(trail)-1], median)
}

// VaultAppender appends opaque bytes to the artifact's vault and returns
// the untyped pointer at which they now live. Builder.Persist uses it to
// write each page and the final TreeMeta.
type VaultAppender interface {
	Append(data []byte) pointer.Pointer
}

// Persist writes every page of the tree to the vault via va, followed by
// the TreeMeta that maps build-time page indices to vault pointers, and
// returns the pointer to that TreeMeta.
func (b *Builder) Persist(va VaultAppender) pointer.Pointer {
	meta := TreeMeta{Pages: make(map[int64]pointer.Pointer, len(b.pages))}
	for i, pg := range b.pages {
		meta.Pages[int64(i)] = va.Append(encodePage(pg))
	}
	return va.Append(encodeTreeMeta(meta))
}

// Len returns the number of persisted pages, mostly useful for tests
// asserting on tree shape.
func (b *Builder) Len() int { return len(b.pages) }
