// Package pakdb ties together the container layout, B-tree index, query
// algebra, and item grouping into the embeddable indexed object store
// described by the rest of this module's packages.
package pakdb

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"

	"github.com/rpcpool/pakdb/btree"
	"github.com/rpcpool/pakdb/codec"
	"github.com/rpcpool/pakdb/continuity"
	"github.com/rpcpool/pakdb/group"
	"github.com/rpcpool/pakdb/pakmeta"
	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/query"
	"github.com/rpcpool/pakdb/source"
)

// Reader opens a finished artifact and answers queries against it. It
// eagerly reads Sizing and Meta at open time; the indices directory is
// read fresh on every query rather than cached, since nothing beyond
// Sizing/Meta is meant to survive between operations.
type Reader struct {
	src        source.Source
	vaultStart int64
	sizing     pakmeta.Sizing
	meta       pakmeta.Meta
}

// Open opens an artifact from a file path.
func Open(path string) (*Reader, error) {
	src, err := source.OpenFile(path)
	if err != nil {
		return nil, newError(KindIO, "open", err)
	}
	return open(src)
}

// OpenInMemory opens an artifact already resident in memory.
func OpenInMemory(data []byte) (*Reader, error) {
	return open(source.NewMemorySource(data))
}

// open reads Sizing and Meta off src, chaining the fallible steps
// with continuity so the first failure short-circuits the rest.
func open(src source.Source) (*Reader, error) {
	var sizingBuf [pakmeta.SizingLen]byte
	var sizing pakmeta.Sizing
	var metaBuf []byte
	var meta pakmeta.Meta

	chain := continuity.New().
		Thenf("read sizing", func() error {
			n, err := src.ReadAt(sizingBuf[:], 0)
			if n < len(sizingBuf) {
				return shortRead(err)
			}
			return nil
		}).
		Thenf("decode sizing", func() error {
			s, err := pakmeta.DecodeSizing(sizingBuf[:])
			if err != nil {
				return err
			}
			sizing = s
			return nil
		}).
		Thenf("read meta", func() error {
			metaBuf = make([]byte, sizing.MetaSize)
			n, err := src.ReadAt(metaBuf, pakmeta.SizingLen)
			if n < len(metaBuf) {
				return shortRead(err)
			}
			return nil
		}).
		Thenf("decode meta", func() error {
			m, err := pakmeta.DecodeMeta(metaBuf)
			if err != nil {
				return err
			}
			meta = m
			return nil
		})
	if err := chain.Err(); err != nil {
		return nil, newError(KindCorruption, "open", err)
	}

	vaultStart := int64(pakmeta.SizingLen) + int64(sizing.MetaSize) + int64(sizing.IndicesSize) + 8
	return &Reader{src: src, vaultStart: vaultStart, sizing: sizing, meta: meta}, nil
}

// shortRead normalizes the error for a ReadAt that returned fewer bytes
// than requested; ReadAt may legally return err == nil alongside a short
// count only when n == len(p), so a nil here still means truncation.
func shortRead(err error) error {
	if err != nil {
		return err
	}
	return io.ErrUnexpectedEOF
}

// Close releases the Reader's underlying Source, if it holds releasable
// resources such as a file descriptor.
func (r *Reader) Close() error {
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Name returns the artifact's descriptive name.
func (r *Reader) Name() string { return r.meta.Name }

// Version returns the artifact's descriptive version string.
func (r *Reader) Version() string { return r.meta.Version }

// Description returns the artifact's free-form description.
func (r *Reader) Description() string { return r.meta.Description }

// Author returns the artifact's author string.
func (r *Reader) Author() string { return r.meta.Author }

// Attrs returns the producer-settable attribute bag carried in Meta.
func (r *Reader) Attrs() pakmeta.Attrs { return r.meta.Attrs }

// InstanceID returns the artifact's instance id, if the producer stamped
// one (Builder.SetInstanceID).
func (r *Reader) InstanceID() (uuid.UUID, bool) {
	return r.meta.Attrs.GetUUID(pakmeta.AttrInstanceID)
}

// Size returns the total artifact size in bytes: sizing header, meta,
// indices directory, and the framed vault.
func (r *Reader) Size() uint64 {
	return uint64(pakmeta.SizingLen) + r.sizing.MetaSize + r.sizing.IndicesSize + r.sizing.VaultSize
}

func (r *Reader) loadIndices() (pakmeta.Indices, error) {
	buf := make([]byte, r.sizing.IndicesSize)
	off := int64(pakmeta.SizingLen) + int64(r.sizing.MetaSize)
	n, err := r.src.ReadAt(buf, off)
	if n < len(buf) {
		return nil, newError(KindIO, "load_indices", err)
	}
	idx, err := pakmeta.DecodeIndices(buf)
	if err != nil {
		return nil, newError(KindCorruption, "load_indices", err)
	}
	return idx, nil
}

// Index implements query.IndexLookup: it reloads the indices directory
// and opens the B-tree registered under key, or returns (nil, nil) if
// key was never indexed.
func (r *Reader) Index(key string) (*btree.Reader, error) {
	idx, err := r.loadIndices()
	if err != nil {
		return nil, err
	}
	ptr, ok := idx[key]
	if !ok {
		return nil, nil
	}
	tree, err := btree.Open(r.src, r.vaultStart, ptr)
	if err != nil {
		return nil, newError(KindCorruption, "open_index", err)
	}
	return tree, nil
}

// Keys returns the sorted list of index keys registered in the
// artifact's indices directory.
func (r *Reader) Keys() ([]string, error) {
	idx, err := r.loadIndices()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(idx))
	for key := range idx {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// QueryPointers evaluates expr and returns the matching pointers without
// decoding the items behind them, sorted by vault offset. Inspection
// tooling uses this when it has no knowledge of the item types.
func (r *Reader) QueryPointers(expr query.Expr) ([]pointer.Pointer, error) {
	ps, err := r.exec(expr)
	if err != nil {
		return nil, err
	}
	out := make([]pointer.Pointer, 0, len(ps))
	for _, ptr := range ps {
		out = append(out, ptr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out, nil
}

func (r *Reader) exec(expr query.Expr) (btree.PointerSet, error) {
	ps, err := query.Exec(expr, r)
	if err != nil {
		var pakErr *Error
		if errors.As(err, &pakErr) {
			return nil, err
		}
		if errors.Is(err, query.ErrIndexMissing) {
			return nil, newError(KindIndexMissing, "query", err)
		}
		return nil, newError(KindCorruption, "query", err)
	}
	return ps, nil
}

// readErr validates ptr against typeName, reads its bytes, and decodes
// them with c, surfacing every failure mode.
func readErr[T any](r *Reader, ptr pointer.Pointer, typeName string, c codec.Codec[T]) (T, error) {
	var zero T
	if !ptr.Matches(typeName) {
		return zero, newError(KindTypeMismatch, "read", fmt.Errorf("pointer tagged %q read as %q", ptr.TypeName(), typeName))
	}
	buf := make([]byte, ptr.Size)
	n, err := r.src.ReadAt(buf, r.vaultStart+int64(ptr.Offset))
	if n < len(buf) {
		return zero, newError(KindIO, "read", err)
	}
	item, err := c.Decode(buf)
	if err != nil {
		return zero, newError(KindDecode, "read", err)
	}
	return item, nil
}

// readSwallow is readErr with errors swallowed into "not present",
// used internally by grouping.
func readSwallow[T any](r *Reader, ptr pointer.Pointer, typeName string, c codec.Codec[T]) (T, bool) {
	v, err := readErr[T](r, ptr, typeName, c)
	return v, err == nil
}

// Query evaluates expr and decodes every matching pointer of type T via
// c, silently skipping pointers of other types.
func Query[T any](r *Reader, expr query.Expr, c codec.Codec[T]) ([]T, error) {
	ps, err := r.exec(expr)
	if err != nil {
		return nil, err
	}
	typeName := TypeNameOf[T]()
	return group.Collect1(ps, typeName, group.Reader[T](func(ptr pointer.Pointer) (T, bool) {
		return readSwallow[T](r, ptr, typeName, c)
	})), nil
}

// Query2 evaluates expr once and decodes the matching pointer set into
// two typed sequences, one per requested type.
func Query2[A, B any](r *Reader, expr query.Expr, cA codec.Codec[A], cB codec.Codec[B]) ([]A, []B, error) {
	ps, err := r.exec(expr)
	if err != nil {
		return nil, nil, err
	}
	typeNameA, typeNameB := TypeNameOf[A](), TypeNameOf[B]()
	a, b := group.Collect2(ps,
		typeNameA, group.Reader[A](func(ptr pointer.Pointer) (A, bool) { return readSwallow[A](r, ptr, typeNameA, cA) }),
		typeNameB, group.Reader[B](func(ptr pointer.Pointer) (B, bool) { return readSwallow[B](r, ptr, typeNameB, cB) }),
	)
	return a, b, nil
}

// Query3 is Query2 for three result types.
func Query3[A, B, C any](r *Reader, expr query.Expr, cA codec.Codec[A], cB codec.Codec[B], cC codec.Codec[C]) ([]A, []B, []C, error) {
	ps, err := r.exec(expr)
	if err != nil {
		return nil, nil, nil, err
	}
	typeNameA, typeNameB, typeNameC := TypeNameOf[A](), TypeNameOf[B](), TypeNameOf[C]()
	a, b, c := group.Collect3(ps,
		typeNameA, group.Reader[A](func(ptr pointer.Pointer) (A, bool) { return readSwallow[A](r, ptr, typeNameA, cA) }),
		typeNameB, group.Reader[B](func(ptr pointer.Pointer) (B, bool) { return readSwallow[B](r, ptr, typeNameB, cB) }),
		typeNameC, group.Reader[C](func(ptr pointer.Pointer) (C, bool) { return readSwallow[C](r, ptr, typeNameC, cC) }),
	)
	return a, b, c, nil
}

// Query4 is Query2 for four result types.
func Query4[A, B, C, D any](r *Reader, expr query.Expr, cA codec.Codec[A], cB codec.Codec[B], cC codec.Codec[C], cD codec.Codec[D]) ([]A, []B, []C, []D, error) {
	ps, err := r.exec(expr)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	typeNameA, typeNameB, typeNameC, typeNameD := TypeNameOf[A](), TypeNameOf[B](), TypeNameOf[C](), TypeNameOf[D]()
	a, b, c, d := group.Collect4(ps,
		typeNameA, group.Reader[A](func(ptr pointer.Pointer) (A, bool) { return readSwallow[A](r, ptr, typeNameA, cA) }),
		typeNameB, group.Reader[B](func(ptr pointer.Pointer) (B, bool) { return readSwallow[B](r, ptr, typeNameB, cB) }),
		typeNameC, group.Reader[C](func(ptr pointer.Pointer) (C, bool) { return readSwallow[C](r, ptr, typeNameC, cC) }),
		typeNameD, group.Reader[D](func(ptr pointer.Pointer) (D, bool) { return readSwallow[D](r, ptr, typeNameD, cD) }),
	)
	return a, b, c, d, nil
}

