package pakdb

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/rpcpool/pakdb/btree"
	"github.com/rpcpool/pakdb/codec"
	"github.com/rpcpool/pakdb/pakmeta"
	"github.com/rpcpool/pakdb/pointer"
	"github.com/rpcpool/pakdb/source"
	"github.com/rpcpool/pakdb/value"
)

// Builder accumulates encoded items and their index associations, builds
// one B-tree per index key, and emits a finished artifact. A Builder is
// single-use: once BuildFile/BuildInMemory runs, its vault and tree
// builders are consumed.
type Builder struct {
	meta       pakmeta.Meta
	vault      []byte
	trees      map[string]*btree.Builder
	fanoutLog2 uint
}

// NewBuilder returns an empty Builder with the default tree fan-out
// (k=6, 64 entries per page).
func NewBuilder() *Builder {
	return &Builder{
		trees:      make(map[string]*btree.Builder),
		fanoutLog2: btree.DefaultFanoutLog2,
	}
}

// WithFanoutLog2 overrides the tree fan-out exponent (k) used for every
// index built by this Builder. Must be called before any Pak/PakNoSearch
// call.
func (b *Builder) WithFanoutLog2(k uint) *Builder {
	b.fanoutLog2 = k
	return b
}

// SetName sets the artifact's descriptive name.
func (b *Builder) SetName(name string) *Builder { b.meta.Name = name; return b }

// SetVersion sets the artifact's descriptive version string.
func (b *Builder) SetVersion(version string) *Builder { b.meta.Version = version; return b }

// SetDescription sets the artifact's free-form description.
func (b *Builder) SetDescription(description string) *Builder {
	b.meta.Description = description
	return b
}

// SetAuthor sets the artifact's author string.
func (b *Builder) SetAuthor(author string) *Builder { b.meta.Author = author; return b }

// SetAttr records a producer-settable attribute in the artifact's Meta.
// Keys may repeat; consumers see them in insertion order.
func (b *Builder) SetAttr(key string, val []byte) *Builder {
	b.meta.Attrs.Add(key, val)
	return b
}

// SetInstanceID stamps the artifact with an instance id so consumers can
// tell two rebuilds of the same dataset apart.
func (b *Builder) SetInstanceID(id uuid.UUID) *Builder {
	b.meta.Attrs.AddUUID(pakmeta.AttrInstanceID, id)
	return b
}

// Len returns the number of bytes written to the vault so far (items
// plus, once Build has run, tree pages). Useful before Build as a rough
// progress signal.
func (b *Builder) Len() int { return len(b.vault) }

// Size reports the builder's current vault size in a human-readable
// form, handy for CLI progress output.
func (b *Builder) Size() string { return humanizeBytes(uint64(len(b.vault))) }

// Append implements btree.VaultAppender: it appends data to the shared
// vault buffer and returns an untyped pointer to it. Item pointers and
// tree-page pointers share one flat address space.
func (b *Builder) Append(data []byte) pointer.Pointer {
	off := uint64(len(b.vault))
	b.vault = append(b.vault, data...)
	return pointer.Untyped(off, uint64(len(data)))
}

func (b *Builder) appendTyped(data []byte, typeName string) pointer.Pointer {
	return b.Append(data).WithType(typeName)
}

func (b *Builder) tree(key string) *btree.Builder {
	t, ok := b.trees[key]
	if !ok {
		t = btree.NewBuilder(b.fanoutLog2)
		b.trees[key] = t
	}
	return t
}

func (b *Builder) insertIndex(key string, v value.Value, ptr pointer.Pointer) {
	b.tree(key).Insert(v, ptr)
}

// PakNoSearch encodes item via c, appends it to the vault, and returns
// its pointer. It does not consult item for indices, so queries will
// never find it.
func PakNoSearch[T any](b *Builder, c codec.Codec[T], item T) (pointer.Pointer, error) {
	data, err := c.Encode(item)
	if err != nil {
		return pointer.Pointer{}, newError(KindDecode, "pak_no_search", err)
	}
	return b.appendTyped(data, TypeNameOf[T]()), nil
}

// Pak encodes item via c, appends it to the vault, and additionally
// records every (key, value) pair item.SearchIndices() returns against
// the item's pointer.
func Pak[T Searchable](b *Builder, c codec.Codec[T], item T) (pointer.Pointer, error) {
	ptr, err := PakNoSearch[T](b, c, item)
	if err != nil {
		return ptr, err
	}
	for _, e := range item.SearchIndices() {
		b.insertIndex(e.Key, e.Value, ptr)
	}
	return ptr, nil
}

// parts holds the four encoded regions of an artifact in file order.
type parts struct {
	sizing  []byte
	meta    []byte
	indices []byte
	vault   []byte
}

func (p parts) total() int {
	return len(p.sizing) + len(p.meta) + len(p.indices) + len(p.vault)
}

// buildParts persists every index tree into the shared vault, then
// encodes the four regions of the artifact: Sizing, Meta, IndicesDir,
// Vault.
func (b *Builder) buildParts() parts {
	indices := make(pakmeta.Indices, len(b.trees))
	for key, t := range b.trees {
		indices[key] = t.Persist(b)
		slog.Debug("pakdb: persisted index tree", "key", key, "pages", t.Len())
	}

	metaBlob := b.meta.Encode()
	indicesBlob := indices.Encode()
	vaultBlob := frameVault(b.vault)

	sizing := pakmeta.Sizing{
		MetaSize:    uint64(len(metaBlob)),
		IndicesSize: uint64(len(indicesBlob)),
		VaultSize:   uint64(len(vaultBlob)),
	}
	return parts{
		sizing:  sizing.Encode(),
		meta:    metaBlob,
		indices: indicesBlob,
		vault:   vaultBlob,
	}
}

// build assembles the final artifact as one contiguous byte slice.
func (b *Builder) build() []byte {
	p := b.buildParts()
	out := make([]byte, 0, p.total())
	out = append(out, p.sizing...)
	out = append(out, p.meta...)
	out = append(out, p.indices...)
	out = append(out, p.vault...)
	return out
}

// frameVault wraps raw with the 8-byte little-endian length prefix the
// codec convention requires for a byte blob; Reader.open accounts for
// it when computing the vault start.
func frameVault(raw []byte) []byte {
	out := make([]byte, 8+len(raw))
	for i := 0; i < 8; i++ {
		out[i] = byte(uint64(len(raw)) >> (8 * i))
	}
	copy(out[8:], raw)
	return out
}

// BuildFile assembles the artifact and writes it to path region by
// region, preallocating the full size up front, then returns a Reader
// opened over that file.
func (b *Builder) BuildFile(path string) (*Reader, error) {
	p := b.buildParts()
	if err := writeParts(path, p); err != nil {
		return nil, newError(KindIO, "build_file", err)
	}
	slog.Debug("pakdb: artifact written", "path", path, "size", humanizeBytes(uint64(p.total())))
	src, err := source.OpenFile(path)
	if err != nil {
		return nil, newError(KindIO, "build_file", err)
	}
	return open(src)
}

func writeParts(path string, p parts) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := fallocate(f, 0, int64(p.total())); err != nil {
		return fmt.Errorf("preallocate %s: %w", path, err)
	}
	for _, region := range [][]byte{p.sizing, p.meta, p.indices, p.vault} {
		if _, err := f.Write(region); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// BuildInMemory assembles the artifact and returns a Reader over an
// in-memory copy of it.
func (b *Builder) BuildInMemory() (*Reader, error) {
	return open(source.NewMemorySource(b.build()))
}
