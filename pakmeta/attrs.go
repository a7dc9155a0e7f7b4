package pakmeta

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/rpcpool/pakdb/binfmt"
)

// Well-known attribute keys.
const (
	// AttrInstanceID holds a 16-byte UUID identifying one build of one
	// artifact, so consumers can tell two rebuilds of the same dataset
	// apart.
	AttrInstanceID = "instance_id"
)

// Attr is one producer-settable key/value pair carried in the Meta
// record alongside the four fixed descriptive fields.
type Attr struct {
	Key   string
	Value []byte
}

// Attrs is an ordered list of attributes. Keys may repeat; lookups
// return the first match in insertion order.
type Attrs struct {
	KeyVals []Attr
}

func cloneBytes(b []byte) []byte {
	return append([]byte(nil), b...)
}

// Add appends a key-value pair. The value is copied.
func (a *Attrs) Add(key string, value []byte) {
	a.KeyVals = append(a.KeyVals, Attr{Key: key, Value: cloneBytes(value)})
}

// AddString appends a string-valued attribute.
func (a *Attrs) AddString(key string, value string) {
	a.Add(key, []byte(value))
}

// AddUint64 appends a little-endian uint64-valued attribute.
func (a *Attrs) AddUint64(key string, value uint64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, value)
	a.Add(key, buf)
}

// AddUUID appends a 16-byte UUID-valued attribute.
func (a *Attrs) AddUUID(key string, value uuid.UUID) {
	a.Add(key, value[:])
}

// Get returns the first value for the given key.
func (a Attrs) Get(key string) ([]byte, bool) {
	for _, kv := range a.KeyVals {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// GetString returns the first value for the given key as a string.
func (a Attrs) GetString(key string) (string, bool) {
	value, ok := a.Get(key)
	if !ok {
		return "", false
	}
	return string(value), true
}

// GetUint64 returns the first value for the given key as a uint64. ok is
// false if the key is absent or the value is not 8 bytes.
func (a Attrs) GetUint64(key string) (uint64, bool) {
	value, ok := a.Get(key)
	if !ok || len(value) != 8 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(value), true
}

// GetUUID returns the first value for the given key as a UUID. ok is
// false if the key is absent or the value is not 16 bytes.
func (a Attrs) GetUUID(key string) (uuid.UUID, bool) {
	value, ok := a.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromBytes(value)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetAll returns every value recorded for the given key.
func (a Attrs) GetAll(key string) [][]byte {
	var values [][]byte
	for _, kv := range a.KeyVals {
		if kv.Key == key {
			values = append(values, kv.Value)
		}
	}
	return values
}

// Count returns the number of values recorded for the given key.
func (a Attrs) Count(key string) int {
	var count int
	for _, kv := range a.KeyVals {
		if kv.Key == key {
			count++
		}
	}
	return count
}

// Len returns the total number of key-value pairs.
func (a Attrs) Len() int { return len(a.KeyVals) }

func (a Attrs) encode(w *binfmt.Writer) {
	w.U32(uint32(len(a.KeyVals)))
	for _, kv := range a.KeyVals {
		w.String(kv.Key)
		w.RawBytes(kv.Value)
	}
}

func decodeAttrs(r *binfmt.Reader) (Attrs, error) {
	count, err := r.U32()
	if err != nil {
		return Attrs{}, err
	}
	var out Attrs
	for i := uint32(0); i < count; i++ {
		key, err := r.String()
		if err != nil {
			return Attrs{}, err
		}
		value, err := r.RawBytes()
		if err != nil {
			return Attrs{}, err
		}
		out.KeyVals = append(out.KeyVals, Attr{Key: key, Value: value})
	}
	return out, nil
}
