package pakdb

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcpool/pakdb/codec"
	"github.com/rpcpool/pakdb/query"
	"github.com/rpcpool/pakdb/value"
)

type Person struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
}

func (p Person) SearchIndices() []IndexEntry {
	return []IndexEntry{
		{Key: "first_name", Value: value.String(p.FirstName)},
		{Key: "last_name", Value: value.String(p.LastName)},
		{Key: "age", Value: value.Int(int64(p.Age))},
	}
}

type Pet struct {
	Name  string `json:"name"`
	Age   int    `json:"age"`
	Owner string `json:"owner"`
	Kind  string `json:"kind"`
}

func (p Pet) SearchIndices() []IndexEntry {
	return []IndexEntry{
		{Key: "name", Value: value.String(p.Name)},
		{Key: "age", Value: value.Int(int64(p.Age))},
		{Key: "kind", Value: value.String(p.Kind)},
	}
}

func buildPeopleAndPets(t *testing.T) *Reader {
	t.Helper()
	b := NewBuilder().SetName("people").SetVersion("1.0")
	personCodec := codec.NewJSON[Person]()
	petCodec := codec.NewJSON[Pet]()

	people := []Person{
		{"John", "Doe", 30},
		{"Jane", "Doe", 25},
		{"Alice", "Smith", 28},
		{"Bob", "Johnson", 35},
		{"Charlie", "Brown", 40},
		{"John", "Jacob", 45},
	}
	for _, p := range people {
		_, err := Pak[Person](b, personCodec, p)
		require.NoError(t, err)
	}

	pets := []Pet{
		{"Fido", 5, "P1", "Dog"},
		{"Whiskers", 3, "P2", "Cat"},
		{"Bella", 7, "P1", "Dog"},
	}
	for _, p := range pets {
		_, err := Pak[Pet](b, petCodec, p)
		require.NoError(t, err)
	}

	r, err := b.BuildInMemory()
	require.NoError(t, err)
	return r
}

func TestQueryEqualFirstName(t *testing.T) {
	r := buildPeopleAndPets(t)
	got, err := Query[Person](r, query.Equal("first_name", value.String("John")), codec.NewJSON[Person]())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestQuery2LessOrEqualAge(t *testing.T) {
	r := buildPeopleAndPets(t)
	people, pets, err := Query2[Person, Pet](r,
		query.LessThanOrEqual("age", value.Int(26)),
		codec.NewJSON[Person](), codec.NewJSON[Pet](),
	)
	require.NoError(t, err)
	assert.Len(t, people, 1)
	assert.Len(t, pets, 3)
}

func TestQuery2GreaterThanAge(t *testing.T) {
	r := buildPeopleAndPets(t)
	people, pets, err := Query2[Person, Pet](r,
		query.GreaterThan("age", value.Int(26)),
		codec.NewJSON[Person](), codec.NewJSON[Pet](),
	)
	require.NoError(t, err)
	assert.Len(t, people, 5)
	assert.Len(t, pets, 0)
}

func TestQuery2GreaterOrEqualAge(t *testing.T) {
	r := buildPeopleAndPets(t)
	people, pets, err := Query2[Person, Pet](r,
		query.GreaterThanOrEqual("age", value.Int(25)),
		codec.NewJSON[Person](), codec.NewJSON[Pet](),
	)
	require.NoError(t, err)
	assert.Len(t, people, 6)
	assert.Len(t, pets, 0)
}

func TestQuery2UnionLessThanOrEqualName(t *testing.T) {
	r := buildPeopleAndPets(t)
	people, pets, err := Query2[Person, Pet](r,
		query.Union(
			query.LessThan("age", value.Int(30)),
			query.Equal("first_name", value.String("John")),
		),
		codec.NewJSON[Person](), codec.NewJSON[Pet](),
	)
	require.NoError(t, err)
	assert.Len(t, people, 4)
	assert.Len(t, pets, 3)
}

func TestQuery2IntersectionAgeAndName(t *testing.T) {
	r := buildPeopleAndPets(t)
	people, pets, err := Query2[Person, Pet](r,
		query.Intersection(
			query.GreaterThan("age", value.Int(25)),
			query.Equal("first_name", value.String("John")),
		),
		codec.NewJSON[Person](), codec.NewJSON[Pet](),
	)
	require.NoError(t, err)
	assert.Len(t, people, 2)
	assert.Len(t, pets, 0)
}

func TestQueryIndexMissing(t *testing.T) {
	r := buildPeopleAndPets(t)
	_, err := Query[Person](r, query.Equal("nonexistent_field", value.Int(1)), codec.NewJSON[Person]())
	require.Error(t, err)
	var pakErr *Error
	require.True(t, errors.As(err, &pakErr))
	assert.Equal(t, KindIndexMissing, pakErr.Kind)
}

func TestEmptyBuilderQueryIndexMissing(t *testing.T) {
	b := NewBuilder()
	r, err := b.BuildInMemory()
	require.NoError(t, err)
	_, err = Query[Person](r, query.Equal("age", value.Int(1)), codec.NewJSON[Person]())
	require.Error(t, err)
	var pakErr *Error
	require.True(t, errors.As(err, &pakErr))
	assert.Equal(t, KindIndexMissing, pakErr.Kind)
}

func TestSingleItemBuilder(t *testing.T) {
	b := NewBuilder()
	_, err := Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "Solo", LastName: "Act", Age: 99})
	require.NoError(t, err)
	r, err := b.BuildInMemory()
	require.NoError(t, err)

	got, err := Query[Person](r, query.Equal("first_name", value.String("Solo")), codec.NewJSON[Person]())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Act", got[0].LastName)
}

func TestDuplicateKeysMergeAcrossItems(t *testing.T) {
	b := NewBuilder()
	_, err := Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "John", LastName: "A", Age: 30})
	require.NoError(t, err)
	_, err = Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "John", LastName: "B", Age: 30})
	require.NoError(t, err)
	r, err := b.BuildInMemory()
	require.NoError(t, err)

	got, err := Query[Person](r, query.Equal("age", value.Int(30)), codec.NewJSON[Person]())
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBuildFileRoundTrip(t *testing.T) {
	b := NewBuilder().SetName("roundtrip")
	_, err := Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "File", LastName: "Reader", Age: 50})
	require.NoError(t, err)

	path := t.TempDir() + "/artifact.pak"
	r, err := b.BuildFile(path)
	require.NoError(t, err)
	assert.Equal(t, "roundtrip", r.Name())

	reopened, err := Open(path)
	require.NoError(t, err)
	got, err := Query[Person](reopened, query.Equal("first_name", value.String("File")), codec.NewJSON[Person]())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 50, got[0].Age)
}

func TestTypeMismatchSkippedSilentlyInGrouping(t *testing.T) {
	r := buildPeopleAndPets(t)
	// "age" is shared between Person and Pet; requesting only Person
	// results for an age-based predicate must silently drop Pet
	// pointers rather than erroring.
	got, err := Query[Person](r, query.LessThanOrEqual("age", value.Int(26)), codec.NewJSON[Person]())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMetaAttrsAndInstanceID(t *testing.T) {
	id := uuid.MustParse("1b671a64-40d5-491e-99b0-da01ff1f3341")
	b := NewBuilder().
		SetName("attrs").
		SetInstanceID(id).
		SetAttr("created_by", []byte("test suite"))
	_, err := Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "A", LastName: "B", Age: 1})
	require.NoError(t, err)

	r, err := b.BuildInMemory()
	require.NoError(t, err)

	gotID, ok := r.InstanceID()
	require.True(t, ok)
	assert.Equal(t, id, gotID)

	createdBy, ok := r.Attrs().GetString("created_by")
	require.True(t, ok)
	assert.Equal(t, "test suite", createdBy)
}

func TestReaderKeys(t *testing.T) {
	r := buildPeopleAndPets(t)
	keys, err := r.Keys()
	require.NoError(t, err)
	// Person contributes first_name/last_name/age, Pet adds name/kind and
	// shares age.
	assert.Equal(t, []string{"age", "first_name", "kind", "last_name", "name"}, keys)
}

func TestQueryPointers(t *testing.T) {
	r := buildPeopleAndPets(t)
	ptrs, err := r.QueryPointers(query.Equal("first_name", value.String("John")))
	require.NoError(t, err)
	require.Len(t, ptrs, 2)
	for i, ptr := range ptrs {
		assert.True(t, ptr.IsTyped())
		if i > 0 {
			assert.Less(t, ptrs[i-1].Offset, ptr.Offset)
		}
	}
}

func TestReaderClose(t *testing.T) {
	b := NewBuilder()
	_, err := Pak[Person](b, codec.NewJSON[Person](), Person{FirstName: "C", LastName: "D", Age: 2})
	require.NoError(t, err)

	path := t.TempDir() + "/artifact.pak"
	r, err := b.BuildFile(path)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
