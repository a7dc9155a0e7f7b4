// Package group implements pakdb's item-grouping combinators: turning a
// pointer set produced by the query algebra into one or more typed
// result sequences.
//
// Go generics give a single implementation for the single-type case and
// a family of functions for small tuple arities (1..4 here; the pattern
// is entirely mechanical for higher arities). A language with true
// variadic generics would collapse this family into one function; Go
// does not have them.
package group

import "github.com/rpcpool/pakdb/pointer"

// Reader is the narrow slice of pakdb's typed item read that grouping needs: decode
// the bytes at ptr into a T, or report that ptr isn't a T. Errors
// (including type mismatch) are swallowed into "not present" here:
// grouping returns the decodable subset rather than failing the whole
// result.
type Reader[T any] func(ptr pointer.Pointer) (T, bool)

// PointerSet is any set of pointers a query produced; group only needs
// to range over it.
type PointerSet interface {
	~map[pointer.Key]pointer.Pointer
}

// Collect decodes every pointer in ps whose type tag matches typeName
// into a T via read, silently skipping pointers read reports as absent.
// Ordering of the returned slice is unspecified.
func Collect[S PointerSet, T any](ps S, typeName string, read Reader[T]) []T {
	out := make([]T, 0, len(ps))
	for _, ptr := range ps {
		if !ptr.Matches(typeName) {
			continue
		}
		if v, ok := read(ptr); ok {
			out = append(out, v)
		}
	}
	return out
}

// Collect1 is Collect under the name the tuple family uses: a
// sequence of T with non-T pointers filtered out silently.
func Collect1[S PointerSet, T any](ps S, typeName string, read Reader[T]) []T {
	return Collect[S, T](ps, typeName, read)
}

// Collect2 is 2-ary tuple grouping: filters ps by type-compatibility with
// each of A and B independently and returns one sequence per type.
func Collect2[S PointerSet, A, B any](
	ps S,
	typeNameA string, readA Reader[A],
	typeNameB string, readB Reader[B],
) ([]A, []B) {
	return Collect[S, A](ps, typeNameA, readA), Collect[S, B](ps, typeNameB, readB)
}

// Collect3 is 3-ary tuple grouping.
func Collect3[S PointerSet, A, B, C any](
	ps S,
	typeNameA string, readA Reader[A],
	typeNameB string, readB Reader[B],
	typeNameC string, readC Reader[C],
) ([]A, []B, []C) {
	return Collect[S, A](ps, typeNameA, readA),
		Collect[S, B](ps, typeNameB, readB),
		Collect[S, C](ps, typeNameC, readC)
}

// Collect4 is 4-ary tuple grouping.
func Collect4[S PointerSet, A, B, C, D any](
	ps S,
	typeNameA string, readA Reader[A],
	typeNameB string, readB Reader[B],
	typeNameC string, readC Reader[C],
	typeNameD string, readD Reader[D],
) ([]A, []B, []C, []D) {
	return Collect[S, A](ps, typeNameA, readA),
		Collect[S, B](ps, typeNameB, readB),
		Collect[S, C](ps, typeNameC, readC),
		Collect[S, D](ps, typeNameD, readD)
}
