// Package query implements pakdb's query algebra: five leaf predicates
// over a named B-tree index plus Union/Intersection combinators,
// evaluated left-to-right with no short-circuit.
package query

import (
	"errors"
	"fmt"

	"github.com/rpcpool/pakdb/btree"
	"github.com/rpcpool/pakdb/value"
)

// ErrIndexMissing is returned when a leaf predicate names an index key
// that was never registered in the artifact's indices directory.
var ErrIndexMissing = errors.New("query: index missing")

// IndexLookup resolves an index key (the indexed field's stable
// identifier) to the B-tree registered under it.
type IndexLookup interface {
	Index(key string) (*btree.Reader, error)
}

// Expr is a node of the query algebra: a leaf predicate or a
// Union/Intersection combinator over two sub-expressions. Go has no
// closed sum types, so the variant tree is an interface with a single
// unexported evaluation method; every concrete Expr lives in this
// file.
type Expr interface {
	eval(idx IndexLookup) (btree.PointerSet, error)
}

type op uint8

const (
	opEqual op = iota
	opLessThan
	opLessThanOrEqual
	opGreaterThan
	opGreaterThanOrEqual
)

type leaf struct {
	key string
	v   value.Value
	op  op
}

// Equal matches entries where the field named key equals v.
func Equal(key string, v value.Value) Expr { return leaf{key: key, v: v, op: opEqual} }

// LessThan matches entries where the field named key is strictly less than v.
func LessThan(key string, v value.Value) Expr { return leaf{key: key, v: v, op: opLessThan} }

// LessThanOrEqual matches entries where the field named key is less than
// or equal to v.
func LessThanOrEqual(key string, v value.Value) Expr {
	return leaf{key: key, v: v, op: opLessThanOrEqual}
}

// GreaterThan matches entries where the field named key is strictly
// greater than v.
func GreaterThan(key string, v value.Value) Expr {
	return leaf{key: key, v: v, op: opGreaterThan}
}

// GreaterThanOrEqual matches entries where the field named key is
// greater than or equal to v.
func GreaterThanOrEqual(key string, v value.Value) Expr {
	return leaf{key: key, v: v, op: opGreaterThanOrEqual}
}

func (l leaf) eval(idx IndexLookup) (btree.PointerSet, error) {
	tree, err := idx.Index(l.key)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, fmt.Errorf("%w: %q", ErrIndexMissing, l.key)
	}
	switch l.op {
	case opEqual:
		return tree.Equal(l.v)
	case opLessThan:
		return tree.Less(l.v, true)
	case opLessThanOrEqual:
		return tree.Less(l.v, false)
	case opGreaterThan:
		return tree.Greater(l.v, true)
	case opGreaterThanOrEqual:
		return tree.Greater(l.v, false)
	default:
		return nil, fmt.Errorf("query: unknown op %d", l.op)
	}
}

type combinator struct {
	a, b  Expr
	union bool
}

// Union returns an Expr matching the set-union of a and b's results.
func Union(a, b Expr) Expr { return combinator{a: a, b: b, union: true} }

// Intersection returns an Expr matching the set-intersection of a and
// b's results.
func Intersection(a, b Expr) Expr { return combinator{a: a, b: b, union: false} }

func (c combinator) eval(idx IndexLookup) (btree.PointerSet, error) {
	// Both sides are always evaluated, left-to-right, with no
	// short-circuit.
	left, err := c.a.eval(idx)
	if err != nil {
		return nil, err
	}
	right, err := c.b.eval(idx)
	if err != nil {
		return nil, err
	}
	if c.union {
		return unionSets(left, right), nil
	}
	return intersectSets(left, right), nil
}

// Exec evaluates expr against idx and returns the materialized result
// set.
func Exec(expr Expr, idx IndexLookup) (btree.PointerSet, error) {
	return expr.eval(idx)
}

func unionSets(a, b btree.PointerSet) btree.PointerSet {
	out := make(btree.PointerSet, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func intersectSets(a, b btree.PointerSet) btree.PointerSet {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	out := make(btree.PointerSet, len(small))
	for k, v := range small {
		if _, ok := large[k]; ok {
			out[k] = v
		}
	}
	return out
}
