// Package continuity chains the steps of a fallible setup sequence:
// each step runs only if every step before it succeeded, and the first
// failure is wrapped with the name of the step it happened at. pakdb
// uses it for the artifact-open sequence, where four reads/decodes must
// happen in order and any failure voids the rest.
package continuity

import (
	"errors"
	"fmt"
)

// Chain tracks the first failure of a named multi-step sequence.
type Chain struct {
	err error
}

// New starts an empty chain.
func New() *Chain { return new(Chain) }

// Thenf runs f unless an earlier step already failed, labeling any error
// f returns with the step's name.
func (c *Chain) Thenf(name string, f func() error) *Chain {
	if c.err != nil {
		return c
	}
	if err := f(); err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
	}
	return c
}

// Then records errors already produced by a step, unless an earlier step
// failed. Multiple non-nil errors are joined.
func (c *Chain) Then(name string, errs ...error) *Chain {
	if c.err != nil {
		return c
	}
	if err := errors.Join(errs...); err != nil {
		c.err = fmt.Errorf("%s: %w", name, err)
	}
	return c
}

// Err returns the first failure, or nil if every step succeeded so far.
func (c *Chain) Err() error { return c.err }
