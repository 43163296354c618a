// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package ring implements the small fixed-size rotation used
// for the context's in-flight frame slots (spec §4.1 "Frame
// slots").
package ring

import "golang.org/x/exp/constraints"

// Ring is a fixed-size rotation over n >= 1 indices.
type Ring[T constraints.Integer] struct {
	cur T
	n   T
}

// New returns a Ring that rotates over [0, n).
func New[T constraints.Integer](n T) Ring[T] {
	if n < 1 {
		n = 1
	}
	return Ring[T]{n: n}
}

// Cur returns the current index.
func (r Ring[T]) Cur() T { return r.cur }

// Next advances the ring and returns the new current index.
func (r *Ring[T]) Next() T {
	r.cur = (r.cur + 1) % r.n
	return r.cur
}

// Len returns the number of slots in the ring.
func (r Ring[T]) Len() T { return r.n }
