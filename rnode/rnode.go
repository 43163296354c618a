// Copyright 2024 The nope-gpu Authors. All rights reserved.

// Package rnode implements the lightweight inheritance tree that
// the render-pass driver rebuilds on every prepare pass (spec.md
// §3/§4.8): each node inherits its parent's graphics state and
// rendertarget layout by value, and may locally override either
// before a pipeline is built from it.
package rnode

import (
	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/internal/bitm"
)

// Node identifies a node within a Tree. The zero Node is Nil.
//
// Nodes are handles into an arena rather than pointers: the arena
// grows by reallocating its backing slice (doubling, as in
// node.Graph.Insert), which would invalidate any *Node taken before
// a growth. A stable integer handle sidesteps that entirely.
type Node int

// Nil is the invalid Node value.
const Nil Node = 0

// State is the per-node graphics state a render node inherits from
// its parent and may locally override: the fixed-function pipeline
// state and the rendertarget layout it must be compatible with.
type State struct {
	Fixed  gpu.FixedFuncState
	Layout gpu.RendertargetLayout
}

// entry is the arena slot backing a Node.
type entry struct {
	parent Node
	next   Node // next sibling
	sub    Node // first child
	state  State
}

// Tree is an inheritance tree of State values. The zero value is an
// empty, usable Tree.
type Tree struct {
	entries []entry
	inuse   bitm.Bitm[uint32]
	roots   Node
}

// AddRoot adds an unconnected node holding st and returns its
// handle.
func (t *Tree) AddRoot(st State) Node {
	n := t.alloc()
	e := &t.entries[n-1]
	e.state = st
	e.parent = Nil
	e.next = t.roots
	t.roots = n
	return n
}

// AddChild allocates a new node as a child of parent, copying
// parent's State by value. The caller mutates the returned node's
// state (via SetState) before using it to build a pipeline; the
// parent's own state is unaffected.
func (t *Tree) AddChild(parent Node) Node {
	st := t.entries[parent-1].state
	n := t.alloc()
	e := &t.entries[n-1]
	e.state = st
	e.parent = parent
	pe := &t.entries[parent-1]
	e.next = pe.sub
	pe.sub = n
	return n
}

// alloc reserves a fresh arena slot, growing the backing storage
// (doubling, mirroring node.Graph.Insert) when none is free.
func (t *Tree) alloc() Node {
	if t.inuse.Rem() == 0 {
		switch x := t.inuse.Len(); {
		case x > 0:
			cnt := 1 + (x-31)/32
			t.entries = append(t.entries, make([]entry, x)...)
			t.inuse.Grow(cnt)
		default:
			t.entries = append(t.entries, make([]entry, 32)...)
			t.inuse.Grow(1)
		}
	}
	idx, ok := t.inuse.Search()
	if !ok {
		panic("rnode: bitm.Bitm.Search failed after Grow")
	}
	t.inuse.Set(idx)
	t.entries[idx] = entry{}
	return Node(idx + 1)
}

// State returns a copy of n's current state.
func (t *Tree) State(n Node) State { return t.entries[n-1].state }

// SetState overwrites n's state.
func (t *Tree) SetState(n Node, st State) { t.entries[n-1].state = st }

// Parent returns n's parent, or Nil if n is a root.
func (t *Tree) Parent(n Node) Node { return t.entries[n-1].parent }

// Walk calls f for every node in the tree, parents before children,
// siblings in the order they were added. If f returns false, Walk
// stops descending into that node's children (but continues with
// its siblings).
func (t *Tree) Walk(f func(n Node) bool) {
	var visit func(n Node) bool
	visit = func(n Node) bool {
		// Sibling lists are built by prepending, so walk each one
		// back to front to visit siblings in insertion order.
		var sibs []Node
		for ; n != Nil; n = t.entries[n-1].next {
			sibs = append(sibs, n)
		}
		for i := len(sibs) - 1; i >= 0; i-- {
			n := sibs[i]
			if f(n) {
				if sub := t.entries[n-1].sub; sub != Nil {
					visit(sub)
				}
			}
		}
		return true
	}
	visit(t.roots)
}

// Len returns the number of nodes currently in the tree.
func (t *Tree) Len() int { return t.inuse.Len() - t.inuse.Rem() }

// Reset discards every node, keeping the arena's backing storage so
// the next prepare pass's allocations don't need to grow it again.
func (t *Tree) Reset() {
	t.inuse.Clear()
	t.roots = Nil
}
