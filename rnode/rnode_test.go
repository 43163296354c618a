// Copyright 2024 The nope-gpu Authors. All rights reserved.

package rnode_test

import (
	"testing"

	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/rnode"
)

func TestAddChildInheritsStateByValue(t *testing.T) {
	var tree rnode.Tree
	root := tree.AddRoot(rnode.State{Layout: gpu.RendertargetLayout{Samples: 4}})

	child := tree.AddChild(root)
	got := tree.State(child)
	if got.Layout.Samples != 4 {
		t.Fatalf("child did not inherit parent layout: got %+v", got.Layout)
	}

	st := got
	st.Layout.Samples = 1
	tree.SetState(child, st)

	if tree.State(root).Layout.Samples != 4 {
		t.Fatal("mutating child state affected parent")
	}
	if tree.State(child).Layout.Samples != 1 {
		t.Fatal("SetState did not persist the override")
	}
}

func TestWalkVisitsParentsBeforeChildren(t *testing.T) {
	var tree rnode.Tree
	root := tree.AddRoot(rnode.State{})
	a := tree.AddChild(root)
	tree.AddChild(a)
	tree.AddChild(root)

	var order []rnode.Node
	seen := map[rnode.Node]bool{}
	tree.Walk(func(n rnode.Node) bool {
		if p := tree.Parent(n); p != rnode.Nil && !seen[p] {
			t.Fatalf("node %d visited before its parent %d", n, p)
		}
		seen[n] = true
		order = append(order, n)
		return true
	})
	if len(order) != 4 {
		t.Fatalf("Walk visited %d nodes, want 4", len(order))
	}
}

func TestMultipleRootsHaveNoParent(t *testing.T) {
	var tree rnode.Tree
	r1 := tree.AddRoot(rnode.State{})
	r2 := tree.AddRoot(rnode.State{})
	if tree.Parent(r1) != rnode.Nil {
		t.Fatalf("Parent(r1) = %d, want Nil", tree.Parent(r1))
	}
	if tree.Parent(r2) != rnode.Nil {
		t.Fatalf("Parent(r2) = %d, want Nil", tree.Parent(r2))
	}
	var n int
	tree.Walk(func(rnode.Node) bool { n++; return true })
	if n != 2 {
		t.Fatalf("Walk visited %d nodes, want 2", n)
	}
}

func TestResetReclaimsArena(t *testing.T) {
	var tree rnode.Tree
	root := tree.AddRoot(rnode.State{})
	tree.AddChild(root)
	tree.AddChild(root)
	if tree.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tree.Len())
	}

	tree.Reset()
	if tree.Len() != 0 {
		t.Fatalf("Len() after Reset = %d, want 0", tree.Len())
	}

	newRoot := tree.AddRoot(rnode.State{Layout: gpu.RendertargetLayout{Samples: 2}})
	if tree.State(newRoot).Layout.Samples != 2 {
		t.Fatal("state from before Reset leaked into reused slot")
	}
}
