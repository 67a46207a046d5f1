// Package kdtree implements the lock-free k-d tree of spec §4.6: CAS-based
// insert, a find-min-based delete, and a bounded-heap k-NN search. Child
// pointers are installed with atomic.Pointer.CompareAndSwap so concurrent
// inserts into disjoint subtrees never block each other.
package kdtree

import (
	"sync/atomic"

	"github.com/dreamware/ahnlich-go/internal/types"
)

type node struct {
	point types.StoreKey
	left  atomic.Pointer[node]
	right atomic.Pointer[node]
}

// Tree is a concurrent k-d tree over points of a fixed dimension.
type Tree struct {
	dimension int
	root      atomic.Pointer[node]
	// writeMu serializes delete (which restructures existing nodes) against
	// other deletes; concurrent inserts only ever CAS a single null child
	// slot and need no external lock. See spec §5.
	writeMu chan struct{}
}

// New creates an empty tree for points of the given dimension.
func New(dimension int) *Tree {
	t := &Tree{dimension: dimension, writeMu: make(chan struct{}, 1)}
	t.writeMu <- struct{}{}
	return t
}

func (t *Tree) lock()   { <-t.writeMu }
func (t *Tree) unlock() { t.writeMu <- struct{}{} }

func equalPoints(a, b types.StoreKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Insert adds point to the tree. A point equal to an existing one is a
// no-op (duplicates are never inserted). Safe for concurrent use.
func (t *Tree) Insert(point types.StoreKey) {
	newLeaf := &node{point: point}
	for {
		parent := (*node)(nil)
		var parentSlot *atomic.Pointer[node]
		cur := &t.root
		depth := 0
		for {
			curNode := cur.Load()
			if curNode == nil {
				break
			}
			if equalPoints(curNode.point, point) {
				return // duplicate: stop without inserting
			}
			axis := depth % t.dimension
			parent = curNode
			if point[axis] < curNode.point[axis] {
				parentSlot = &curNode.left
			} else {
				parentSlot = &curNode.right
			}
			cur = parentSlot
			depth++
		}
		if parent == nil {
			if t.root.CompareAndSwap(nil, newLeaf) {
				return
			}
			continue // lost the race for the root slot, re-descend
		}
		if parentSlot.CompareAndSwap(nil, newLeaf) {
			return
		}
		// lost the race for this child slot; re-descend from the top
	}
}

// Delete removes point if present, returning it and true. Delete serializes
// against other deletes (it may restructure existing nodes, per spec §5),
// but never blocks concurrent inserts into unrelated subtrees.
func (t *Tree) Delete(point types.StoreKey) (types.StoreKey, bool) {
	t.lock()
	defer t.unlock()

	deleted, newSubtree, ok := t.deleteFrom(t.root.Load(), point, 0)
	if !ok {
		return nil, false
	}
	t.root.Store(newSubtree)
	return deleted, true
}

// deleteFrom returns the deleted point, the replacement subtree root, and
// whether point was found under n.
func (t *Tree) deleteFrom(n *node, point types.StoreKey, depth int) (types.StoreKey, *node, bool) {
	if n == nil {
		return nil, nil, false
	}
	axis := depth % t.dimension

	if equalPoints(n.point, point) {
		deleted := n.point
		switch {
		case n.right.Load() != nil:
			minNode := findMin(n.right.Load(), axis, t.dimension, depth+1)
			n.point = minNode.point
			_, newRight, _ := t.deleteFrom(n.right.Load(), minNode.point, depth+1)
			n.right.Store(newRight)
			return deleted, n, true
		case n.left.Load() != nil:
			// Only the left child is present: splice it into this slot.
			return deleted, n.left.Load(), true
		default:
			return deleted, nil, true
		}
	}

	if point[axis] < n.point[axis] {
		deleted, newLeft, ok := t.deleteFrom(n.left.Load(), point, depth+1)
		if ok {
			n.left.Store(newLeft)
		}
		return deleted, n, ok
	}
	deleted, newRight, ok := t.deleteFrom(n.right.Load(), point, depth+1)
	if ok {
		n.right.Store(newRight)
	}
	return deleted, n, ok
}

// findMin returns the node with the minimum coordinate along splitAxis in
// the subtree rooted at n, descending by n's own per-depth axis.
func findMin(n *node, splitAxis, dimension, depth int) *node {
	return findMinRec(n, splitAxis, dimension, depth)
}

func findMinRec(n *node, splitAxis, dimension, depth int) *node {
	if n == nil {
		return nil
	}
	axis := depth % dimension
	if axis == splitAxis {
		if n.left.Load() == nil {
			return n
		}
		return findMinRec(n.left.Load(), splitAxis, dimension, depth+1)
	}
	left := findMinRec(n.left.Load(), splitAxis, dimension, depth+1)
	right := findMinRec(n.right.Load(), splitAxis, dimension, depth+1)
	best := n
	if left != nil && left.point[splitAxis] < best.point[splitAxis] {
		best = left
	}
	if right != nil && right.point[splitAxis] < best.point[splitAxis] {
		best = right
	}
	return best
}
