package timeline

import (
	"cmp"
	"slices"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 32

// BPlusTree is an ordered map with linked leaves for range scans.
type BPlusTree[K cmp.Ordered, V any] struct {
	root   *node[K, V]
	order  int
	height int
	size   int
	mutex  sync.RWMutex
}

// node is either a leaf holding values or an internal node holding children.
type node[K cmp.Ordered, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // internal nodes only
	values   []V           // leaves only
	parent   *node[K, V]
	next     *node[K, V] // leaf link
}

// NewBPlusTree creates a tree with the given order.
// If the specified order < 3, DefaultOrder is used.
func NewBPlusTree[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root:   &node[K, V]{isLeaf: true},
		order:  order,
		height: 1,
	}
}

// Height returns the number of levels in the tree.
func (tree *BPlusTree[K, V]) Height() int {
	tree.mutex.RLock()
	defer tree.mutex.RUnlock()
	return tree.height
}

// Len returns the number of keys in the tree.
func (tree *BPlusTree[K, V]) Len() int {
	tree.mutex.RLock()
	defer tree.mutex.RUnlock()
	return tree.size
}

// childIndex picks the child to follow for key in an internal node.
func childIndex[K cmp.Ordered](keys []K, key K) int {
	i, found := slices.BinarySearch(keys, key)
	if found {
		return i + 1
	}
	return i
}

func (tree *BPlusTree[K, V]) leafFor(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[childIndex(current.keys, key)]
	}
	return current
}

// Search returns the value stored under key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.mutex.RLock()
	defer tree.mutex.RUnlock()

	leaf := tree.leafFor(key)
	if i, found := slices.BinarySearch(leaf.keys, key); found {
		return leaf.values[i], true
	}
	var zero V
	return zero, false
}

// Insert stores value under key, replacing any previous value.
func (tree *BPlusTree[K, V]) Insert(key K, value V) {
	tree.Upsert(key, func(V, bool) V { return value })
}

// Upsert stores fn(old, exists) under key.
func (tree *BPlusTree[K, V]) Upsert(key K, fn func(old V, exists bool) V) {
	tree.mutex.Lock()
	defer tree.mutex.Unlock()

	leaf := tree.leafFor(key)
	i, found := slices.BinarySearch(leaf.keys, key)
	if found {
		leaf.values[i] = fn(leaf.values[i], true)
		return
	}

	var zero V
	leaf.keys = slices.Insert(leaf.keys, i, key)
	leaf.values = slices.Insert(leaf.values, i, fn(zero, false))
	tree.size++

	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
}

// Range calls fn for every key in [from, to] in ascending order until fn
// returns false.
func (tree *BPlusTree[K, V]) Range(from, to K, fn func(key K, value V) bool) {
	tree.mutex.RLock()
	defer tree.mutex.RUnlock()

	if to < from {
		return
	}

	leaf := tree.leafFor(from)
	i, _ := slices.BinarySearch(leaf.keys, from)
	for leaf != nil {
		for ; i < len(leaf.keys); i++ {
			if leaf.keys[i] > to {
				return
			}
			if !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
		leaf, i = leaf.next, 0
	}
}

// splitLeaf moves the upper half of an overflowing leaf into a new sibling.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	sibling := &node[K, V]{
		isLeaf: true,
		keys:   slices.Clone(leaf.keys[mid:]),
		values: slices.Clone(leaf.values[mid:]),
		next:   leaf.next,
		parent: leaf.parent,
	}
	leaf.keys = slices.Clip(leaf.keys[:mid])
	leaf.values = slices.Clip(leaf.values[:mid])
	leaf.next = sibling

	tree.insertIntoParent(leaf, sibling.keys[0], sibling)
}

// insertIntoParent links right after left under separator key, growing a
// new root when left has no parent.
func (tree *BPlusTree[K, V]) insertIntoParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		root := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = root
		right.parent = root
		tree.root = root
		tree.height++
		return
	}

	i := childIndex(parent.keys, key)
	parent.keys = slices.Insert(parent.keys, i, key)
	parent.children = slices.Insert(parent.children, i+1, right)
	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternal(parent)
	}
}

// splitInternal splits an overflowing internal node and pushes its middle
// key up.
func (tree *BPlusTree[K, V]) splitInternal(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	separator := internal.keys[mid]

	sibling := &node[K, V]{
		keys:     slices.Clone(internal.keys[mid+1:]),
		children: slices.Clone(internal.children[mid+1:]),
		parent:   internal.parent,
	}
	for _, child := range sibling.children {
		child.parent = sibling
	}
	internal.keys = slices.Clip(internal.keys[:mid])
	internal.children = slices.Clip(internal.children[:mid+1])

	tree.insertIntoParent(internal, separator, sibling)
}
