package trie

// Trie is a set of domain names that answers whether a name, or one of its
// parents, is in the set. zonecheck keeps the delegation points of a zone in
// it to find names below a zone cut.
//
// Children of names in the set are not kept: after inserting "sub.example.com"
// inserting "ns.sub.example.com" has no effect, and inserting "example.com"
// drops everything below it. All terminals are leafs.
type Trie struct {
	split SplitFunc
	root  node
}

type node struct {
	children map[string]*node
	terminal bool
}

// NewTrie creates an empty set that walks names with split
func NewTrie(split SplitFunc) *Trie {
	return &Trie{split: split}
}

// IsEmpty returns true if nothing was inserted
func (t *Trie) IsEmpty() bool {
	return len(t.root.children) == 0
}

// Insert adds key to the set
func (t *Trie) Insert(key string) {
	if len(key) == 0 {
		return
	}

	n := &t.root

	for len(key) > 0 {
		if n.terminal {
			// a parent is already in the set
			return
		}

		label, rest := t.split(key)

		child, ok := n.children[label]
		if !ok {
			if n.children == nil {
				n.children = make(map[string]*node, 1)
			}

			child = &node{}
			n.children[label] = child
		}

		n = child
		key = rest
	}

	n.terminal = true
	n.children = nil
}

// HasParentOf returns true if key or one of its parents is in the set
func (t *Trie) HasParentOf(key string) bool {
	n := &t.root

	for len(key) > 0 {
		label, rest := t.split(key)

		child, ok := n.children[label]
		if !ok {
			return false
		}

		if child.terminal {
			return true
		}

		n = child
		key = rest
	}

	return false
}
