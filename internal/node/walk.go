package node

// WalkStatus tells Walk how to proceed after visiting a node.
type WalkStatus int

const (
	// WalkContinue descends into the node's children.
	WalkContinue WalkStatus = iota
	// WalkSkipChildren moves on to the next sibling.
	WalkSkipChildren
	// WalkStop ends the traversal.
	WalkStop
)

// Visitor is called for every node in pre-order along with its parent (nil
// for the root).
type Visitor func(n *Node, parent *Node) WalkStatus

// Walk traverses root depth-first in document order. It reports whether the
// traversal ran to completion.
func Walk(root *Node, visit Visitor) bool {
	if root == nil {
		return true
	}
	return walk(root, nil, visit)
}

func walk(n, parent *Node, visit Visitor) bool {
	switch visit(n, parent) {
	case WalkStop:
		return false
	case WalkSkipChildren:
		return true
	}
	for _, child := range n.Content {
		if child == nil {
			continue
		}
		if !walk(child, n, visit) {
			return false
		}
	}
	return true
}

// Transform rewrites a copy of root. fn is applied to every node of the copy
// in pre-order and may mutate it in place.
func Transform(root *Node, fn func(n *Node)) *Node {
	out := root.Clone()
	Walk(out, func(n *Node, _ *Node) WalkStatus {
		fn(n)
		return WalkContinue
	})
	return out
}
