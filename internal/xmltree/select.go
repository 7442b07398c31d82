package xmltree

import "strings"

// Selector reports whether a node matches.
type Selector func(*Node) bool

// OfKind matches elements of kind k.
func OfKind(k Kind) Selector {
	return func(n *Node) bool { return n.Kind == k }
}

// Named matches elements with the given local name, for elements that have no Kind.
func Named(local string) Selector {
	return func(n *Node) bool { return n.Name == local }
}

// AttrEquals matches elements whose attribute name equals value.
func AttrEquals(name, value string) Selector {
	return func(n *Node) bool {
		v, ok := n.Attrs[name]
		return ok && v == value
	}
}

// AttrHasPrefix matches elements whose attribute name starts with any of the prefixes.
func AttrHasPrefix(name string, prefixes ...string) Selector {
	return func(n *Node) bool {
		v, ok := n.Attrs[name]
		if !ok {
			return false
		}
		for _, p := range prefixes {
			if strings.HasPrefix(v, p) {
				return true
			}
		}
		return false
	}
}

// Not inverts s.
func Not(s Selector) Selector {
	return func(n *Node) bool { return !s(n) }
}

// All matches when every selector matches.
func All(sels ...Selector) Selector {
	return func(n *Node) bool {
		for _, s := range sels {
			if !s(n) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one selector matches.
func Any(sels ...Selector) Selector {
	return func(n *Node) bool {
		for _, s := range sels {
			if s(n) {
				return true
			}
		}
		return false
	}
}

// Select returns the direct children of n matching s, in document order.
func (n *Node) Select(s Selector) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if s(c) {
			out = append(out, c)
		}
	}
	return out
}

// First returns the first direct child matching s, or nil.
func (n *Node) First(s Selector) *Node {
	if n == nil {
		return nil
	}
	for _, c := range n.Children {
		if s(c) {
			return c
		}
	}
	return nil
}

// Path follows a chain of selectors, taking the first match at each step.
// It returns nil as soon as a step has no match.
func (n *Node) Path(sels ...Selector) *Node {
	cur := n
	for _, s := range sels {
		cur = cur.First(s)
		if cur == nil {
			return nil
		}
	}
	return cur
}
