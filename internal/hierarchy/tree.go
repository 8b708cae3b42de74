// Package hierarchy projects the interned targets, connections and links of
// a registry into perspective trees with deterministic node identities,
// leaf promotion and cross-reference links.
package hierarchy

import (
	"github.com/google/uuid"

	"github.com/diagraph/diagraph/internal/model"
)

// Perspective names one tree view: an ordered subset of separators belonging
// to a single naming category (or, for the primary perspective, the full
// structural separator set).
type Perspective struct {
	Name       string
	Separators []string
	Primary    bool
}

// Node is one tree position. Its ID is unique across the whole output
// document (salted with the perspective name and parent identity); DiamondID
// is the underlying Aspect's (or promoted Target's) content identity,
// stable across perspectives.
type Node struct {
	ID        uuid.UUID
	DiamondID uuid.UUID
	Separator string
	Value     string

	// Promotion state, primary perspective only.
	Target *model.Target
	Routed []*model.Connection
	Pins   []*model.Pin

	Children []*Node
	index    map[string]*Node
}

// Label renders the node's address form.
func (n *Node) Label() string {
	return n.Separator + n.Value
}

// Connector-point roles exposed by cross-reference wrappers.
const (
	RoleSideA           = "SideA"
	RoleSideB           = "SideB"
	RoleConnectionPoint = "ConnectionPoint"
)

// ConnectorPoint is one side of a cross-reference link, addressed by a
// sub-identity derived from the owning node and the role string.
type ConnectorPoint struct {
	ID    uuid.UUID
	Owner uuid.UUID
	Role  string
}

// CrossLink references two connector points. Links routed through a cable
// expand into two cross-links; direct links into one.
type CrossLink struct {
	Name  string
	SideA ConnectorPoint
	SideB ConnectorPoint
}

// Tree is one built perspective.
type Tree struct {
	Perspective Perspective
	Roots       []*Node
	CrossLinks  []CrossLink

	rootIndex map[string]*Node
	promoted  map[uuid.UUID][]*Node
}

// PromotedNodes returns the nodes the target was promoted into, in creation
// order. Empty for non-primary trees and for targets whose tag never
// resolved under this perspective.
func (t *Tree) PromotedNodes(targetID uuid.UUID) []*Node {
	return t.promoted[targetID]
}

// IsPromoted reports whether the target was promoted into this tree.
func (t *Tree) IsPromoted(targetID uuid.UUID) bool {
	return len(t.promoted[targetID]) > 0
}

// Walk visits every node depth-first in child order.
func (t *Tree) Walk(fn func(*Node)) {
	var visit func(*Node)
	visit = func(n *Node) {
		fn(n)
		for _, c := range n.Children {
			visit(c)
		}
	}
	for _, r := range t.Roots {
		visit(r)
	}
}
