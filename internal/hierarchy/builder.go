package hierarchy

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/diagraph/diagraph/internal/diag"
	"github.com/diagraph/diagraph/internal/metrics"
	"github.com/diagraph/diagraph/internal/model"
	"github.com/diagraph/diagraph/internal/registry"
)

var (
	nsNode  = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/node"))
	nsPoint = uuid.NewSHA1(uuid.NameSpaceURL, []byte("diagraph/point"))
)

// Builder projects one completed registry into perspective trees. It only
// reads the registry; build strictly after all merges are done.
type Builder struct {
	reg   *registry.Registry
	log   *slog.Logger
	diags *diag.Collector

	// issued tracks every node identity handed out across all trees built
	// by this builder, so no two nodes in one output document collide.
	issued map[uuid.UUID]string
}

// NewBuilder creates a builder over the registry. Collisions and skipped
// links are reported through the collector, never as errors.
func NewBuilder(reg *registry.Registry, logger *slog.Logger, diags *diag.Collector) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if diags == nil {
		diags = diag.NewCollector(logger)
	}
	return &Builder{
		reg:    reg,
		log:    logger,
		diags:  diags,
		issued: make(map[uuid.UUID]string),
	}
}

// Diagnostics returns the collector shared by all builds.
func (b *Builder) Diagnostics() *diag.Collector {
	return b.diags
}

// BuildAll builds one tree per perspective, in order.
func (b *Builder) BuildAll(perspectives []Perspective) []*Tree {
	trees := make([]*Tree, 0, len(perspectives))
	for _, p := range perspectives {
		trees = append(trees, b.Build(p))
	}
	return trees
}

// Build walks all targets and descends or creates one tree node per distinct
// (separator, value) pair of each target's tag, restricted to the
// perspective's separators in priority order. Targets sharing a path prefix
// share ancestors; a target with no matching aspect parts is skipped.
func (b *Builder) Build(p Perspective) *Tree {
	tree := &Tree{
		Perspective: p,
		rootIndex:   make(map[string]*Node),
		promoted:    make(map[uuid.UUID][]*Node),
	}
	for _, target := range b.reg.TargetsOrdered() {
		frontier := b.descend(tree, p, target.Tag)
		if len(frontier) == 0 {
			continue
		}
		if p.Primary {
			for _, n := range frontier {
				b.promote(tree, n, target)
			}
		}
	}
	if p.Primary {
		b.buildCrossLinks(tree)
	}
	return tree
}

// descend walks the tag's aspect parts level by level and returns the
// deepest nodes reached. Multiple values at one separator (a composite tag)
// fan out into sibling branches, not into a single node.
func (b *Builder) descend(tree *Tree, p Perspective, tag *model.Tag) []*Node {
	var frontier []*Node
	started := false
	for _, sep := range p.Separators {
		values := tag.Values(sep)
		if len(values) == 0 {
			continue
		}
		if !started {
			started = true
			for _, v := range values {
				frontier = append(frontier, b.child(tree, p, nil, sep, v))
			}
			continue
		}
		var next []*Node
		for _, parent := range frontier {
			for _, v := range values {
				next = append(next, b.child(tree, p, parent, sep, v))
			}
		}
		frontier = next
	}
	return frontier
}

// child finds or creates the node for (separator, value) under parent.
// A nil parent addresses the tree's root level.
func (b *Builder) child(tree *Tree, p Perspective, parent *Node, sep, value string) *Node {
	key := sep + "\x00" + value
	index := tree.rootIndex
	parentID := uuid.Nil
	if parent != nil {
		if parent.index == nil {
			parent.index = make(map[string]*Node)
		}
		index = parent.index
		parentID = parent.ID
	}
	if n, ok := index[key]; ok {
		return n
	}
	id := uuid.NewSHA1(nsNode, []byte(p.Name+"\x1f"+parentID.String()+"\x1f"+sep+"\x1f"+value))
	if prev, taken := b.issued[id]; taken {
		// Defensive: UUIDv5 over distinct inputs should never collide.
		b.diags.Warnf("node identity collision: %s already issued for %q", id, prev)
		metrics.Inc(metrics.IDCollisions)
	}
	b.issued[id] = p.Name + ":" + sep + value
	n := &Node{
		ID:        id,
		DiamondID: model.NewAspect(sep, value).ID,
		Separator: sep,
		Value:     value,
	}
	index[key] = n
	if parent == nil {
		tree.Roots = append(tree.Roots, n)
	} else {
		parent.Children = append(parent.Children, n)
	}
	return n
}

// promote replaces the node's aspect wrapper with the target: the node takes
// over the target's attributes, the connections routed through it, and its
// attached connector points. First promotion wins; a second target resolving
// to the same node is reported and left unpromoted here.
func (b *Builder) promote(tree *Tree, n *Node, target *model.Target) {
	if n.Target != nil {
		if n.Target.ID != target.ID {
			b.diags.Warnf("node %q already promoted to %q; cannot promote %q",
				n.Label(), n.Target.Tag.Text, target.Tag.Text)
		}
		return
	}
	n.Target = target
	n.DiamondID = target.ID
	n.Routed = b.reg.ConnectionsThrough(target.ID)
	n.Pins = b.reg.PinsOf(target.ID)
	tree.promoted[target.ID] = append(tree.promoted[target.ID], n)
}

// buildCrossLinks turns every link of every connection into cross-reference
// wrappers against the promoted nodes of the primary tree. A link whose
// endpoints were never promoted is skipped with a diagnostic.
func (b *Builder) buildCrossLinks(tree *Tree) {
	for _, conn := range b.reg.ConnectionsOrdered() {
		src := b.promotedNode(tree, conn.Source)
		dst := b.promotedNode(tree, conn.Destination)
		var cable *Node
		if conn.Through != uuid.Nil {
			cable = b.promotedNode(tree, conn.Through)
		}
		for _, linkID := range conn.Links {
			link := b.reg.Link(linkID)
			if link == nil {
				continue
			}
			if src == nil || dst == nil {
				b.diags.Warnf("link %q skipped: connection endpoint not in primary tree", link.Name)
				continue
			}
			if conn.Through != uuid.Nil {
				if cable == nil {
					b.diags.Warnf("link %q skipped: through-cable not in primary tree", link.Name)
					continue
				}
				tree.CrossLinks = append(tree.CrossLinks,
					CrossLink{
						Name:  link.Name + ".a",
						SideA: Point(src, RoleConnectionPoint),
						SideB: Point(cable, RoleSideA),
					},
					CrossLink{
						Name:  link.Name + ".b",
						SideA: Point(cable, RoleSideB),
						SideB: Point(dst, RoleConnectionPoint),
					},
				)
				continue
			}
			tree.CrossLinks = append(tree.CrossLinks, CrossLink{
				Name:  link.Name,
				SideA: Point(src, RoleConnectionPoint),
				SideB: Point(dst, RoleConnectionPoint),
			})
		}
	}
}

func (b *Builder) promotedNode(tree *Tree, targetID uuid.UUID) *Node {
	if nodes := tree.promoted[targetID]; len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// Point derives a connector-point sub-identity from the owner node and role.
func Point(n *Node, role string) ConnectorPoint {
	return ConnectorPoint{
		ID:    uuid.NewSHA1(nsPoint, []byte(n.ID.String()+"\x1f"+role)),
		Owner: n.ID,
		Role:  role,
	}
}
