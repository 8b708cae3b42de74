// Package registry implements the canonical graph store: it creates and
// interns pins, links, connections, targets, aspects and attributes, and
// resolves duplicate-creation requests by identity merge.
//
// A Registry is single-writer: each processing task owns a private instance
// and mutates it without synchronization. Completed stores are merged into an
// aggregate at a single join point via Merge.
package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/diagraph/diagraph/internal/metrics"
	"github.com/diagraph/diagraph/internal/model"
	"github.com/diagraph/diagraph/internal/tagparse"
)

// ErrConfigMismatch is returned by Merge when the two stores were built under
// different separator configurations. Identities derived under incompatible
// configs are meaningless to combine.
var ErrConfigMismatch = errors.New("registry separator configs differ")

// Registry is the canonical entity store for one processing run.
type Registry struct {
	cfg tagparse.Config
	log *slog.Logger

	attributes  map[uuid.UUID]*model.Attribute
	aspects     map[uuid.UUID]*model.Aspect
	tags        map[uuid.UUID]*model.Tag
	pins        map[uuid.UUID]*model.Pin
	links       map[uuid.UUID]*model.Link
	connections map[uuid.UUID]*model.Connection
	targets     map[uuid.UUID]*model.Target

	// pinOwners associates targets with the pin chains attached to them.
	pinOwners map[uuid.UUID][]uuid.UUID
}

// New creates an empty registry bound to the given separator configuration.
func New(cfg tagparse.Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:         cfg,
		log:         logger,
		attributes:  make(map[uuid.UUID]*model.Attribute),
		aspects:     make(map[uuid.UUID]*model.Aspect),
		tags:        make(map[uuid.UUID]*model.Tag),
		pins:        make(map[uuid.UUID]*model.Pin),
		links:       make(map[uuid.UUID]*model.Link),
		connections: make(map[uuid.UUID]*model.Connection),
		targets:     make(map[uuid.UUID]*model.Target),
		pinOwners:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// Config returns the separator configuration the registry was built under.
func (r *Registry) Config() tagparse.Config {
	return r.cfg
}

// CreateAttribute validates the payload against the attribute kind and
// returns the canonical interned instance. A payload of the wrong shape is a
// hard error: it indicates a programming error in the caller.
func (r *Registry) CreateAttribute(kind model.AttrKind, name string, payload any) (*model.Attribute, error) {
	a, err := model.NewAttribute(kind, name, payload)
	if err != nil {
		return nil, err
	}
	return r.internAttribute(a), nil
}

func (r *Registry) internAttribute(a *model.Attribute) *model.Attribute {
	if existing, ok := r.attributes[a.ID]; ok {
		return existing
	}
	r.attributes[a.ID] = a
	return a
}

func (r *Registry) internAttrs(attrs []*model.Attribute) model.AttrSet {
	set := model.AttrSet{}
	for _, a := range attrs {
		if a == nil {
			continue
		}
		set.Add(r.internAttribute(a))
	}
	return set
}

// CreateTag parses the text (merging optional footer context), strips any
// terminal connector suffix, and interns the tag by its normalized string.
// Each resolved segment is interned as an Aspect as a side effect.
// Returns (nil, false) when the bare text does not parse.
func (r *Registry) CreateTag(text string, footer []string) (*model.Tag, bool) {
	tag, _, ok := r.createTag(text, footer)
	return tag, ok
}

func (r *Registry) createTag(text string, footer []string) (tag *model.Tag, hasPin bool, ok bool) {
	bare, _, hasPin := r.cfg.SplitPinSuffix(text)
	segs, ok := r.cfg.Split(bare)
	if !ok {
		metrics.Inc(metrics.ParseFailures)
		return nil, hasPin, false
	}
	segs = r.cfg.MergeFooter(segs, footer)
	t := model.NewTag(segs)
	if existing, found := r.tags[t.ID]; found {
		return existing, hasPin, true
	}
	r.tags[t.ID] = t
	for _, s := range segs {
		a := model.NewAspect(s.Separator, s.Value)
		if _, found := r.aspects[a.ID]; !found {
			r.aspects[a.ID] = a
		}
	}
	return t, hasPin, true
}

// CreateTarget interns a target for the tag text. It fails (returns false)
// when the tag carries a connector suffix or does not parse. When a target
// with the same identity already exists, attributes are unioned into it and
// its category is upgraded per the total order, never downgraded.
func (r *Registry) CreateTarget(tagText string, category model.Category, attrs []*model.Attribute, footer []string) (*model.Target, bool) {
	tag, hasPin, ok := r.createTag(tagText, footer)
	if !ok {
		return nil, false
	}
	if hasPin {
		r.log.Debug("rejecting target with connector suffix", "tag", tagText)
		metrics.Inc(metrics.ParseFailures)
		return nil, false
	}
	t := model.NewTarget(tag, category)
	if existing, found := r.targets[t.ID]; found {
		existing.Category = model.MaxCategory(existing.Category, category)
		existing.Attrs.Union(r.internAttrs(attrs))
		metrics.Inc(metrics.TargetsMerged)
		return existing, true
	}
	t.Attrs = r.internAttrs(attrs)
	r.targets[t.ID] = t
	metrics.Inc(metrics.TargetsCreated)
	return t, true
}

// CreatePin builds a pin chain from the connector suffix of the chain text,
// tail to head, interning every node, and returns the canonical head. The
// role is recorded on newly created heads only. Fails when the text carries
// no connector segments.
func (r *Registry) CreatePin(chainText string, role model.PinRole) (*model.Pin, bool) {
	_, pinPath, hasPin := r.cfg.SplitPinSuffix(chainText)
	if !hasPin {
		metrics.Inc(metrics.ParseFailures)
		return nil, false
	}
	names := r.cfg.SplitPinChain(pinPath)
	if len(names) == 0 {
		metrics.Inc(metrics.ParseFailures)
		return nil, false
	}
	child := uuid.Nil
	var head *model.Pin
	for i := len(names) - 1; i >= 0; i-- {
		p := model.NewPin(names[i], nil, child)
		head = r.internPin(p)
		child = head.ID
	}
	if head.Role == "" {
		head.Role = role
	}
	return head, true
}

func (r *Registry) internPin(p *model.Pin) *model.Pin {
	if existing, ok := r.pins[p.ID]; ok {
		existing.Attrs.Union(p.Attrs)
		return existing
	}
	r.pins[p.ID] = p
	metrics.Inc(metrics.PinsCreated)
	return p
}

// CreateLink interns a wire inside the parent connection. Source and
// destination pins are optional. Attributes merge into an existing link of
// the same identity.
func (r *Registry) CreateLink(name string, parent *model.Connection, source, destination *model.Pin, attrs []*model.Attribute) (*model.Link, bool) {
	if parent == nil {
		return nil, false
	}
	src, dst := uuid.Nil, uuid.Nil
	if source != nil {
		src = source.ID
	}
	if destination != nil {
		dst = destination.ID
	}
	l := model.NewLink(name, parent.ID, src, dst)
	if existing, found := r.links[l.ID]; found {
		existing.Attrs.Union(r.internAttrs(attrs))
		return existing, true
	}
	l.Attrs = r.internAttrs(attrs)
	r.links[l.ID] = l
	metrics.Inc(metrics.LinksCreated)
	return l, true
}

// CreateConnection creates (or reuses) the optional through-cable target and
// the two endpoint targets, then interns the directional connection.
func (r *Registry) CreateConnection(cableTag, fromTag, toTag string, attrs []*model.Attribute, footer []string) (*model.Connection, bool) {
	conn, _, _, ok := r.createConnection(cableTag, fromTag, toTag, footer)
	if !ok {
		return nil, false
	}
	conn.Attrs.Union(r.internAttrs(attrs))
	return conn, true
}

func (r *Registry) createConnection(cableTag, fromTag, toTag string, footer []string) (*model.Connection, *model.Target, *model.Target, bool) {
	through := uuid.Nil
	if cableTag != "" {
		cable, ok := r.CreateTarget(cableTag, model.CategoryCable, nil, footer)
		if !ok {
			return nil, nil, nil, false
		}
		through = cable.ID
	}
	// Endpoints are created under the lowest category so a later, better
	// classified fact can still upgrade them.
	from, ok := r.CreateTarget(fromTag, model.CategoryOther, nil, footer)
	if !ok {
		return nil, nil, nil, false
	}
	to, ok := r.CreateTarget(toTag, model.CategoryOther, nil, footer)
	if !ok {
		return nil, nil, nil, false
	}
	c := model.NewConnection(from.ID, to.ID, through)
	if existing, found := r.connections[c.ID]; found {
		return existing, from, to, true
	}
	r.connections[c.ID] = c
	metrics.Inc(metrics.ConnectionsCreated)
	return c, from, to, true
}

// CreateConnectionWithLink splits each side into a bare tag and connector
// suffix, creates the connection between the bare targets, builds both pin
// chains, and attaches a link for the wire. Fails when either side lacks a
// connector suffix. Re-adding an identical link is a no-op.
func (r *Registry) CreateConnectionWithLink(cableTag, fromPinTag, toPinTag string, attrs []*model.Attribute, footer []string) (*model.Connection, *model.Link, bool) {
	fromBare, fromPath, fromHas := r.cfg.SplitPinSuffix(fromPinTag)
	toBare, toPath, toHas := r.cfg.SplitPinSuffix(toPinTag)
	if !fromHas || !toHas {
		metrics.Inc(metrics.ParseFailures)
		return nil, nil, false
	}
	conn, from, to, ok := r.createConnection(cableTag, fromBare, toBare, footer)
	if !ok {
		return nil, nil, false
	}
	srcPin, ok := r.CreatePin(fromPinTag, model.RoleSource)
	if !ok {
		return nil, nil, false
	}
	dstPin, ok := r.CreatePin(toPinTag, model.RoleDestination)
	if !ok {
		return nil, nil, false
	}
	r.attachPin(from.ID, srcPin.ID)
	r.attachPin(to.ID, dstPin.ID)
	link, ok := r.CreateLink(fromPath+">"+toPath, conn, srcPin, dstPin, attrs)
	if !ok {
		return nil, nil, false
	}
	conn.AddLink(link.ID)
	return conn, link, true
}

func (r *Registry) attachPin(targetID, pinID uuid.UUID) {
	for _, id := range r.pinOwners[targetID] {
		if id == pinID {
			return
		}
	}
	r.pinOwners[targetID] = append(r.pinOwners[targetID], pinID)
}

// Merge folds every entity of other into the registry, re-applying the same
// create/merge semantics as the factory operations. Merge order across
// stores is commutative and idempotent. Stores built under different
// separator configurations do not merge.
//
// Merge takes ownership of other's entities without copying: later merges
// may mutate objects still reachable from other, so a merged store must be
// discarded, never read or written again.
func (r *Registry) Merge(other *Registry) error {
	if other == nil {
		return nil
	}
	if !r.cfg.Equal(other.cfg) {
		return fmt.Errorf("merge: %w", ErrConfigMismatch)
	}
	for _, a := range other.attributes {
		r.internAttribute(a)
	}
	for id, asp := range other.aspects {
		if existing, ok := r.aspects[id]; ok {
			existing.Attrs.Union(asp.Attrs)
		} else {
			r.aspects[id] = asp
		}
	}
	for id, t := range other.tags {
		if _, ok := r.tags[id]; !ok {
			r.tags[id] = t
		}
	}
	for _, p := range other.pins {
		canonical := r.internPin(p)
		if canonical.Role == "" {
			canonical.Role = p.Role
		}
	}
	for id, t := range other.targets {
		if existing, ok := r.targets[id]; ok {
			existing.Category = model.MaxCategory(existing.Category, t.Category)
			existing.Attrs.Union(t.Attrs)
			metrics.Inc(metrics.TargetsMerged)
		} else {
			r.targets[id] = t
		}
	}
	for id, c := range other.connections {
		if existing, ok := r.connections[id]; ok {
			existing.Attrs.Union(c.Attrs)
			for _, l := range c.Links {
				existing.AddLink(l)
			}
		} else {
			r.connections[id] = c
		}
	}
	for id, l := range other.links {
		if existing, ok := r.links[id]; ok {
			existing.Attrs.Union(l.Attrs)
		} else {
			r.links[id] = l
		}
	}
	for targetID, pins := range other.pinOwners {
		for _, pinID := range pins {
			r.attachPin(targetID, pinID)
		}
	}
	metrics.Inc(metrics.StoreMerges)
	return nil
}
