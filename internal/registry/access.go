package registry

import (
	"sort"

	"github.com/google/uuid"

	"github.com/diagraph/diagraph/internal/model"
)

// Target returns the target with the given identity, or nil.
func (r *Registry) Target(id uuid.UUID) *model.Target {
	return r.targets[id]
}

// Pin returns the pin with the given identity, or nil.
func (r *Registry) Pin(id uuid.UUID) *model.Pin {
	return r.pins[id]
}

// Link returns the link with the given identity, or nil.
func (r *Registry) Link(id uuid.UUID) *model.Link {
	return r.links[id]
}

// Connection returns the connection with the given identity, or nil.
func (r *Registry) Connection(id uuid.UUID) *model.Connection {
	return r.connections[id]
}

// TargetsOrdered returns all targets sorted by tag text. The hierarchy
// builder depends on this ordering for reproducible tree construction.
func (r *Registry) TargetsOrdered() []*model.Target {
	out := make([]*model.Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Tag.Text < out[j].Tag.Text
	})
	return out
}

// ConnectionsOrdered returns all connections sorted by identity.
func (r *Registry) ConnectionsOrdered() []*model.Connection {
	out := make([]*model.Connection, 0, len(r.connections))
	for _, c := range r.connections {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// ConnectionsThrough returns the connections routed through the given target,
// sorted by identity.
func (r *Registry) ConnectionsThrough(targetID uuid.UUID) []*model.Connection {
	var out []*model.Connection
	for _, c := range r.connections {
		if c.Through == targetID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// PinsOf returns the pin chains attached to the target, in attachment order.
func (r *Registry) PinsOf(targetID uuid.UUID) []*model.Pin {
	ids := r.pinOwners[targetID]
	out := make([]*model.Pin, 0, len(ids))
	for _, id := range ids {
		if p := r.pins[id]; p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Stats summarizes entity counts per kind.
type Stats struct {
	Attributes  int `json:"attributes"`
	Aspects     int `json:"aspects"`
	Tags        int `json:"tags"`
	Pins        int `json:"pins"`
	Links       int `json:"links"`
	Connections int `json:"connections"`
	Targets     int `json:"targets"`
}

// Stats returns entity counts for the registry.
func (r *Registry) Stats() Stats {
	return Stats{
		Attributes:  len(r.attributes),
		Aspects:     len(r.aspects),
		Tags:        len(r.tags),
		Pins:        len(r.pins),
		Links:       len(r.links),
		Connections: len(r.connections),
		Targets:     len(r.targets),
	}
}
