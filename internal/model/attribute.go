// Package model defines the content-addressed entities of the diagram graph:
// attributes, aspects, tags, pins, links, connections and targets. Every
// entity's GUID is a pure function of its defining fields, so re-deriving the
// same facts always yields the same identity.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// ErrPayloadType is returned when an attribute payload does not match the
// shape its declared kind requires. This indicates a programming error in
// the caller, not bad input data.
var ErrPayloadType = errors.New("attribute payload type mismatch")

// AttrKind classifies the payload shape of an Attribute.
type AttrKind string

const (
	// AttrSimple is a plain key/value string attribute.
	AttrSimple AttrKind = "simple"
	// AttrTracks is an ordered list of routing tracks.
	AttrTracks AttrKind = "tracks"
	// AttrAddressMap maps PLC addresses to metadata strings.
	AttrAddressMap AttrKind = "address_map"
	// AttrPageRef marks the page location an entity was extracted from.
	AttrPageRef AttrKind = "page_ref"
)

// ValidAttrKinds is the set of all valid attribute kinds.
var ValidAttrKinds = []AttrKind{AttrSimple, AttrTracks, AttrAddressMap, AttrPageRef}

// IsValid returns true if the attribute kind is recognized.
func (k AttrKind) IsValid() bool {
	for _, v := range ValidAttrKinds {
		if k == v {
			return true
		}
	}
	return false
}

// PageRef locates an entity on a source page.
type PageRef struct {
	Page string  `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Attribute is a closed tagged union of leaf data attachable to any entity.
// Exactly one payload field is populated, selected by Kind.
type Attribute struct {
	ID        uuid.UUID         `json:"id"`
	Kind      AttrKind          `json:"kind"`
	Name      string            `json:"name"`
	Value     string            `json:"value,omitempty"`
	Tracks    []string          `json:"tracks,omitempty"`
	Addresses map[string]string `json:"addresses,omitempty"`
	Page      *PageRef          `json:"page,omitempty"`
}

// NewAttribute builds a content-addressed attribute, validating the payload
// against the declared kind. Accepted payload types per kind: string,
// []string, map[string]string, PageRef (or *PageRef).
func NewAttribute(kind AttrKind, name string, payload any) (*Attribute, error) {
	a := &Attribute{Kind: kind, Name: name}
	switch kind {
	case AttrSimple:
		v, ok := payload.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q wants string, got %T", ErrPayloadType, kind, name, payload)
		}
		a.Value = v
	case AttrTracks:
		v, ok := payload.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q wants []string, got %T", ErrPayloadType, kind, name, payload)
		}
		a.Tracks = append([]string(nil), v...)
	case AttrAddressMap:
		v, ok := payload.(map[string]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s %q wants map[string]string, got %T", ErrPayloadType, kind, name, payload)
		}
		m := make(map[string]string, len(v))
		for k, mv := range v {
			m[k] = mv
		}
		a.Addresses = m
	case AttrPageRef:
		switch v := payload.(type) {
		case PageRef:
			a.Page = &v
		case *PageRef:
			if v == nil {
				return nil, fmt.Errorf("%w: %s %q got nil page ref", ErrPayloadType, kind, name)
			}
			ref := *v
			a.Page = &ref
		default:
			return nil, fmt.Errorf("%w: %s %q wants PageRef, got %T", ErrPayloadType, kind, name, payload)
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrPayloadType, kind)
	}
	a.ID = contentID(nsAttribute, a.hashFields()...)
	return a, nil
}

// hashFields canonicalizes the variant payload for identity derivation.
// Map entries are sorted so insertion order never leaks into the GUID.
func (a *Attribute) hashFields() []string {
	fields := []string{string(a.Kind), a.Name}
	switch a.Kind {
	case AttrSimple:
		fields = append(fields, a.Value)
	case AttrTracks:
		fields = append(fields, a.Tracks...)
	case AttrAddressMap:
		keys := make([]string, 0, len(a.Addresses))
		for k := range a.Addresses {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, k, a.Addresses[k])
		}
	case AttrPageRef:
		fields = append(fields,
			a.Page.Page,
			strconv.FormatFloat(a.Page.X, 'g', -1, 64),
			strconv.FormatFloat(a.Page.Y, 'g', -1, 64),
		)
	}
	return fields
}

// AttrSet is a GUID-keyed attribute collection with union-merge semantics.
type AttrSet map[uuid.UUID]*Attribute

// Add inserts the attribute unless an identical one is already present.
func (s AttrSet) Add(a *Attribute) {
	if a == nil {
		return
	}
	if _, ok := s[a.ID]; !ok {
		s[a.ID] = a
	}
}

// Union merges every attribute of other into the set.
func (s AttrSet) Union(other AttrSet) {
	for _, a := range other {
		s.Add(a)
	}
}

// Ordered returns the attributes sorted by name, then ID, for deterministic
// iteration during export.
func (s AttrSet) Ordered() []*Attribute {
	out := make([]*Attribute, 0, len(s))
	for _, a := range s {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}
