package model

import (
	"strings"

	"github.com/google/uuid"
)

// Category classifies a Target. The numeric order is a total order used
// during merge: a Target's category is only ever upgraded, never downgraded.
type Category int

const (
	CategoryOther Category = iota
	CategoryStrip
	CategoryDevice
	CategoryCable
)

var categoryNames = map[Category]string{
	CategoryOther:  "other",
	CategoryStrip:  "strip",
	CategoryDevice: "device",
	CategoryCable:  "cable",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if n, ok := categoryNames[c]; ok {
		return n
	}
	return "other"
}

// ParseCategory maps a category name to its enum value.
func ParseCategory(s string) (Category, bool) {
	for c, n := range categoryNames {
		if n == strings.ToLower(s) {
			return c, true
		}
	}
	return CategoryOther, false
}

// MaxCategory returns the higher-priority category under the total order.
func MaxCategory(a, b Category) Category {
	if a > b {
		return a
	}
	return b
}

// PinRole marks which end of a link a pin chain belongs to.
type PinRole string

const (
	RoleSource      PinRole = "source"
	RoleDestination PinRole = "destination"
)

// Pin is one connector point, possibly the head of a singly-linked chain.
// Child references the next chain node by GUID; every node in a chain is
// independently content-addressed and may be referenced elsewhere.
type Pin struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Role  PinRole   `json:"role,omitempty"`
	Child uuid.UUID `json:"child,omitempty"`
	Attrs AttrSet   `json:"attrs,omitempty"`
}

// NewPin builds a content-addressed pin node. The identity covers the name,
// the attribute identities present at construction, and the child identity;
// the role is informational and excluded.
func NewPin(name string, attrs AttrSet, child uuid.UUID) *Pin {
	if attrs == nil {
		attrs = AttrSet{}
	}
	fields := []string{name}
	for _, a := range attrs.Ordered() {
		fields = append(fields, a.ID.String())
	}
	fields = append(fields, child.String())
	return &Pin{
		ID:    contentID(nsPin, fields...),
		Name:  name,
		Child: child,
		Attrs: attrs,
	}
}

// Link is one wire inside a connection. Source and Destination reference pin
// chains by their head GUID; uuid.Nil marks an absent side.
type Link struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Connection  uuid.UUID `json:"connection"`
	Source      uuid.UUID `json:"source,omitempty"`
	Destination uuid.UUID `json:"destination,omitempty"`
	Attrs       AttrSet   `json:"attrs,omitempty"`
}

// NewLink builds a content-addressed link owned by the given connection.
func NewLink(name string, connection, source, destination uuid.UUID) *Link {
	return &Link{
		ID:          contentID(nsLink, name, connection.String(), source.String(), destination.String()),
		Name:        name,
		Connection:  connection,
		Source:      source,
		Destination: destination,
		Attrs:       AttrSet{},
	}
}

// Connection is a directional wiring relation between two targets, optionally
// routed through a cable target. Reversing source and destination yields a
// different identity.
type Connection struct {
	ID          uuid.UUID   `json:"id"`
	Source      uuid.UUID   `json:"source"`
	Destination uuid.UUID   `json:"destination"`
	Through     uuid.UUID   `json:"through,omitempty"`
	Links       []uuid.UUID `json:"links,omitempty"`
	Attrs       AttrSet     `json:"attrs,omitempty"`
}

// NewConnection builds a content-addressed connection. Through is uuid.Nil
// for direct connections.
func NewConnection(source, destination, through uuid.UUID) *Connection {
	return &Connection{
		ID:          contentID(nsConnection, source.String(), destination.String(), through.String()),
		Source:      source,
		Destination: destination,
		Through:     through,
		Attrs:       AttrSet{},
	}
}

// AddLink appends a link identity to the connection's ordered link list.
// Re-adding an identical link is a no-op.
func (c *Connection) AddLink(id uuid.UUID) {
	for _, l := range c.Links {
		if l == id {
			return
		}
	}
	c.Links = append(c.Links, id)
}

// Target is a device, cable or strip addressed by a Tag.
type Target struct {
	ID       uuid.UUID `json:"id"`
	Tag      *Tag      `json:"tag"`
	Category Category  `json:"category"`
	Attrs    AttrSet   `json:"attrs,omitempty"`
}

// NewTarget builds a content-addressed target. The identity derives from the
// tag text alone; category and attributes are merge-carried state.
func NewTarget(tag *Tag, category Category) *Target {
	return &Target{
		ID:       contentID(nsTarget, tag.Text),
		Tag:      tag,
		Category: category,
		Attrs:    AttrSet{},
	}
}
