package model

import (
	"strings"

	"github.com/google/uuid"
)

// Segment is one (separator, value) naming part of a tag.
type Segment struct {
	Separator string `json:"separator"`
	Value     string `json:"value"`
}

// String renders the segment back into its address form.
func (s Segment) String() string {
	return s.Separator + s.Value
}

// Aspect is one naming segment with its own attributes and content identity.
type Aspect struct {
	ID        uuid.UUID `json:"id"`
	Separator string    `json:"separator"`
	Value     string    `json:"value"`
	Attrs     AttrSet   `json:"attrs,omitempty"`
}

// NewAspect builds a content-addressed aspect for one naming segment.
func NewAspect(separator, value string) *Aspect {
	return &Aspect{
		ID:        contentID(nsAspect, separator, value),
		Separator: separator,
		Value:     value,
		Attrs:     AttrSet{},
	}
}

// Tag is a full address string resolved into an ordered segment sequence.
// Its identity is the normalized string itself; a connector suffix is
// stripped by the parser before a Tag is ever constructed, so tag identity
// never includes a pin path.
type Tag struct {
	ID       uuid.UUID `json:"id"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// NewTag builds a tag from its normalized text and resolved segments.
func NewTag(segments []Segment) *Tag {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Separator)
		b.WriteString(s.Value)
	}
	text := b.String()
	return &Tag{
		ID:       contentID(nsTag, text),
		Text:     text,
		Segments: append([]Segment(nil), segments...),
	}
}

// Values returns the ordered values of all segments using the separator.
func (t *Tag) Values(separator string) []string {
	var out []string
	for _, s := range t.Segments {
		if s.Separator == separator {
			out = append(out, s.Value)
		}
	}
	return out
}

// Restrict returns the tag's segments whose separator is in seps, grouped in
// seps order (segment order preserved within one separator).
func (t *Tag) Restrict(seps []string) []Segment {
	var out []Segment
	for _, sep := range seps {
		for _, s := range t.Segments {
			if s.Separator == sep {
				out = append(out, s)
			}
		}
	}
	return out
}

// Path concatenates the address form of all segments whose separator is in
// seps, preserving segment order.
func (t *Tag) Path(seps []string) string {
	var b strings.Builder
	for _, s := range t.Segments {
		for _, sep := range seps {
			if s.Separator == sep {
				b.WriteString(s.String())
				break
			}
		}
	}
	return b.String()
}
