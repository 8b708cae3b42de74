package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_TotalOrder(t *testing.T) {
	assert.Equal(t, CategoryCable, MaxCategory(CategoryCable, CategoryDevice))
	assert.Equal(t, CategoryDevice, MaxCategory(CategoryStrip, CategoryDevice))
	assert.Equal(t, CategoryStrip, MaxCategory(CategoryOther, CategoryStrip))
	assert.Equal(t, CategoryDevice, MaxCategory(CategoryDevice, CategoryDevice))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory("Cable")
	require.True(t, ok)
	assert.Equal(t, CategoryCable, c)

	_, ok = ParseCategory("widget")
	assert.False(t, ok)
}

func TestTag_Identity(t *testing.T) {
	segs := []Segment{{"=", "A"}, {"+", "B"}}
	t1 := NewTag(segs)
	t2 := NewTag(segs)
	assert.Equal(t, t1.ID, t2.ID)
	assert.Equal(t, "=A+B", t1.Text)

	reversed := NewTag([]Segment{{"+", "B"}, {"=", "A"}})
	assert.NotEqual(t, t1.ID, reversed.ID)
}

func TestTag_RestrictAndPath(t *testing.T) {
	tag := NewTag([]Segment{{"=", "A"}, {"+", "B"}, {"=", "C"}})
	assert.Equal(t, []string{"A", "C"}, tag.Values("="))
	assert.Equal(t, "=A=C", tag.Path([]string{"="}))
	assert.Equal(t, "+B", tag.Path([]string{"+"}))

	restricted := tag.Restrict([]string{"+", "="})
	require.Len(t, restricted, 3)
	assert.Equal(t, "+", restricted[0].Separator)
}

func TestAspect_Identity(t *testing.T) {
	a1 := NewAspect("=", "M1")
	a2 := NewAspect("=", "M1")
	assert.Equal(t, a1.ID, a2.ID)
	assert.NotEqual(t, a1.ID, NewAspect("+", "M1").ID)
}

func TestPin_IdentityCoversChain(t *testing.T) {
	tail := NewPin("P2", nil, uuid.Nil)
	head1 := NewPin("P1", nil, tail.ID)
	head2 := NewPin("P1", nil, tail.ID)
	assert.Equal(t, head1.ID, head2.ID)

	bare := NewPin("P1", nil, uuid.Nil)
	assert.NotEqual(t, head1.ID, bare.ID)
}

func TestConnection_Directional(t *testing.T) {
	a := uuid.NewSHA1(uuid.NameSpaceURL, []byte("a"))
	b := uuid.NewSHA1(uuid.NameSpaceURL, []byte("b"))
	ab := NewConnection(a, b, uuid.Nil)
	ba := NewConnection(b, a, uuid.Nil)
	assert.NotEqual(t, ab.ID, ba.ID)

	viaCable := NewConnection(a, b, uuid.NewSHA1(uuid.NameSpaceURL, []byte("w")))
	assert.NotEqual(t, ab.ID, viaCable.ID)
}

func TestConnection_AddLinkIdempotent(t *testing.T) {
	c := NewConnection(uuid.Nil, uuid.Nil, uuid.Nil)
	l := uuid.NewSHA1(uuid.NameSpaceURL, []byte("l"))
	c.AddLink(l)
	c.AddLink(l)
	assert.Len(t, c.Links, 1)
}

func TestTarget_IdentityFromTagText(t *testing.T) {
	tag := NewTag([]Segment{{"=", "M1"}})
	t1 := NewTarget(tag, CategoryDevice)
	t2 := NewTarget(tag, CategoryStrip)
	// Category is merge-carried state, not identity.
	assert.Equal(t, t1.ID, t2.ID)
}
