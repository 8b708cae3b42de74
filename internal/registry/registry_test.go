package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diagraph/diagraph/internal/model"
	"github.com/diagraph/diagraph/internal/tagparse"
)

func testConfig(t *testing.T) tagparse.Config {
	t.Helper()
	cfg, err := tagparse.NewConfig([]tagparse.Rule{
		{Separator: "=", Category: "Functional"},
		{Separator: "+", Category: "Location"},
	}, ":")
	require.NoError(t, err)
	return cfg
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return New(testConfig(t), nil)
}

func simpleAttr(t *testing.T, name, value string) *model.Attribute {
	t.Helper()
	a, err := model.NewAttribute(model.AttrSimple, name, value)
	require.NoError(t, err)
	return a
}

func TestCreateAttribute_TypeMismatchIsHardError(t *testing.T) {
	reg := newTestRegistry(t)
	_, err := reg.CreateAttribute(model.AttrTracks, "route", "not-a-slice")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPayloadType)
}

func TestCreateAttribute_Canonicalizes(t *testing.T) {
	reg := newTestRegistry(t)
	a1, err := reg.CreateAttribute(model.AttrSimple, "color", "green")
	require.NoError(t, err)
	a2, err := reg.CreateAttribute(model.AttrSimple, "color", "green")
	require.NoError(t, err)
	assert.Same(t, a1, a2)
}

func TestCreateTag_StripsConnectorSuffix(t *testing.T) {
	reg := newTestRegistry(t)
	tag, ok := reg.CreateTag("=A+B:P1", nil)
	require.True(t, ok)
	assert.Equal(t, "=A+B", tag.Text)

	same, ok := reg.CreateTag("=A+B", nil)
	require.True(t, ok)
	assert.Same(t, tag, same)
}

func TestCreateTarget_RejectsConnectorSuffix(t *testing.T) {
	reg := newTestRegistry(t)
	_, ok := reg.CreateTarget("=A:P1", model.CategoryDevice, nil, nil)
	assert.False(t, ok)
}

func TestCreateTarget_RejectsUnparseable(t *testing.T) {
	reg := newTestRegistry(t)
	_, ok := reg.CreateTarget("DEVICE42", model.CategoryDevice, nil, nil)
	assert.False(t, ok)
}

func TestCreateTarget_FooterContext(t *testing.T) {
	reg := newTestRegistry(t)
	target, ok := reg.CreateTarget("+B1", model.CategoryDevice, nil, []string{"=A1"})
	require.True(t, ok)
	assert.Equal(t, "=A1+B1", target.Tag.Text)
}

func TestCreateTarget_MergeIdempotence(t *testing.T) {
	reg := newTestRegistry(t)
	a1 := simpleAttr(t, "mfr", "acme")
	a2 := simpleAttr(t, "voltage", "24V")

	t1, ok := reg.CreateTarget("=T1", model.CategoryStrip, []*model.Attribute{a1}, nil)
	require.True(t, ok)
	t2, ok := reg.CreateTarget("=T1", model.CategoryDevice, []*model.Attribute{a2}, nil)
	require.True(t, ok)

	assert.Same(t, t1, t2)
	assert.Equal(t, model.CategoryDevice, t1.Category)
	assert.Len(t, t1.Attrs, 2)

	// Category never downgrades; repeating either call changes nothing.
	t3, ok := reg.CreateTarget("=T1", model.CategoryStrip, []*model.Attribute{a1}, nil)
	require.True(t, ok)
	assert.Same(t, t1, t3)
	assert.Equal(t, model.CategoryDevice, t1.Category)
	assert.Len(t, t1.Attrs, 2)
	assert.Equal(t, 1, reg.Stats().Targets)
}

func TestCreatePin_ChainHeadFirst(t *testing.T) {
	reg := newTestRegistry(t)
	head, ok := reg.CreatePin("=DEV:P1:P2:P3", model.RoleSource)
	require.True(t, ok)
	assert.Equal(t, "P1", head.Name)

	p2 := reg.Pin(head.Child)
	require.NotNil(t, p2)
	assert.Equal(t, "P2", p2.Name)
	p3 := reg.Pin(p2.Child)
	require.NotNil(t, p3)
	assert.Equal(t, "P3", p3.Name)

	again, ok := reg.CreatePin("=DEV:P1:P2:P3", model.RoleDestination)
	require.True(t, ok)
	assert.Same(t, head, again)
	// First writer wins for the informational role.
	assert.Equal(t, model.RoleSource, head.Role)

	assert.Equal(t, 3, reg.Stats().Pins)
}

func TestCreatePin_RequiresConnectorSegments(t *testing.T) {
	reg := newTestRegistry(t)
	_, ok := reg.CreatePin("=DEV", model.RoleSource)
	assert.False(t, ok)

	_, ok = reg.CreatePin("=DEV:", model.RoleSource)
	assert.False(t, ok)
}

func TestCreateConnection_Directional(t *testing.T) {
	reg := newTestRegistry(t)
	ab, ok := reg.CreateConnection("", "=A", "=B", nil, nil)
	require.True(t, ok)
	ba, ok := reg.CreateConnection("", "=B", "=A", nil, nil)
	require.True(t, ok)
	assert.NotEqual(t, ab.ID, ba.ID)

	again, ok := reg.CreateConnection("", "=A", "=B", nil, nil)
	require.True(t, ok)
	assert.Same(t, ab, again)
	assert.Equal(t, 2, reg.Stats().Connections)
}

func TestCreateConnection_ThroughCable(t *testing.T) {
	reg := newTestRegistry(t)
	conn, ok := reg.CreateConnection("=W1", "=A", "=B", nil, nil)
	require.True(t, ok)

	cable := reg.Target(conn.Through)
	require.NotNil(t, cable)
	assert.Equal(t, "=W1", cable.Tag.Text)
	assert.Equal(t, model.CategoryCable, cable.Category)

	direct, ok := reg.CreateConnection("", "=A", "=B", nil, nil)
	require.True(t, ok)
	assert.NotEqual(t, conn.ID, direct.ID)
}

func TestCreateConnectionWithLink(t *testing.T) {
	reg := newTestRegistry(t)
	conn, link, ok := reg.CreateConnectionWithLink("", "=A:P1", "=B:P2", nil, nil)
	require.True(t, ok)
	require.NotNil(t, link)
	assert.Equal(t, "P1>P2", link.Name)
	assert.Len(t, conn.Links, 1)

	src := reg.Pin(link.Source)
	require.NotNil(t, src)
	assert.Equal(t, "P1", src.Name)
	dst := reg.Pin(link.Destination)
	require.NotNil(t, dst)
	assert.Equal(t, "P2", dst.Name)

	// Re-adding an identical link is a no-op.
	conn2, link2, ok := reg.CreateConnectionWithLink("", "=A:P1", "=B:P2", nil, nil)
	require.True(t, ok)
	assert.Same(t, conn, conn2)
	assert.Same(t, link, link2)
	assert.Len(t, conn.Links, 1)
	assert.Equal(t, 1, reg.Stats().Links)
}

func TestCreateConnectionWithLink_RequiresPinSuffixes(t *testing.T) {
	reg := newTestRegistry(t)
	_, _, ok := reg.CreateConnectionWithLink("", "=A", "=B:P2", nil, nil)
	assert.False(t, ok)
	_, _, ok = reg.CreateConnectionWithLink("", "=A:P1", "=B", nil, nil)
	assert.False(t, ok)
}

func TestDeterminism_AcrossStores(t *testing.T) {
	reg1 := newTestRegistry(t)
	reg2 := newTestRegistry(t)

	t1, ok := reg1.CreateTarget("=A+B", model.CategoryDevice, nil, nil)
	require.True(t, ok)
	c1, ok := reg1.CreateConnection("=W1", "=A", "=B", nil, nil)
	require.True(t, ok)
	p1, ok := reg1.CreatePin("=A:X:Y", model.RoleSource)
	require.True(t, ok)

	// Different creation order in the second store.
	p2, ok := reg2.CreatePin("=A:X:Y", model.RoleSource)
	require.True(t, ok)
	c2, ok := reg2.CreateConnection("=W1", "=A", "=B", nil, nil)
	require.True(t, ok)
	t2, ok := reg2.CreateTarget("=A+B", model.CategoryDevice, nil, nil)
	require.True(t, ok)

	assert.Equal(t, t1.ID, t2.ID)
	assert.Equal(t, c1.ID, c2.ID)
	assert.Equal(t, p1.ID, p2.ID)
}

func TestMerge_ConfigMismatch(t *testing.T) {
	reg := newTestRegistry(t)
	otherCfg, err := tagparse.NewConfig([]tagparse.Rule{
		{Separator: "=", Category: "Functional"},
	}, ":")
	require.NoError(t, err)
	other := New(otherCfg, nil)

	err = reg.Merge(other)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigMismatch)
}

func TestMerge_CommutativeAndIdempotent(t *testing.T) {
	build := func(category model.Category, attrName string) *Registry {
		reg := newTestRegistry(t)
		_, ok := reg.CreateTarget("=T1", category, []*model.Attribute{simpleAttr(t, attrName, "v")}, nil)
		require.True(t, ok)
		_, _, ok = reg.CreateConnectionWithLink("=W1", "=T1:P1", "=T2:P2", nil, nil)
		require.True(t, ok)
		return reg
	}

	regA := build(model.CategoryStrip, "alpha")
	regB := build(model.CategoryDevice, "beta")

	mergeInto := func(first, second *Registry) *Registry {
		agg := newTestRegistry(t)
		require.NoError(t, agg.Merge(first))
		require.NoError(t, agg.Merge(second))
		return agg
	}

	ab := mergeInto(regA, regB)
	ba := mergeInto(regB, regA)

	for _, agg := range []*Registry{ab, ba} {
		targets := agg.TargetsOrdered()
		require.Len(t, targets, 3) // =T1, =T2, =W1
		t1 := targets[0]
		assert.Equal(t, "=T1", t1.Tag.Text)
		assert.Equal(t, model.CategoryDevice, t1.Category)
		assert.Len(t, t1.Attrs, 2)
		assert.Equal(t, 1, agg.Stats().Connections)
		assert.Equal(t, 1, agg.Stats().Links)
	}

	// Merging the same store again changes nothing.
	statsBefore := ab.Stats()
	require.NoError(t, ab.Merge(regB))
	assert.Equal(t, statsBefore, ab.Stats())
}

func TestMerge_TakesOwnershipWithoutCopying(t *testing.T) {
	source := newTestRegistry(t)
	target, ok := source.CreateTarget("=T1", model.CategoryStrip, nil, nil)
	require.True(t, ok)

	agg := newTestRegistry(t)
	require.NoError(t, agg.Merge(source))

	// The aggregate holds source's objects, not copies; a merged store must
	// be discarded afterwards.
	assert.Same(t, target, agg.Target(target.ID))

	other := newTestRegistry(t)
	_, ok = other.CreateTarget("=T1", model.CategoryDevice, nil, nil)
	require.True(t, ok)
	require.NoError(t, agg.Merge(other))
	assert.Equal(t, model.CategoryDevice, target.Category)
}

func TestPinsOfAndConnectionsThrough(t *testing.T) {
	reg := newTestRegistry(t)
	conn, _, ok := reg.CreateConnectionWithLink("=W1", "=A:P1", "=B:P2", nil, nil)
	require.True(t, ok)

	srcTarget := reg.Target(conn.Source)
	require.NotNil(t, srcTarget)
	pins := reg.PinsOf(srcTarget.ID)
	require.Len(t, pins, 1)
	assert.Equal(t, "P1", pins[0].Name)

	cable := reg.Target(conn.Through)
	require.NotNil(t, cable)
	through := reg.ConnectionsThrough(cable.ID)
	require.Len(t, through, 1)
	assert.Equal(t, conn.ID, through[0].ID)
}
