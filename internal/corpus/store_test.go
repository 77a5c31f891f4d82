package corpus

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryBuilder_ReserveThenSet(t *testing.T) {
	// Given: a line referencing a point that is added later
	b := NewLibraryBuilder()
	point, err := b.Reserve("point.a", KindPoint)
	require.NoError(t, err)

	line, err := b.Add(&Document{Key: "line.de.1", Kind: KindLine, Line: &LineInfo{Points: []Link{point}}})
	require.NoError(t, err)
	require.NoError(t, b.Set(point, &Document{Key: "point.a", Kind: KindPoint}))

	// When: finishing
	lib := b.Finish()

	// Then: both resolve and the line's point link resolves too
	assert.Equal(t, 2, lib.Len())
	got := lib.Resolve(line)
	require.NotNil(t, got)
	assert.Equal(t, "point.a", lib.Resolve(got.Line.Points[0]).Key)

	l, ok := lib.Get("point.a")
	require.True(t, ok)
	assert.Equal(t, point, l)
	assert.Equal(t, KindPoint, l.Kind())
}

func TestLibraryBuilder_Reserve_KindConflict(t *testing.T) {
	b := NewLibraryBuilder()
	_, err := b.Reserve("x", KindPoint)
	require.NoError(t, err)

	_, err = b.Reserve("x", KindLine)
	assert.Error(t, err)

	again, err := b.Reserve("x", KindPoint)
	require.NoError(t, err)
	assert.Equal(t, KindPoint, again.Kind())
}

func TestLibraryBuilder_Set_Validates(t *testing.T) {
	b := NewLibraryBuilder()
	link, err := b.Reserve("point.a", KindPoint)
	require.NoError(t, err)

	assert.Error(t, b.Set(link, nil))
	assert.Error(t, b.Set(link, &Document{Key: "point.a", Kind: KindLine}))
	assert.Error(t, b.Set(link, &Document{Key: "point.b", Kind: KindPoint}))
	assert.Error(t, b.Set(Link{}, &Document{Key: "point.a", Kind: KindPoint}))

	b.Finish()
	assert.Error(t, b.Set(link, &Document{Key: "point.a", Kind: KindPoint}))
}

func TestLibrary_DanglingLinks(t *testing.T) {
	// Given: a reserved key whose document never arrives
	b := NewLibraryBuilder()
	dangling, err := b.Reserve("org.missing", KindOrganization)
	require.NoError(t, err)
	kept, err := b.Add(&Document{Key: "org.kept", Kind: KindOrganization})
	require.NoError(t, err)

	lib := b.Finish()

	// Then: the dangling link neither resolves nor enumerates
	assert.Nil(t, lib.Resolve(dangling))
	_, ok := lib.Get("org.missing")
	assert.False(t, ok)
	assert.Equal(t, []Link{kept}, slices.Collect(lib.Links()))
}

func TestLibrary_Resolve_ForeignLink(t *testing.T) {
	b := NewLibraryBuilder()
	_, err := b.Add(&Document{Key: "point.a", Kind: KindPoint})
	require.NoError(t, err)
	lib := b.Finish()

	assert.Nil(t, lib.Resolve(Link{kind: KindLine, n: 0}), "kind mismatch")
	assert.Nil(t, lib.Resolve(Link{kind: KindPoint, n: 7}), "out of range")
}
