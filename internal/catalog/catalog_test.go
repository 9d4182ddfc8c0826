package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsDuplicateIDs(t *testing.T) {
	t.Parallel()

	_, err := New([]*Cluster{
		{ID: "dup", Zones: []string{"z1"}},
		{ID: "dup", Zones: []string{"z2"}},
	}, nil)
	assert.Error(t, err)
}

func TestByTypePreservesOrder(t *testing.T) {
	t.Parallel()

	cat, err := New([]*Cluster{
		{ID: "m1", Zones: []string{"z1"}, Type: TypeMiniDungeon},
		{ID: "m2", Zones: []string{"z2"}, Type: TypeMiniDungeon},
		{ID: "s", Zones: []string{"zs"}, Type: TypeStart},
	}, nil)
	require.NoError(t, err)

	minis := cat.ByType(TypeMiniDungeon)
	require.Len(t, minis, 2)
	assert.Equal(t, "m1", minis[0].ID)
	assert.Equal(t, "m2", minis[1].ID)
	assert.Empty(t, cat.ByType(TypeFinalBoss))
}

func TestMergeHub(t *testing.T) {
	t.Parallel()

	cat, err := New([]*Cluster{
		{
			ID: "roundtable", Zones: []string{"z_hub"}, Type: TypeOther,
			Exits: []Gateway{{GateID: "hub_out", Zone: "z_hub"}},
		},
		{
			ID: "chapel", Zones: []string{"z_start"}, Type: TypeStart,
			Exits: []Gateway{{GateID: "start_out", Zone: "z_start"}},
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, cat.MergeHub("roundtable"))

	start := cat.ByType(TypeStart)[0]
	assert.ElementsMatch(t, []string{"z_start", "z_hub"}, start.Zones)
	require.Len(t, start.Exits, 2)

	_, ok := cat.Cluster("roundtable")
	assert.False(t, ok, "hub cluster should no longer be a candidate")
	assert.Empty(t, cat.ByType(TypeOther))

	err = cat.MergeHub("missing")
	assert.ErrorIs(t, err, ErrClusterNotFound)
}

func TestParseContentType(t *testing.T) {
	t.Parallel()

	for want, name := range map[ContentType]string{
		TypeStart:         "start",
		TypeFinalBoss:     "final_boss",
		TypeLegacyDungeon: "legacy_dungeon",
		TypeMiniDungeon:   "mini_dungeon",
		TypeBossArena:     "boss_arena",
		TypeMajorBoss:     "major_boss",
		TypeOther:         "other",
	} {
		got, err := ParseContentType(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, name, got.String())
	}

	_, err := ParseContentType("shrine")
	assert.Error(t, err)
}
