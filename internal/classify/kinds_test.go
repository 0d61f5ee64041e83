package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindCardinalities(t *testing.T) {
	assert.Equal(t, 8, KindMaterial.Classes())
	assert.Equal(t, 6, KindLLRS.Classes())
	assert.Equal(t, 4, KindCodeLevel.Classes())
	assert.Equal(t, 9, KindStories.Classes())
	assert.Equal(t, 7, KindOccupancy.Classes())
	assert.Equal(t, 3, KindBlockPosition.Classes())
}

func TestVocabularyLengthsMatchCardinality(t *testing.T) {
	assert.Len(t, StoryVocabulary, KindStories.Classes())
	assert.Len(t, OccupancyVocabulary, KindOccupancy.Classes())
}

func TestOccupancyDuplicateTerminalEntry(t *testing.T) {
	assert.Equal(t, "Residential", OccupancyVocabulary[0])
	assert.Equal(t, "Residential", OccupancyVocabulary[len(OccupancyVocabulary)-1])
}

func TestValueVocabularies(t *testing.T) {
	v, err := Value(KindStories, 0)
	require.NoError(t, err)
	assert.Equal(t, "10-12", v)

	v, err = Value(KindStories, 8)
	require.NoError(t, err)
	assert.Equal(t, "8-9", v)

	v, err = Value(KindOccupancy, 3)
	require.NoError(t, err)
	assert.Equal(t, "Industrial", v)
}

func TestValueOptionSlots(t *testing.T) {
	// Slot 0 is the unset placeholder, so class 0 maps to slot 1.
	for _, kind := range []Kind{KindMaterial, KindLLRS, KindCodeLevel, KindBlockPosition} {
		v, err := Value(kind, 0)
		require.NoError(t, err)
		assert.Equal(t, "1", v)

		v, err = Value(kind, kind.Classes()-1)
		require.NoError(t, err)
		assert.Equal(t, string(rune('0'+kind.Classes())), v)
	}
}

func TestValueOutOfRange(t *testing.T) {
	_, err := Value(KindMaterial, 8)
	assert.Error(t, err)

	_, err = Value(KindStories, -1)
	assert.Error(t, err)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "material", KindMaterial.String())
	assert.Equal(t, "n_stories", KindStories.String())
	assert.Equal(t, "block_position", KindBlockPosition.String())
}
