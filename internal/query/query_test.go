package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelkeys/internal/query"
)

func TestApply_PartialUpdateLastWriterWins(t *testing.T) {
	s := query.NewState()
	assert.False(t, s.FilterUpdated)

	require.NoError(t, s.Apply("searchTerm", "zelda"))
	assert.True(t, s.FilterUpdated)
	assert.Equal(t, "zelda", s.SearchTerm)
	assert.Equal(t, query.SortNewest, s.Sort, "other fields untouched")

	require.NoError(t, s.Apply("sort", "lowest_price"))
	assert.Equal(t, "zelda", s.SearchTerm, "earlier edits survive later ones")
	assert.Equal(t, query.SortLowestPrice, s.Sort)

	require.NoError(t, s.Apply("searchTerm", "mario"))
	assert.Equal(t, "mario", s.SearchTerm)
}

func TestApply_RejectsUnknownAndMalformed(t *testing.T) {
	s := query.NewState()
	assert.Error(t, s.Apply("color", "red"), "unknown keys rejected at the boundary")
	assert.Error(t, s.Apply("sort", "sideways"))
	assert.Error(t, s.Apply("page", "0"))
	assert.Error(t, s.Apply("ratings", "9"))
	assert.False(t, s.FilterUpdated, "failed applies must not mark the state updated")
}

func TestToggles_SelectingSelectedClears(t *testing.T) {
	s := query.NewState()
	s.ToggleCategory("rpg")
	assert.Equal(t, "rpg", s.CategoryID)
	s.ToggleCategory("rpg")
	assert.Equal(t, "", s.CategoryID)
	s.ToggleCategory("rpg")
	s.ToggleCategory("indie")
	assert.Equal(t, "indie", s.CategoryID, "toggling another value replaces, not stacks")

	s.ToggleRating(4)
	assert.Equal(t, 4, s.Rating)
	s.ToggleRating(4)
	assert.Equal(t, 0, s.Rating)
	assert.True(t, s.FilterUpdated)
}

func TestKey_StableAndDiscriminating(t *testing.T) {
	a := query.NewState()
	b := query.NewState()
	assert.Equal(t, a.Key(), b.Key())

	require.NoError(t, b.Apply("minPrice", "10"))
	assert.NotEqual(t, a.Key(), b.Key())

	// Same edits in a different order serialize identically.
	c := query.NewState()
	require.NoError(t, c.Apply("minPrice", "10"))
	require.NoError(t, c.Apply("searchTerm", "doom"))
	d := query.NewState()
	require.NoError(t, d.Apply("searchTerm", "doom"))
	require.NoError(t, d.Apply("minPrice", "10"))
	assert.Equal(t, c.Key(), d.Key())
}

func TestValues_OmitsUnsetFilters(t *testing.T) {
	s := query.NewState()
	v := s.Values()
	assert.Equal(t, "newest", v.Get("sort"))
	assert.Equal(t, "1", v.Get("page"))
	_, hasMin := v["minPrice"]
	_, hasCat := v["categoryId"]
	_, hasRating := v["ratings"]
	assert.False(t, hasMin)
	assert.False(t, hasCat)
	assert.False(t, hasRating)
}
