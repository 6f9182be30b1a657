package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltersAllowArtistTypeAllowsAllWhenUnconfigured(t *testing.T) {
	f := NewFilters(nil, nil, nil)
	assert.True(t, f.AllowArtistType("Person"))
	assert.True(t, f.AllowArtistType(""))
}

func TestFiltersAllowArtistTypeRestrictsToAllowList(t *testing.T) {
	f := NewFilters([]string{"Person", "Group"}, nil, nil)
	assert.True(t, f.AllowArtistType("Person"))
	assert.False(t, f.AllowArtistType("Orchestra"))
}

func TestFiltersAllowReleaseGroupChecksPrimaryType(t *testing.T) {
	f := NewFilters(nil, []string{"Album"}, nil)
	assert.True(t, f.AllowReleaseGroup("Album", nil))
	assert.False(t, f.AllowReleaseGroup("EP", nil))
}

func TestFiltersAllowReleaseGroupChecksSecondaryTypeDenyList(t *testing.T) {
	f := NewFilters(nil, nil, []string{"Live", "Compilation"})
	assert.True(t, f.AllowReleaseGroup("Album", []string{"Remix"}))
	assert.False(t, f.AllowReleaseGroup("Album", []string{"Live"}))
}

func TestFiltersAllowReleaseGroupRequiresBothChecksToPass(t *testing.T) {
	f := NewFilters(nil, []string{"Album"}, []string{"Live"})
	assert.False(t, f.AllowReleaseGroup("EP", nil))
	assert.False(t, f.AllowReleaseGroup("Album", []string{"Live"}))
	assert.True(t, f.AllowReleaseGroup("Album", []string{"Remix"}))
}
