package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSortOption(t *testing.T) {
	for _, o := range SortOptions() {
		got, ok := ParseSortOption(string(o))
		assert.True(t, ok)
		assert.Equal(t, o, got)
	}

	got, ok := ParseSortOption("byAge")
	assert.False(t, ok)
	assert.Equal(t, SortNameAsc, got)
}

func TestSortOption_NextCycles(t *testing.T) {
	o := SortNameAsc
	seen := []SortOption{o}
	for i := 0; i < 4; i++ {
		o = o.Next()
		seen = append(seen, o)
	}
	assert.Equal(t, []SortOption{SortNameAsc, SortNameDesc, SortCountryAsc, SortCountryDesc, SortNameAsc}, seen)
	assert.Equal(t, SortNameAsc, SortOption("bogus").Next())
}

func TestSortOption_Label(t *testing.T) {
	assert.Equal(t, "Name (A-Z)", SortNameAsc.Label())
	assert.Equal(t, "Name (Z-A)", SortNameDesc.Label())
	assert.Equal(t, "Country (A-Z)", SortCountryAsc.Label())
	assert.Equal(t, "Country (Z-A)", SortCountryDesc.Label())
	assert.Equal(t, "Sort", SortOption("").Label())
	assert.False(t, SortOption("").Valid())
}
