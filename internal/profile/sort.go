package profile

// SortOption is one of the four fixed orderings of the derived view.
type SortOption string

const (
	SortNameAsc     SortOption = "nameAsc"
	SortNameDesc    SortOption = "nameDesc"
	SortCountryAsc  SortOption = "countryAsc"
	SortCountryDesc SortOption = "countryDesc"
)

// DefaultSort is used whenever no valid option is known.
const DefaultSort = SortNameAsc

var sortCycle = []SortOption{SortNameAsc, SortNameDesc, SortCountryAsc, SortCountryDesc}

// SortOptions returns the options in cycle order.
func SortOptions() []SortOption {
	out := make([]SortOption, len(sortCycle))
	copy(out, sortCycle)
	return out
}

// ParseSortOption returns the option for a token, or DefaultSort and false
// when the token is unknown.
func ParseSortOption(s string) (SortOption, bool) {
	for _, o := range sortCycle {
		if string(o) == s {
			return o, true
		}
	}
	return DefaultSort, false
}

// Valid reports whether o is one of the fixed options.
func (o SortOption) Valid() bool {
	_, ok := ParseSortOption(string(o))
	return ok
}

// Label is the human-readable name of the option.
func (o SortOption) Label() string {
	switch o {
	case SortNameAsc:
		return "Name (A-Z)"
	case SortNameDesc:
		return "Name (Z-A)"
	case SortCountryAsc:
		return "Country (A-Z)"
	case SortCountryDesc:
		return "Country (Z-A)"
	default:
		return "Sort"
	}
}

// Next returns the following option in the cycle. Unknown options restart the cycle.
func (o SortOption) Next() SortOption {
	for i, c := range sortCycle {
		if c == o {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}
