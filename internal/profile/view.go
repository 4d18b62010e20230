package profile

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Matches reports whether a profile matches a search term: a case-insensitive
// substring of the first name, last name or country. Blank terms match everything.
func Matches(p Profile, term string) bool {
	if strings.TrimSpace(term) == "" {
		return true
	}
	t := strings.ToLower(term)
	return strings.Contains(strings.ToLower(p.Name.First), t) ||
		strings.Contains(strings.ToLower(p.Name.Last), t) ||
		strings.Contains(strings.ToLower(p.Location.Country), t)
}

// Filter returns the profiles matching term, preserving order.
// The input slice is never modified.
func Filter(profiles []Profile, term string) []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		if Matches(p, term) {
			out = append(out, p)
		}
	}
	return out
}

// Sort returns a stably sorted copy of profiles using locale-aware collation.
// Ties keep their relative order in every mode, descending included.
func Sort(profiles []Profile, opt SortOption) []Profile {
	out := slices.Clone(profiles)
	if out == nil {
		out = []Profile{}
	}

	// Collators keep internal buffers and are not safe for concurrent use.
	col := collate.New(language.English)

	var key func(Profile) string
	desc := false
	switch opt {
	case SortNameAsc:
		key = Profile.FullName
	case SortNameDesc:
		key, desc = Profile.FullName, true
	case SortCountryAsc:
		key = func(p Profile) string { return p.Location.Country }
	case SortCountryDesc:
		key, desc = func(p Profile) string { return p.Location.Country }, true
	default:
		return out
	}

	slices.SortStableFunc(out, func(a, b Profile) int {
		if desc {
			return col.CompareString(key(b), key(a))
		}
		return col.CompareString(key(a), key(b))
	})
	return out
}

// View is the filtered-then-sorted sequence plus the filtered count.
type View struct {
	Profiles []Profile
	Count    int
}

// Derive computes the displayed view. Count is the filtered length and does
// not depend on the sort option.
func Derive(profiles []Profile, term string, opt SortOption) View {
	filtered := Filter(profiles, term)
	return View{
		Profiles: Sort(filtered, opt),
		Count:    len(filtered),
	}
}
