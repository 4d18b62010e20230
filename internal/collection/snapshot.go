package collection

import (
	"slices"

	"profilegrid/internal/profile"
)

// Snapshot is a read-only copy of the collection state with the derived
// view already computed.
type Snapshot struct {
	// Profiles is the filtered-then-sorted view.
	Profiles []profile.Profile
	// UserCount is the number of profiles matching the search term.
	UserCount int
	// Total is the size of the whole collection.
	Total int
	// HasUsers reports whether the collection is non-empty, regardless of search.
	HasUsers bool

	SearchTerm string
	SortOption profile.SortOption
	PageCursor int

	Selected   *profile.Profile
	DetailOpen bool

	Loading           bool
	LoadingMore       bool
	LoadingMoreButton bool
	LoadingNewProfile bool
	LastError         string
}

// Busy reports whether any fetch is running.
func (s Snapshot) Busy() bool {
	return s.Loading || s.LoadingMore || s.LoadingMoreButton || s.LoadingNewProfile
}

// AppendLoading reports whether a load-more of either kind is running.
func (s Snapshot) AppendLoading() bool {
	return s.LoadingMore || s.LoadingMoreButton
}

// Snapshot recomputes the derived view from the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	profiles := slices.Clone(m.profiles)
	snap := Snapshot{
		Total:             len(m.profiles),
		HasUsers:          len(m.profiles) > 0,
		SearchTerm:        m.searchTerm,
		SortOption:        m.sortOption,
		PageCursor:        m.pageCursor,
		DetailOpen:        m.detailOpen,
		Loading:           m.loading,
		LoadingMore:       m.loadingMore,
		LoadingMoreButton: m.loadingMoreButton,
		LoadingNewProfile: m.loadingNewProfile,
		LastError:         m.lastError,
	}
	selectedID := m.selectedID
	m.mu.Unlock()

	view := profile.Derive(profiles, snap.SearchTerm, snap.SortOption)
	snap.Profiles = view.Profiles
	snap.UserCount = view.Count

	if selectedID != "" {
		for i := range profiles {
			if profiles[i].UUID() == selectedID {
				p := profiles[i]
				snap.Selected = &p
				break
			}
		}
	}
	return snap
}

// Profiles returns a copy of the whole collection in insertion order.
func (m *Manager) Profiles() []profile.Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.profiles)
}
