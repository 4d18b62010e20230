// Package persist is the best-effort persistence adapter for collection
// state. Nothing here returns an error: loads fall back to defaults and
// failed writes are logged to the store category.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"profilegrid/internal/logging"
	"profilegrid/internal/profile"
	"profilegrid/internal/store"
)

// Storage keys.
const (
	KeyUsers  = "user-profile-creator-users"
	KeySearch = "user-profile-creator-search"
	KeySort   = "user-profile-creator-sort"
)

// opTimeout bounds a single backend call so a stalled store cannot wedge callers.
const opTimeout = 5 * time.Second

// Adapter reads and writes the three persisted values.
type Adapter struct {
	kv store.KV
}

// New wraps kv.
func New(kv store.KV) *Adapter {
	return &Adapter{kv: kv}
}

// LoadProfiles returns the stored list, or an empty list when absent or unreadable.
func (a *Adapter) LoadProfiles(ctx context.Context) []profile.Profile {
	raw, ok := a.get(ctx, KeyUsers)
	if !ok {
		return []profile.Profile{}
	}
	var profiles []profile.Profile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		logging.StoreError("Discarding corrupt %s: %v", KeyUsers, err)
		return []profile.Profile{}
	}
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	logging.StoreDebug("Loaded %d profiles", len(profiles))
	return profiles
}

// SaveProfiles writes the full list. An empty list is written as "[]".
func (a *Adapter) SaveProfiles(ctx context.Context, profiles []profile.Profile) {
	if profiles == nil {
		profiles = []profile.Profile{}
	}
	data, err := json.Marshal(profiles)
	if err != nil {
		logging.StoreError("Failed to encode profiles: %v", err)
		return
	}
	a.set(ctx, KeyUsers, string(data))
}

// LoadSearchTerm returns the stored term or "".
func (a *Adapter) LoadSearchTerm(ctx context.Context) string {
	raw, _ := a.get(ctx, KeySearch)
	return raw
}

func (a *Adapter) SaveSearchTerm(ctx context.Context, term string) {
	a.set(ctx, KeySearch, term)
}

// LoadSortOption returns the stored option, or the default when absent or unknown.
func (a *Adapter) LoadSortOption(ctx context.Context) profile.SortOption {
	raw, ok := a.get(ctx, KeySort)
	if !ok {
		return profile.DefaultSort
	}
	opt, valid := profile.ParseSortOption(raw)
	if !valid {
		logging.StoreError("Ignoring unknown sort option %q", raw)
	}
	return opt
}

func (a *Adapter) SaveSortOption(ctx context.Context, opt profile.SortOption) {
	a.set(ctx, KeySort, string(opt))
}

// ClearAll removes all three keys.
func (a *Adapter) ClearAll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := a.kv.Delete(ctx, KeyUsers, KeySearch, KeySort); err != nil {
		logging.StoreError("Failed to clear stored state: %v", err)
		return
	}
	logging.Store("Cleared stored state")
}

func (a *Adapter) get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	raw, err := a.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.StoreError("Failed to load %s: %v", key, err)
		}
		return "", false
	}
	return raw, true
}

func (a *Adapter) set(ctx context.Context, key, value string) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := a.kv.Set(ctx, key, value); err != nil {
		logging.StoreError("Failed to save %s: %v", key, err)
	}
}
