package profile

import "github.com/google/uuid"

// IDGenerator mints identifiers used when an upstream uuid cannot be kept.
type IDGenerator func() string

// NewID mints a random identifier.
func NewID() string {
	return uuid.NewString()
}

// Admit decorates incoming profiles with local ids and resolves their
// uniqueness against existing and against earlier incoming records.
// A record whose login uuid is empty or already taken gets a fresh login uuid
// and a fresh id; every other record keeps its uuid, which also becomes its id.
// Neither input slice is modified.
func Admit(existing, incoming []Profile, newID IDGenerator) []Profile {
	if newID == nil {
		newID = NewID
	}

	taken := make(map[string]struct{}, len(existing)+len(incoming))
	for _, p := range existing {
		taken[p.Login.UUID] = struct{}{}
	}

	admitted := make([]Profile, 0, len(incoming))
	for _, p := range incoming {
		if _, dup := taken[p.Login.UUID]; dup || p.Login.UUID == "" {
			p.Login.UUID = mintUnique(taken, newID)
			p.ID = newID()
		} else {
			p.ID = p.Login.UUID
		}
		taken[p.Login.UUID] = struct{}{}
		admitted = append(admitted, p)
	}
	return admitted
}

func mintUnique(taken map[string]struct{}, newID IDGenerator) string {
	for {
		id := newID()
		if _, dup := taken[id]; !dup && id != "" {
			return id
		}
	}
}
