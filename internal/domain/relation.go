package domain

// Relations maps a member identity to the donor identities they have verified.
// A donor identity appears in at most one member's list.
type Relations map[int64][]string

// Has reports whether member already owns donor.
func (r Relations) Has(member int64, donor string) bool {
	for _, d := range r[member] {
		if d == donor {
			return true
		}
	}
	return false
}

// OwnerOf returns the member that owns donor, if any.
func (r Relations) OwnerOf(donor string) (int64, bool) {
	for member, donors := range r {
		for _, d := range donors {
			if d == donor {
				return member, true
			}
		}
	}
	return 0, false
}

// Clone returns a deep copy so callers can mutate without touching the snapshot.
func (r Relations) Clone() Relations {
	out := make(Relations, len(r))
	for member, donors := range r {
		out[member] = append([]string(nil), donors...)
	}
	return out
}
