package indexer

// Reconciliation is the outcome of merging a rescan into the index
type Reconciliation struct {
	// Entries replace the previous index wholesale
	Entries []Entry
	// Carried counts entries whose usage was copied from the previous index
	Carried int
	// Dropped are previous entries with usage that the rescan no longer found
	Dropped []Entry
}

// Reconcile copies use counts and last-used times from prev onto the
// matching entries of next. Entries missing from next are not kept.
func Reconcile(prev *Index, next []Entry) Reconciliation {
	r := Reconciliation{Entries: make([]Entry, len(next))}
	seen := make(map[string]bool, len(next))

	for i, e := range next {
		seen[e.Identity] = true
		if prev != nil {
			if old, ok := prev.Get(e.Identity); ok {
				e.UseCount = old.UseCount
				e.LastUsedAt = old.LastUsedAt
				if old.UseCount > 0 || old.LastUsedAt != nil {
					r.Carried++
				}
			}
		}
		r.Entries[i] = e
	}

	if prev != nil {
		for _, old := range prev.All() {
			if old.UseCount > 0 && !seen[old.Identity] {
				r.Dropped = append(r.Dropped, old)
			}
		}
	}
	return r
}
