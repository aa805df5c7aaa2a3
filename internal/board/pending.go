package board

// Tracker records which identities carry unconfirmed local intent, each with a
// monotonically increasing sequence number. A marker shields its identity from
// being overwritten by a poll snapshot; only the highest sequence handed out
// for an identity may clear it (last intent wins). This is a counter map, not
// a queue: two rapid moves of the same card leave one marker with the newer
// sequence, and the older call's completion is ignored.
type Tracker struct {
	seq     uint64
	entries map[string]*pendingEntry
}

type pendingEntry struct {
	seq    uint64
	cycles int // applied poll cycles this marker has survived
}

// NewTracker returns an empty pending-identity tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*pendingEntry)}
}

// Mark registers (or refreshes) pending intent for an identity and returns the
// sequence number the caller must present to clear it. Refreshing resets the
// abandonment clock: new intent deserves a full grace period.
func (t *Tracker) Mark(id string) uint64 {
	t.seq++
	t.entries[id] = &pendingEntry{seq: t.seq}
	return t.seq
}

// Ack clears the marker for id if and only if seq is still the identity's
// current sequence. A stale ack (a superseded call completing late) is a no-op
// and reports false.
func (t *Tracker) Ack(id string, seq uint64) bool {
	entry, ok := t.entries[id]
	if !ok || entry.seq != seq {
		return false
	}
	delete(t.entries, id)
	return true
}

// Pending reports whether an identity currently carries unconfirmed intent.
func (t *Tracker) Pending(id string) bool {
	_, ok := t.entries[id]
	return ok
}

// Len returns the number of identities with active markers.
func (t *Tracker) Len() int {
	return len(t.entries)
}

// Sweep advances every marker's poll-cycle count and clears the ones that have
// outlived maxCycles, returning the abandoned identities. Call it once per
// applied snapshot, before reconciling: an abandoned identity's marker is
// assumed lost (the remote call failed silently) and the incoming snapshot
// wins for it.
func (t *Tracker) Sweep(maxCycles int) []string {
	var abandoned []string
	for id, entry := range t.entries {
		entry.cycles++
		if entry.cycles > maxCycles {
			abandoned = append(abandoned, id)
			delete(t.entries, id)
		}
	}
	return abandoned
}
