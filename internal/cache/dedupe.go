package cache

import "time"

// Deduper remembers recently seen IDs so that redelivered messages can be
// skipped.
type Deduper struct {
	seen *LRU[struct{}]
}

// NewDeduper remembers up to size IDs for at most window.
func NewDeduper(size int, window time.Duration) *Deduper {
	return &Deduper{seen: NewLRU[struct{}](size, window)}
}

// FirstSeen records id and reports whether it was not already known.
func (d *Deduper) FirstSeen(id string) bool {
	d.seen.mu.Lock()
	defer d.seen.mu.Unlock()

	if elem, ok := d.seen.items[id]; ok && !d.seen.expired(elem.Value.(*entry[struct{}])) {
		d.seen.order.MoveToFront(elem)
		return false
	}
	d.seen.set(id, struct{}{})
	return true
}

// Prune drops expired IDs and returns how many it removed.
func (d *Deduper) Prune() int { return d.seen.CleanExpired() }
