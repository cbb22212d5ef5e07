package webhook

import (
	"sync"
	"time"
)

// DefaultDedupTTL covers Telegram's redelivery window for unanswered updates.
const DefaultDedupTTL = 10 * time.Minute

// Deduper remembers recently accepted update ids so a redelivered update is
// not converted twice.
type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[int]time.Time
	now  func() time.Time
}

// NewDeduper creates a Deduper. A non-positive ttl uses DefaultDedupTTL.
func NewDeduper(ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduper{
		ttl:  ttl,
		seen: make(map[int]time.Time),
		now:  time.Now,
	}
}

// Seen records id and reports whether it was already recorded within the TTL.
func (d *Deduper) Seen(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	if at, ok := d.seen[id]; ok && now.Sub(at) < d.ttl {
		return true
	}
	d.seen[id] = now
	return false
}

// Forget drops id so a later delivery is processed again.
func (d *Deduper) Forget(id int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}

// Prune removes expired entries and returns how many were dropped.
func (d *Deduper) Prune() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	removed := 0
	for id, at := range d.seen {
		if now.Sub(at) >= d.ttl {
			delete(d.seen, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked ids.
func (d *Deduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
