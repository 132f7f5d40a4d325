package services

import (
	"sync"
	"time"

	"github.com/birthday-song/birthday-song-api/models"
)

// ProgressTracker holds in-memory rendering progress for live video clips,
// keyed by "orderID:clipID". Progress is derived purely from elapsed wall
// time against a fixed simulated duration, so reads need no coordination
// beyond map safety. Entries are evicted after a TTL once terminal (or
// once stale), so abandoned pollers do not grow the map without bound.
type ProgressTracker struct {
	mu      sync.Mutex
	entries map[string]*progressEntry
	ttl     time.Duration
	now     func() time.Time
	done    chan struct{}
}

type progressEntry struct {
	startedAt  time.Time
	total      time.Duration
	reconciled bool
	lastAccess time.Time
}

// NewProgressTracker creates a tracker whose entries expire ttl after
// their last access. Call Close to stop the background sweeper.
func NewProgressTracker(ttl time.Duration) *ProgressTracker {
	t := &ProgressTracker{
		entries: make(map[string]*progressEntry),
		ttl:     ttl,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	go t.sweep()
	return t
}

// Close stops the background sweeper.
func (t *ProgressTracker) Close() {
	close(t.done)
}

func (t *ProgressTracker) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.evictExpired()
		}
	}
}

func (t *ProgressTracker) evictExpired() {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, e := range t.entries {
		if now.Sub(e.lastAccess) > t.ttl {
			delete(t.entries, key)
		}
	}
}

func trackerKey(orderID, clipID string) string {
	return orderID + ":" + clipID
}

// Track registers a new live clip with the given simulated total duration.
func (t *ProgressTracker) Track(orderID, clipID string, total time.Duration) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[trackerKey(orderID, clipID)] = &progressEntry{
		startedAt:  now,
		total:      total,
		lastAccess: now,
	}
}

// Progress returns the current percentage and derived status for a tracked
// clip. ok is false when the clip is unknown (never tracked, or evicted).
func (t *ProgressTracker) Progress(orderID, clipID string) (progress int, status string, ok bool) {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.entries[trackerKey(orderID, clipID)]
	if !found {
		return 0, "", false
	}
	e.lastAccess = now

	p := progressAt(now.Sub(e.startedAt), e.total)
	return p, statusForProgress(p), true
}

// MarkReconciled flips the entry's reconciled flag, returning true only on
// the first call. The poller uses this to write completed state back into
// the persisted clip exactly once.
func (t *ProgressTracker) MarkReconciled(orderID, clipID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, found := t.entries[trackerKey(orderID, clipID)]
	if !found || e.reconciled {
		return false
	}
	e.reconciled = true
	return true
}

// Len returns the number of live tracker entries.
func (t *ProgressTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// progressAt computes min(100, floor(elapsed/total*100)). Non-decreasing
// in elapsed time for a fixed total.
func progressAt(elapsed, total time.Duration) int {
	if total <= 0 {
		return 100
	}
	if elapsed < 0 {
		elapsed = 0
	}
	p := int(elapsed * 100 / total)
	if p > 100 {
		p = 100
	}
	return p
}

// statusForProgress derives the clip status from a progress percentage:
// pending below 30, processing from 30 to 99, completed at 100.
func statusForProgress(p int) string {
	switch {
	case p >= 100:
		return models.VideoStatusCompleted
	case p >= 30:
		return models.VideoStatusProcessing
	default:
		return models.VideoStatusPending
	}
}
