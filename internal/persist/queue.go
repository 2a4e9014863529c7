package persist

import (
	"sync"
	"time"
)

// Item is a snapshot waiting for a remote save.
type Item struct {
	ProjectID   string
	Payload     []byte
	Revision    uint64
	RetryCount  int
	EnqueuedAt  time.Time
	NextAttempt time.Time
}

// RetryQueue is a FIFO of pending snapshots. Pushing a snapshot for a
// project already queued replaces the payload in place, keeping its
// position and retry count.
type RetryQueue struct {
	mu    sync.Mutex
	items []Item
}

func NewRetryQueue() *RetryQueue {
	return &RetryQueue{}
}

func (q *RetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Push appends it, or coalesces it into the queued item of the same project.
// It reports whether a new entry was created.
func (q *RetryQueue) Push(it Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ProjectID == it.ProjectID {
			if it.Revision >= q.items[i].Revision {
				q.items[i].Payload = it.Payload
				q.items[i].Revision = it.Revision
			}
			return false
		}
	}
	q.items = append(q.items, it)
	return true
}

// Peek returns the oldest item without removing it.
func (q *RetryQueue) Peek() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[0], true
}

// Pop removes and returns the oldest item.
func (q *RetryQueue) Pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	q.items = q.items[1:]
	return it, true
}

// Drain empties the queue and returns what it held.
func (q *RetryQueue) Drain() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Items returns a copy of the queue contents, oldest first.
func (q *RetryQueue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Item(nil), q.items...)
}

// ack removes the item for projectID if it still holds revision. A newer
// coalesced payload stays queued.
func (q *RetryQueue) ack(projectID string, revision uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ProjectID != projectID {
			continue
		}
		if q.items[i].Revision <= revision {
			q.items = append(q.items[:i], q.items[i+1:]...)
		}
		return
	}
}

// fail records a failed attempt. The item moves to the back with its next
// attempt time, or is removed and returned once it reaches maxAttempts.
func (q *RetryQueue) fail(projectID string, now time.Time, maxAttempts int, backoff Backoff) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.items {
		if q.items[i].ProjectID != projectID {
			continue
		}
		it := q.items[i]
		q.items = append(q.items[:i], q.items[i+1:]...)
		it.RetryCount++
		if it.RetryCount >= maxAttempts {
			return it, true
		}
		it.NextAttempt = now.Add(backoff.Delay(it.RetryCount))
		q.items = append(q.items, it)
		return it, false
	}
	return Item{}, false
}
