package event

import (
	"github.com/lixenwraith/vi-traffic/parameter"
)

// Queue buffers the events of one step until the router drains them
// Push and Consume both run on the step goroutine, the sim lock serializes them
//
// Overflow: a full queue rejects the new event and counts it, queued events are never overwritten
type Queue struct {
	events  []SimEvent
	spare   []SimEvent // previous Consume result, reused on the next swap
	limit   int
	dropped uint64
}

// NewQueue creates a queue holding at most limit events between drains
// limit <= 0 uses parameter.EventQueueSize
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = parameter.EventQueueSize
	}
	return &Queue{
		events: make([]SimEvent, 0, min(limit, parameter.EventQueueInitial)),
		limit:  limit,
	}
}

// Push appends ev, returns false when the queue is full and ev was dropped
func (q *Queue) Push(ev SimEvent) bool {
	if len(q.events) >= q.limit {
		q.dropped++
		return false
	}
	q.events = append(q.events, ev)
	return true
}

// Consume returns all pending events in FIFO order and empties the queue
// The returned slice is valid until the next Consume
func (q *Queue) Consume() []SimEvent {
	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = q.spare[:0]
	q.spare = out
	return out
}

// Len returns the pending event count
func (q *Queue) Len() int { return len(q.events) }

// Dropped returns how many events were rejected because the queue was full
func (q *Queue) Dropped() uint64 { return q.dropped }
