// Package queue implements the bounded message queue (spec C5) that
// decouples Extractors from Loaders: a thread-safe FIFO of row-batches,
// sized in batches rather than rows, that blocks producers once full
// and gives consumers a bounded-wait poll so they can re-check the
// completion condition between batches. No library in the retrieval
// pack models a bounded-batch FIFO more directly than a buffered Go
// channel, so this wraps one rather than reaching for a third-party
// queue — the channel IS the bounded buffer; the type only adds the
// named Batch envelope and the timeout-poll semantics spec §4.5 asks
// for.
package queue

import (
	"time"

	"pgcompare/internal/model"
)

// PollTimeout is how long Poll waits for a batch before returning
// ok=false, letting a Loader re-check its termination condition.
const PollTimeout = 500 * time.Millisecond

// Batch is one unit of work moving through the queue: a run of row
// fingerprints pulled by an Extractor for a single (tid, side, shard).
type Batch struct {
	TID      int64
	Side     model.Side
	BatchNbr int
	Rows     []model.RowFingerprint
}

// Queue is a bounded, multi-producer multi-consumer FIFO of Batches.
type Queue struct {
	ch chan Batch
}

// New returns a Queue capable of holding capacity batches before Put
// blocks.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan Batch, capacity)}
}

// Put enqueues a batch, blocking if the queue is at capacity. It
// returns false early if done is closed first.
func (q *Queue) Put(done <-chan struct{}, b Batch) bool {
	select {
	case q.ch <- b:
		return true
	case <-done:
		return false
	}
}

// Poll waits up to PollTimeout for a batch. ok is false both on
// timeout and once the queue is closed and fully drained — a Loader
// tells the two apart by checking the extractor-done signal before
// treating a false result as completion rather than a retry.
func (q *Queue) Poll() (b Batch, ok bool) {
	select {
	case b, open := <-q.ch:
		return b, open
	case <-time.After(PollTimeout):
		return Batch{}, false
	}
}

// Len reports the number of batches currently buffered, used by the
// Loader to confirm the queue is empty before it exits.
func (q *Queue) Len() int { return len(q.ch) }

// Close signals no further Put calls will occur; a subsequent Poll
// drains any remaining buffered batches before its channel read
// reports closed (ok=false with a zero Batch only once fully drained).
func (q *Queue) Close() { close(q.ch) }
