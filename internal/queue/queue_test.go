package queue

import (
	"testing"
	"time"
)

func TestPutPollRoundTrip(t *testing.T) {
	q := New(2)
	done := make(chan struct{})
	defer close(done)

	if !q.Put(done, Batch{TID: 1, BatchNbr: 1}) {
		t.Fatalf("Put should succeed under capacity")
	}
	b, ok := q.Poll()
	if !ok {
		t.Fatalf("expected a batch")
	}
	if b.TID != 1 {
		t.Fatalf("got wrong batch: %+v", b)
	}
}

func TestPollTimesOutWhenEmpty(t *testing.T) {
	q := New(1)
	start := time.Now()
	_, ok := q.Poll()
	if ok {
		t.Fatalf("expected timeout on empty queue")
	}
	if time.Since(start) < PollTimeout {
		t.Fatalf("Poll returned before the timeout elapsed")
	}
}

func TestPutBlocksAtCapacityUntilDone(t *testing.T) {
	q := New(1)
	done := make(chan struct{})

	if !q.Put(done, Batch{BatchNbr: 1}) {
		t.Fatalf("first put should succeed")
	}

	putReturned := make(chan bool, 1)
	go func() {
		putReturned <- q.Put(done, Batch{BatchNbr: 2})
	}()

	select {
	case <-putReturned:
		t.Fatalf("Put should have blocked at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	close(done)
	if ok := <-putReturned; ok {
		t.Fatalf("expected Put to abort once done is closed")
	}
}

func TestCloseDrainsThenReportsNotOK(t *testing.T) {
	q := New(2)
	done := make(chan struct{})
	q.Put(done, Batch{BatchNbr: 1})
	q.Close()

	if _, ok := q.Poll(); !ok {
		t.Fatalf("expected the buffered batch before closure is observed")
	}
	if _, ok := q.Poll(); ok {
		t.Fatalf("expected drained+closed queue to report ok=false")
	}
}
