package load

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"pgcompare/internal/model"
	"pgcompare/internal/queue"
)

type fakeStaging struct {
	inserted atomic.Int64
	failNext atomic.Bool
}

func (f *fakeStaging) InsertBatch(ctx context.Context, side model.Side, rows []model.RowFingerprint) error {
	if f.failNext.CompareAndSwap(true, false) {
		return errors.New("staging insert failed")
	}
	f.inserted.Add(int64(len(rows)))
	return nil
}

func TestRunDrainsUntilDoneAndEmpty(t *testing.T) {
	q := queue.New(4)
	done := make(chan struct{})
	q.Put(done, queue.Batch{Rows: make([]model.RowFingerprint, 3)})
	q.Put(done, queue.Batch{Rows: make([]model.RowFingerprint, 2)})

	var extractionFinished atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		extractionFinished.Store(true)
	}()

	staging := &fakeStaging{}
	n, err := Run(context.Background(), staging, q, extractionFinished.Load, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 rows loaded, got %d", n)
	}
	if staging.inserted.Load() != 5 {
		t.Fatalf("expected 5 rows inserted, got %d", staging.inserted.Load())
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	q := queue.New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	staging := &fakeStaging{}
	_, err := Run(ctx, staging, q, func() bool { return false }, zap.NewNop())
	if err == nil {
		t.Fatalf("expected context cancellation error")
	}
}

func TestRunDropsBatchOnInsertErrorAndContinues(t *testing.T) {
	q := queue.New(4)
	done := make(chan struct{})
	q.Put(done, queue.Batch{Rows: make([]model.RowFingerprint, 3)})
	q.Put(done, queue.Batch{Rows: make([]model.RowFingerprint, 2)})

	var extractionFinished atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		extractionFinished.Store(true)
	}()

	staging := &fakeStaging{}
	staging.failNext.Store(true)
	n, err := Run(context.Background(), staging, q, extractionFinished.Load, zap.NewNop())
	if err != nil {
		t.Fatalf("a batch insert error must not abort the loader, got: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected only the surviving batch's 2 rows counted as loaded, got %d", n)
	}
	if staging.inserted.Load() != 2 {
		t.Fatalf("expected 2 rows inserted, got %d", staging.inserted.Load())
	}
}
