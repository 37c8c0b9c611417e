package observer

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"pgcompare/internal/model"
)

type fakeCounter struct {
	counts []int64
	idx    int
}

func (f *fakeCounter) StagedCount(ctx context.Context, tid int64, side model.Side) (int64, error) {
	if f.idx >= len(f.counts) {
		f.idx = len(f.counts) - 1
	}
	n := f.counts[f.idx]
	f.idx++
	return n, nil
}

func (f *fakeCounter) Vacuum(ctx context.Context, side model.Side) error { return nil }

func TestThrottleSetsAndClears(t *testing.T) {
	counter := &fakeCounter{counts: []int64{100, 3_000_000, 3_000_000, 500_000, 500_000}}
	o := New(Config{Enabled: true, ThrottleSize: 2_000_000, Interval: 10 * time.Millisecond}, counter, zap.NewNop(), 1, model.SourceSide)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	o.Run(ctx)

	if o.Throttled() {
		t.Fatalf("expected throttle cleared once drained below half threshold")
	}
}

func TestDisabledObserverNeverRuns(t *testing.T) {
	counter := &fakeCounter{counts: []int64{3_000_000}}
	o := New(Config{Enabled: false}, counter, zap.NewNop(), 1, model.SourceSide)
	o.Run(context.Background())
	if o.Throttled() {
		t.Fatalf("disabled observer must never throttle")
	}
}
