package loadtest

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRunAllSucceed(t *testing.T) {
	c := New(Options{}, quietLogger())

	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		return 10 * time.Millisecond, nil
	}, 10)

	if len(report.Hits) != 10 {
		t.Fatalf("got %d hits, want 10", len(report.Hits))
	}
	if report.Summary.SuccessRate != 100 {
		t.Errorf("SuccessRate = %v, want 100", report.Summary.SuccessRate)
	}
	if report.Summary.Successes != 10 || report.Summary.Failures != 0 {
		t.Errorf("counts = %d/%d", report.Summary.Successes, report.Summary.Failures)
	}
}

func TestRunPreservesLaunchOrder(t *testing.T) {
	c := New(Options{}, quietLogger())

	var launched int32
	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		// Later launches finish first, so completion order is reversed
		n := atomic.AddInt32(&launched, 1)
		time.Sleep(time.Duration(30-n) * time.Millisecond)
		return time.Duration(n) * time.Millisecond, nil
	}, 8)

	for i, hit := range report.Hits {
		if hit.Index != i {
			t.Errorf("hit at position %d has index %d", i, hit.Index)
		}
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	c := New(Options{}, quietLogger())

	var calls int32
	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		if atomic.AddInt32(&calls, 1)%2 == 0 {
			return 0, errors.New("boom")
		}
		return 5 * time.Millisecond, nil
	}, 10)

	if report.Summary.Successes != 5 || report.Summary.Failures != 5 {
		t.Fatalf("counts = %d/%d, want 5/5", report.Summary.Successes, report.Summary.Failures)
	}
	if report.Summary.SuccessRate != 50 {
		t.Errorf("SuccessRate = %v, want 50", report.Summary.SuccessRate)
	}

	for _, hit := range report.Hits {
		if !hit.Success {
			if hit.Error != "boom" {
				t.Errorf("failed hit carries error %q", hit.Error)
			}
			if hit.ResponseTimeMs != 0 {
				t.Errorf("failed hit without observable time carries %dms", hit.ResponseTimeMs)
			}
		}
	}
}

func TestRunMedianLowerMiddle(t *testing.T) {
	c := New(Options{}, quietLogger())

	durations := []time.Duration{
		40 * time.Millisecond,
		10 * time.Millisecond,
		30 * time.Millisecond,
		20 * time.Millisecond,
	}
	var next int32
	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		i := atomic.AddInt32(&next, 1) - 1
		return durations[i], nil
	}, len(durations))

	// sorted times are 10,20,30,40; even count takes the lower middle
	if report.Summary.MedianMs != 20 {
		t.Errorf("MedianMs = %d, want 20", report.Summary.MedianMs)
	}
	if report.Summary.MinMs != 10 || report.Summary.MaxMs != 40 {
		t.Errorf("min/max = %d/%d", report.Summary.MinMs, report.Summary.MaxMs)
	}
	if report.Summary.MeanMs != 25 {
		t.Errorf("MeanMs = %v, want 25", report.Summary.MeanMs)
	}
}

func TestRunBoundedConcurrency(t *testing.T) {
	c := New(Options{Concurrency: 2}, quietLogger())

	var inFlight, peak int32
	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return time.Millisecond, nil
	}, 6)

	if report.Summary.Successes != 6 {
		t.Fatalf("Successes = %d", report.Summary.Successes)
	}
	if got := atomic.LoadInt32(&peak); got > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", got)
	}
}

func TestRunZeroIterations(t *testing.T) {
	c := New(Options{}, quietLogger())

	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		t.Fatal("operation must not be invoked")
		return 0, nil
	}, 0)

	if len(report.Hits) != 0 || report.Summary.Count != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRunFailureWithObservedTime(t *testing.T) {
	c := New(Options{}, quietLogger())

	report := c.Run(context.Background(), func(ctx context.Context) (time.Duration, error) {
		return 15 * time.Millisecond, errors.New("http 500")
	}, 1)

	hit := report.Hits[0]
	if hit.Success {
		t.Fatal("hit should have failed")
	}
	if hit.ResponseTimeMs != 15 {
		t.Errorf("observed failure time not kept: %dms", hit.ResponseTimeMs)
	}
}
