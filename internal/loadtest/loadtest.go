// Package loadtest fires concurrent bursts of one endpoint operation and
// analyzes the latency distribution. Each invocation settles
// independently: a failing invocation is captured in its result slot and
// never cancels or affects its siblings.
package loadtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Operation is one invocation of the endpoint under load. It returns the
// observed elapsed time; on failure the elapsed time may be zero when
// none was observable.
type Operation func(ctx context.Context) (time.Duration, error)

// Hit is the outcome of a single invocation, tagged with its launch
// index so report order always corresponds to launch order.
type Hit struct {
	Index          int    `json:"index"`
	Success        bool   `json:"success"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	Error          string `json:"error,omitempty"`
}

// Summary aggregates the observed response times of a burst
type Summary struct {
	Count       int     `json:"count"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"successRate"`
	MinMs       int64   `json:"minMs"`
	MaxMs       int64   `json:"maxMs"`
	MeanMs      float64 `json:"meanMs"`
	MedianMs    int64   `json:"medianMs"`
}

// Report holds per-invocation results in launch order plus the summary
type Report struct {
	Hits    []Hit   `json:"hits"`
	Summary Summary `json:"summary"`
}

// Options configures a load test burst
type Options struct {
	// Concurrency bounds the number of simultaneously in-flight
	// invocations. Zero means unbounded: every iteration is issued in
	// the same instant.
	Concurrency int
	// RateLimit caps launches per second; zero means unlimited
	RateLimit float64
}

// Controller runs load test bursts
type Controller struct {
	opts    Options
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// New creates a load test controller
func New(opts Options, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), int(opts.RateLimit)+1)
	}

	return &Controller{opts: opts, limiter: limiter, log: log}
}

// Run launches iterations invocations of op and waits for all of them to
// settle. Failures are isolated per invocation; the report is always
// complete.
func (c *Controller) Run(ctx context.Context, op Operation, iterations int) Report {
	if iterations <= 0 {
		return Report{Hits: []Hit{}}
	}

	hits := make([]Hit, iterations)

	var sem *semaphore.Weighted
	if c.opts.Concurrency > 0 {
		sem = semaphore.NewWeighted(int64(c.opts.Concurrency))
	}

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < iterations; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			hits[index] = c.invoke(ctx, op, index, sem)
		}(i)
	}
	wg.Wait()

	c.log.WithFields(logrus.Fields{
		"iterations": iterations,
		"elapsed":    time.Since(start).Round(time.Millisecond),
	}).Debug("load test burst settled")

	return Report{Hits: hits, Summary: summarize(hits)}
}

func (c *Controller) invoke(ctx context.Context, op Operation, index int, sem *semaphore.Weighted) Hit {
	hit := Hit{Index: index}

	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			hit.Error = err.Error()
			return hit
		}
		defer sem.Release(1)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			hit.Error = err.Error()
			return hit
		}
	}

	elapsed, err := op(ctx)
	if err != nil {
		hit.Error = err.Error()
		if elapsed > 0 {
			hit.ResponseTimeMs = elapsed.Milliseconds()
		}
		return hit
	}

	hit.Success = true
	hit.ResponseTimeMs = elapsed.Milliseconds()
	return hit
}

// summarize computes latency statistics over every response time that
// was actually observed: successful hits plus failures where a duration
// was measurable.
func summarize(hits []Hit) Summary {
	s := Summary{Count: len(hits)}

	var times []int64
	var total int64
	for _, hit := range hits {
		if hit.Success {
			s.Successes++
		} else {
			s.Failures++
		}
		if hit.Success || hit.ResponseTimeMs > 0 {
			times = append(times, hit.ResponseTimeMs)
			total += hit.ResponseTimeMs
		}
	}

	if s.Count > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Count) * 100
	}
	if len(times) == 0 {
		return s
	}

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	s.MinMs = times[0]
	s.MaxMs = times[len(times)-1]
	s.MeanMs = float64(total) / float64(len(times))
	// Lower-middle element for even counts, no interpolation
	s.MedianMs = times[(len(times)-1)/2]

	return s
}
