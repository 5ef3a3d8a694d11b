package httpclient

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RepeatOptions controls Repeat.
type RepeatOptions struct {
	Count       int     // number of requests, at least 1
	Rate        float64 // requests per second, 0 for no limit
	Concurrency int     // parallel workers, defaults to 1
}

// Summary aggregates the outcome of Repeat.
type Summary struct {
	Total       int64
	Succeeded   int64
	Failed      int64
	StatusCodes map[int]int64
	Duration    time.Duration

	Min time.Duration
	Avg time.Duration
	P50 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration

	// Last is the most recently completed response.
	Last *Response
	// Err is the most recent transport error.
	Err error
}

// Repeat sends req Count times, paced by a rate limiter.
func (c *Client) Repeat(ctx context.Context, req Request, opts RepeatOptions) (*Summary, error) {
	if opts.Count < 1 {
		return nil, fmt.Errorf("repeat count must be at least 1, got %d", opts.Count)
	}
	if opts.Rate < 0 {
		return nil, fmt.Errorf("rate must not be negative, got %v", opts.Rate)
	}
	workers := max(opts.Concurrency, 1)
	workers = min(workers, opts.Count)

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	var (
		total, succeeded, failed int64
		mu                       sync.Mutex
		latencies                []time.Duration
		statusCodes              = make(map[int]int64)
		last                     *Response
		lastErr                  error
		wg                       sync.WaitGroup
	)

	jobs := make(chan struct{}, opts.Count)
	for i := 0; i < opts.Count; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				resp, err := c.Do(ctx, req)

				mu.Lock()
				total++
				if err != nil {
					failed++
					lastErr = err
				} else {
					succeeded++
					latencies = append(latencies, resp.Duration)
					statusCodes[resp.StatusCode]++
					last = resp
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s := &Summary{
		Total:       total,
		Succeeded:   succeeded,
		Failed:      failed,
		StatusCodes: statusCodes,
		Duration:    time.Since(start),
		Last:        last,
		Err:         lastErr,
	}
	s.fillLatencies(latencies)

	if err := ctx.Err(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Summary) fillLatencies(latencies []time.Duration) {
	if len(latencies) == 0 {
		return
	}
	slices.Sort(latencies)

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	s.Min = latencies[0]
	s.Max = latencies[len(latencies)-1]
	s.Avg = sum / time.Duration(len(latencies))
	s.P50 = latencies[percentileIndex(len(latencies), 50)]
	s.P95 = latencies[percentileIndex(len(latencies), 95)]
	s.P99 = latencies[percentileIndex(len(latencies), 99)]
}

func percentileIndex(n int, percentile int) int {
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*float64(percentile)/100.0)) - 1
	return min(max(index, 0), n-1)
}
