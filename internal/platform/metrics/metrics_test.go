package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(429, 0)
	c.Record(503, 30*time.Millisecond)

	snap := c.Snapshot()
	if snap["requestsTotal"] != uint64(3) || snap["errorsTotal"] != uint64(1) || snap["rateLimitedTotal"] != uint64(1) {
		t.Fatalf("unexpected snapshot %v", snap)
	}
	if snap["avgDurationMs"].(float64) <= 0 {
		t.Fatalf("expected positive average, got %v", snap["avgDurationMs"])
	}
}

func TestCollectorCountsEventsConcurrently(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Count(EventFeedbackSubmitted)
		}()
	}
	wg.Wait()

	events := c.Snapshot()["events"].(map[string]uint64)
	if events[EventFeedbackSubmitted] != 10 {
		t.Fatalf("expected 10 submissions, got %d", events[EventFeedbackSubmitted])
	}

	var nilCollector *Collector
	nilCollector.Count(EventReviewCreated)
}
