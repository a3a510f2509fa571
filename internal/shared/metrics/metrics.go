package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	quotesProcessedTotal atomic.Uint64
	quotesBlockedTotal   atomic.Uint64
	quotesFailedTotal    atomic.Uint64
	eventsCreatedTotal   atomic.Uint64
	eventsExistingTotal  atomic.Uint64
	eventsFailedTotal    atomic.Uint64

	schedulingDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncQuoteProcessed increments the processed-quotes counter.
func IncQuoteProcessed() {
	quotesProcessedTotal.Add(1)
}

// IncQuoteBlocked increments the duplicate-blocked counter.
func IncQuoteBlocked() {
	quotesBlockedTotal.Add(1)
}

// IncQuoteFailed increments the failed-quotes counter.
func IncQuoteFailed() {
	quotesFailedTotal.Add(1)
}

// IncEventCreated increments the created-events counter.
func IncEventCreated() {
	eventsCreatedTotal.Add(1)
}

// IncEventExisting increments the already-existed counter.
func IncEventExisting() {
	eventsExistingTotal.Add(1)
}

// IncEventFailed increments the failed-events counter.
func IncEventFailed() {
	eventsFailedTotal.Add(1)
}

// ObserveSchedulingDurationMs records a full scheduling pass in milliseconds.
func ObserveSchedulingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	schedulingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "quotes_processed_total", "Total quotation PDFs processed", quotesProcessedTotal.Load())
	writeCounter(&buf, "quotes_blocked_total", "Total duplicate quotations blocked", quotesBlockedTotal.Load())
	writeCounter(&buf, "quotes_failed_total", "Total quotation uploads that failed", quotesFailedTotal.Load())
	writeCounter(&buf, "followup_events_created_total", "Total follow-up events created", eventsCreatedTotal.Load())
	writeCounter(&buf, "followup_events_existing_total", "Total follow-up events found already existing", eventsExistingTotal.Load())
	writeCounter(&buf, "followup_events_failed_total", "Total follow-up events that failed", eventsFailedTotal.Load())
	writeHistogram(&buf, "scheduling_duration_ms", "Calendar scheduling duration in milliseconds", schedulingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)+1),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx := len(h.buckets)
	for i, bound := range h.buckets {
		if value <= bound {
			idx = i
			break
		}
	}
	h.counts[idx]++
	h.sum += value
	h.count++
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	counts := make([]uint64, len(h.counts))
	copy(counts, h.counts)
	return histogramSnapshot{
		buckets: h.buckets,
		counts:  counts,
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	cumulative := uint64(0)
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, strconv.FormatFloat(bound, 'f', -1, 64), cumulative)
	}
	cumulative += snap.counts[len(snap.buckets)]
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, cumulative)
	fmt.Fprintf(buf, "%s_sum %s\n", name, strconv.FormatFloat(snap.sum, 'f', -1, 64))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}
