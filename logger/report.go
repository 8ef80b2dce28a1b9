package logger

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	requestsSent      int64
	requestRetries    int64
	quotaWaits        int64
	matchesNormalized int64
	matchesIncomplete int64
	eventsClassified  int64
	rowsWritten       int64
	reparseRequests   int64
	clientErrors      int64
	processorErrors   int64
	writerErrors      int64
	clientWarns       int64
	processorWarns    int64
	writerWarns       int64
)

func recordWarn(component string) {
	switch {
	case component == "stratz_client":
		atomic.AddInt64(&clientWarns, 1)
	case component == "normalizer" || component == "classifier":
		atomic.AddInt64(&processorWarns, 1)
	case component == "writer" || component == "staging":
		atomic.AddInt64(&writerWarns, 1)
	}
}

func recordError(component string) {
	switch {
	case component == "stratz_client":
		atomic.AddInt64(&clientErrors, 1)
	case component == "normalizer" || component == "classifier":
		atomic.AddInt64(&processorErrors, 1)
	case component == "writer" || component == "staging":
		atomic.AddInt64(&writerErrors, 1)
	}
}

// IncrementRequestSent records one request executed against the upstream API.
func IncrementRequestSent() {
	atomic.AddInt64(&requestsSent, 1)
}

// IncrementRequestRetry records one retried request attempt.
func IncrementRequestRetry() {
	atomic.AddInt64(&requestRetries, 1)
}

// IncrementQuotaWait records one blocking wait on the quota bucket.
func IncrementQuotaWait() {
	atomic.AddInt64(&quotaWaits, 1)
}

// IncrementMatchNormalized records one fully normalized match.
func IncrementMatchNormalized(eventCount int) {
	atomic.AddInt64(&matchesNormalized, 1)
	atomic.AddInt64(&eventsClassified, int64(eventCount))
}

// IncrementMatchIncomplete records one match staged for reparse.
func IncrementMatchIncomplete() {
	atomic.AddInt64(&matchesIncomplete, 1)
}

// IncrementRowsWritten records rows upserted into the store.
func IncrementRowsWritten(n int) {
	atomic.AddInt64(&rowsWritten, int64(n))
}

// IncrementReparseRequest records one reprocess request issued upstream.
func IncrementReparseRequest() {
	atomic.AddInt64(&reparseRequests, 1)
}

// StartReport periodically logs a summary of pipeline counters.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.WithComponent("report").WithFields(Fields{
					"requests_sent":      atomic.LoadInt64(&requestsSent),
					"request_retries":    atomic.LoadInt64(&requestRetries),
					"quota_waits":        atomic.LoadInt64(&quotaWaits),
					"matches_normalized": atomic.LoadInt64(&matchesNormalized),
					"matches_incomplete": atomic.LoadInt64(&matchesIncomplete),
					"events_classified":  atomic.LoadInt64(&eventsClassified),
					"rows_written":       atomic.LoadInt64(&rowsWritten),
					"reparse_requests":   atomic.LoadInt64(&reparseRequests),
					"client_errors":      atomic.LoadInt64(&clientErrors),
					"client_warns":       atomic.LoadInt64(&clientWarns),
					"processor_errors":   atomic.LoadInt64(&processorErrors),
					"processor_warns":    atomic.LoadInt64(&processorWarns),
					"writer_errors":      atomic.LoadInt64(&writerErrors),
					"writer_warns":       atomic.LoadInt64(&writerWarns),
				}).Info("pipeline report")
			}
		}
	}()
}
