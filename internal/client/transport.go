package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/raphaelgruber/moodon/internal/metrics"
)

// maxPathLogLen is the maximum length for logged request paths before truncation.
const maxPathLogLen = 200

// slowRequestThreshold is the duration above which requests are logged at WARN level.
// Message sends wait on the recommender, so this is generous.
const slowRequestThreshold = 5 * time.Second

// loggingTransport logs every round trip with timing and records it in the collector.
type loggingTransport struct {
	next    http.RoundTripper
	logger  *slog.Logger
	metrics *metrics.Collector
}

func newLoggingTransport(next http.RoundTripper, logger *slog.Logger, m *metrics.Collector) *loggingTransport {
	return &loggingTransport{next: next, logger: logger, metrics: m}
}

// RoundTrip implements http.RoundTripper.
func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	duration := time.Since(start)

	op := req.Method + " " + req.URL.Path
	attrs := []any{
		"method", req.Method,
		"path", truncate(req.URL.Path, maxPathLogLen),
		"duration_ms", duration.Milliseconds(),
	}

	failed := err != nil || resp.StatusCode >= 400
	t.metrics.RecordTiming(op, duration, failed)

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Error("request failed", attrs...)
	case resp.StatusCode >= 500:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Error("request failed", attrs...)
	case resp.StatusCode >= 400:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("request rejected", attrs...)
	case duration > slowRequestThreshold:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("slow request", attrs...)
	default:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Debug("request completed", attrs...)
	}

	return resp, err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
