// Package telemetry records what the query server does: Prometheus
// counters and histograms for tool calls, searches and corpus reloads, and
// an in-memory log of search terms and queries that found nothing. All data
// stays local; the metrics are only exposed on the HTTP transport.
package telemetry
