package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter, func()) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	return tp, exporter, func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	}
}

func TestReportRequestMetricsLogProducesObservabilityEvent(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetFormatter(&log.JSONFormatter{})

	_, exporter, restore := setupTestTracer(t)
	defer restore()

	metrics, spanCtx := newReportRequestMetrics(context.Background(), logger)
	if spanCtx == nil {
		t.Fatal("expected span context")
	}
	metrics.start = metrics.start.Add(-50 * time.Millisecond)
	metrics.ObserveBuild(15 * time.Millisecond)
	metrics.ObserveEncode(5 * time.Millisecond)
	metrics.SetCardsReported(3)

	metrics.Log(http.StatusOK, nil)

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Message != "observability.event" {
		t.Fatalf("unexpected message: %s", entry.Message)
	}
	if got := entry.Data["event.name"]; got != reportEventName {
		t.Fatalf("unexpected event name: %v", got)
	}
	if got := entry.Data["event.domain"]; got != reportEventDomain {
		t.Fatalf("unexpected event domain: %v", got)
	}
	if got := entry.Data["severity_text"]; got != "INFO" {
		t.Fatalf("unexpected severity: %v", got)
	}
	attrs, ok := entry.Data["attributes"].(map[string]any)
	if !ok {
		t.Fatalf("attributes not logged as map: %#v", entry.Data["attributes"])
	}
	if attrs["http.route"] != reportRoute {
		t.Fatalf("unexpected route attribute: %#v", attrs["http.route"])
	}
	if attrs["kanban.report.cards"] != 3 {
		t.Fatalf("unexpected cards attribute: %#v", attrs["kanban.report.cards"])
	}
	if attrs["kanban.report.total_ms"] == 0.0 {
		t.Fatalf("expected total duration attribute, got %#v", attrs["kanban.report.total_ms"])
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name != reportEventName {
		t.Fatalf("unexpected span name: %s", spans[0].Name)
	}
}

func TestReportRequestMetricsLogsErrorSeverity(t *testing.T) {
	logger, hook := test.NewNullLogger()

	_, _, restore := setupTestTracer(t)
	defer restore()

	metrics, _ := newReportRequestMetrics(context.Background(), logger)
	metrics.SetErrorStage("encode_response")
	metrics.Log(http.StatusInternalServerError, errors.New("boom"))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != log.ErrorLevel {
		t.Fatalf("unexpected level: %v", entry.Level)
	}
	if entry.Data["severity_text"] != "ERROR" {
		t.Fatalf("unexpected severity: %v", entry.Data["severity_text"])
	}
	attrs, ok := entry.Data["attributes"].(map[string]any)
	if !ok {
		t.Fatalf("attributes not logged as map: %#v", entry.Data["attributes"])
	}
	if attrs["error_stage"] != "encode_response" {
		t.Fatalf("unexpected error stage: %#v", attrs["error_stage"])
	}
}
