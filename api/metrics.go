package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "kanban-api/api"
	reportEventName   = "report.request"
	reportEventDomain = "kanban"
	reportRoute       = "/api/report"
)

// reportRequestMetrics collects per-request timings for the report route
// and emits them both as an otel span and as a structured log event.
type reportRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	buildDuration  time.Duration
	encodeDuration time.Duration
	cardsReported  int
	errorStage     string
}

func newReportRequestMetrics(ctx context.Context, logger *log.Logger) (*reportRequestMetrics, context.Context) {
	m := &reportRequestMetrics{logger: logger, start: time.Now()}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, reportEventName)
	m.span = span
	return m, spanCtx
}

func (m *reportRequestMetrics) ObserveBuild(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.buildDuration = duration
}

func (m *reportRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *reportRequestMetrics) SetCardsReported(count int) {
	if count < 0 {
		count = 0
	}
	m.cardsReported = count
}

func (m *reportRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

// Log finishes the span and writes one observability event carrying the
// same attributes.
func (m *reportRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	totalMillis := durationToMillis(time.Since(m.start))
	attrs := map[string]any{
		"http.route":             reportRoute,
		"http.status_code":       status,
		"kanban.report.total_ms": totalMillis,
		"kanban.report.cards":    m.cardsReported,
	}
	spanAttrs := []attribute.KeyValue{
		attribute.String("http.route", reportRoute),
		attribute.Int("http.status_code", status),
		attribute.Float64("kanban.report.total_ms", totalMillis),
		attribute.Int("kanban.report.cards", m.cardsReported),
	}
	if m.buildDuration > 0 {
		ms := durationToMillis(m.buildDuration)
		attrs["kanban.report.build_ms"] = ms
		spanAttrs = append(spanAttrs, attribute.Float64("kanban.report.build_ms", ms))
	}
	if m.encodeDuration > 0 {
		ms := durationToMillis(m.encodeDuration)
		attrs["kanban.report.encode_ms"] = ms
		spanAttrs = append(spanAttrs, attribute.Float64("kanban.report.encode_ms", ms))
	}
	if m.errorStage != "" {
		attrs["error_stage"] = m.errorStage
		spanAttrs = append(spanAttrs, attribute.String("error_stage", m.errorStage))
	}

	severity := "INFO"
	if m.span != nil {
		m.span.SetAttributes(spanAttrs...)
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	fields := log.Fields{
		"event.name":    reportEventName,
		"event.domain":  reportEventDomain,
		"severity_text": severity,
		"attributes":    attrs,
	}
	if err != nil {
		fields["severity_text"] = "ERROR"
		fields["error"] = err.Error()
		m.logger.WithFields(fields).Error("observability.event")
		return
	}
	m.logger.WithFields(fields).Info("observability.event")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
