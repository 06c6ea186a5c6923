// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// otelState is the opaque token OTelRecorder threads between
// OnRequestStart and OnRequestEnd.
type otelState struct {
	span  trace.Span
	start time.Time
}

// OTelRecorder is an ObservabilityRecorder that opens a span per request
// and records a dispatch-duration histogram, wired to stdout exporters so
// it produces usable traces/metrics without a collector. A Router uses it
// only when it is passed to WithObservabilityRecorder; New and MustNew
// configure no recorder.
type OTelRecorder struct {
	tracer     trace.Tracer
	durationMs metric.Float64Histogram
}

// NewOTelRecorder constructs an OTelRecorder backed by stdout trace/metric
// exporters. serviceName is attached to every span and measurement.
func NewOTelRecorder(serviceName string) (*OTelRecorder, error) {
	traceExp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("router: creating stdout trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp))
	otel.SetTracerProvider(tp)

	metricExp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("router: creating stdout metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)))
	otel.SetMeterProvider(mp)

	meter := mp.Meter(serviceName)
	hist, err := meter.Float64Histogram("router.dispatch.duration_ms",
		metric.WithDescription("request dispatch duration in milliseconds"))
	if err != nil {
		return nil, fmt.Errorf("router: creating dispatch duration histogram: %w", err)
	}

	return &OTelRecorder{
		tracer:     tp.Tracer(serviceName),
		durationMs: hist,
	}, nil
}

func (o *OTelRecorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	spanCtx, span := o.tracer.Start(ctx, req.Method+" "+req.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.target", req.URL.Path),
	)
	return spanCtx, &otelState{span: span, start: time.Now()}
}

func (o *OTelRecorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

func (o *OTelRecorder) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, routePattern string) {
	st, ok := state.(*otelState)
	if !ok || st == nil {
		return
	}
	status := http.StatusOK
	if rw, ok := w.(*responseWriter); ok {
		status = rw.StatusCode()
	}
	st.span.SetAttributes(
		attribute.String("http.route", routePattern),
		attribute.Int("http.status_code", status),
	)
	if status >= 500 {
		st.span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
	} else {
		st.span.SetStatus(codes.Ok, "")
	}
	st.span.End()

	o.durationMs.Record(ctx, float64(time.Since(st.start).Microseconds())/1000,
		metric.WithAttributes(attribute.String("route", routePattern), attribute.Int("status", status)))
}

// responseWriter wraps http.ResponseWriter to capture the status code an
// ObservabilityRecorder reports to OnRequestEnd.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.statusCode = http.StatusOK
		rw.written = true
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

func (rw *responseWriter) Size() int64 { return 0 }

var _ ObservabilityRecorder = (*OTelRecorder)(nil)
