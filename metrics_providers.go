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
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder is an alternative ObservabilityRecorder backend: it
// exposes route-dispatch counters and a duration histogram as a
// prometheus.Collector, for routers deployed alongside a Prometheus
// scraper rather than an OTel collector.
type PrometheusRecorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder constructs a PrometheusRecorder and registers its
// collectors on reg. Pass prometheus.DefaultRegisterer to use the global
// registry.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "router_requests_total",
			Help: "Total HTTP requests processed by route and status.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "router_dispatch_duration_seconds",
			Help:    "Request dispatch duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	reg.MustRegister(p.requests, p.duration)
	return p
}

type prometheusState struct {
	route   string
	method  string
	start   time.Time
}

func (p *PrometheusRecorder) OnRequestStart(ctx context.Context, req *http.Request) (context.Context, any) {
	return ctx, &prometheusState{method: req.Method, start: time.Now()}
}

func (p *PrometheusRecorder) WrapResponseWriter(w http.ResponseWriter, state any) http.ResponseWriter {
	if state == nil {
		return w
	}
	return &responseWriter{ResponseWriter: w}
}

func (p *PrometheusRecorder) OnRequestEnd(ctx context.Context, state any, w http.ResponseWriter, routePattern string) {
	st, ok := state.(*prometheusState)
	if !ok || st == nil {
		return
	}
	status := http.StatusOK
	if rw, ok := w.(*responseWriter); ok {
		status = rw.StatusCode()
	}
	p.requests.WithLabelValues(routePattern, st.method, statusBucket(status)).Inc()
	p.duration.WithLabelValues(routePattern, st.method).Observe(time.Since(st.start).Seconds())
}

func statusBucket(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}

var _ ObservabilityRecorder = (*PrometheusRecorder)(nil)
