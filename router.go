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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// noopLogger is the singleton no-op logger returned by NoopLogger; the
// router itself does not log through it.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger, for ObservabilityRecorder
// implementations that want a safe default when logging is disabled.
func NoopLogger() *slog.Logger { return noopLogger }

// Option configures a Router at construction time.
type Option func(*Router)

// Router matches incoming requests against registered Endpoints, running
// them through the Filter chain and Hook Registry. Router
// implements only http.Handler: it never manages a server's lifecycle, so
// callers own the *http.Server (or any other transport) that delivers
// requests to it.
type Router struct {
	mu      sync.RWMutex
	tree    *routeTree
	filters []*Filter
	mounts  []mountEntry
	hooks   *HookRegistry

	defaultSerializer Serializer
	serializers       map[string]Serializer

	notFoundHandler         NotFoundFunc
	methodNotAllowedHandler MethodNotAllowedFunc
	errorHandler            ErrorFunc

	trailingSlash TrailingSlashMode
	parsePostBody bool

	env *Environment

	realip        *realIPConfig
	observability ObservabilityRecorder
	diagnostics   DiagnosticHandler

	frozen atomic.Bool
}

// New constructs a Router, applying opts in order and validating the
// resulting configuration eagerly.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		tree:              newRouteTree(),
		hooks:             newHookRegistry(),
		defaultSerializer: jsonSerializer{},
		parsePostBody:     true,
		env:               NewEnvironment(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("router: invalid configuration: %w", err)
	}
	if r.notFoundHandler == nil {
		r.notFoundHandler = defaultNotFound
	}
	if r.methodNotAllowedHandler == nil {
		r.methodNotAllowedHandler = defaultMethodNotAllowed
	}
	if r.errorHandler == nil {
		r.errorHandler = defaultErrorHandler
	}
	r.hooks.observe = r.observeHook
	return r, nil
}

// MustNew is New, panicking on a configuration error.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router.MustNew: %v", err))
	}
	return r
}

func (r *Router) validate() error {
	for name := range r.serializers {
		if reservedFilterNames[name] {
			return fmt.Errorf("%w: serializer name %q collides with a hook bucket", ErrForbiddenArg, name)
		}
	}
	return nil
}

// observeHook adds a span event at each end of the dispatch pipeline
// (called once from runPreroute, once from runPostserialize) when the
// caller's ObservabilityRecorder has placed a recording span on the
// request's context, e.g. via OTelRecorder.OnRequestStart. It is a no-op
// when there is no recording span, independent of whether diagnostics are
// configured — the two are separate concerns wired through the same
// internal hook path.
func (r *Router) observeHook(req *Request, res *Response) {
	span := trace.SpanFromContext(req.Context())
	if span.IsRecording() {
		span.AddEvent("router.dispatch")
	}
}

// emit sends a diagnostic event if a handler is configured. Diagnostics
// never affect request handling; the router behaves identically whether
// they are observed or not.
func (r *Router) emit(kind DiagnosticKind, message string, fields map[string]any) {
	if r.diagnostics != nil {
		r.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: message, Fields: fields})
	}
}

// freeze prevents further mutation of the router's routing tables. Builder
// Facade methods that mutate registration state check this and fail with
// ErrRouterFrozen once set.
func (r *Router) freeze() { r.frozen.Store(true) }

func (r *Router) checkMutable() error {
	if r.frozen.Load() {
		return ErrRouterFrozen
	}
	return nil
}

// resolveFilterStart finds the index in r.filters to begin filter
// execution from, honoring an endpoint's preempt selector: the named
// filter and every filter registered before it are skipped.
func (r *Router) resolveFilterStart(preempt string) (int, error) {
	if preempt == "" {
		return 0, nil
	}
	for i, f := range r.filters {
		if f.Name() == preempt {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreempt, preempt)
}

// Call runs the full dispatch pipeline against an already-acquired
// Request/Response pair; net/http is involved only when a mounted
// http.Handler claims the request. This is the narrow entrypoint for
// embedding the router's logic in a transport other than net/http, and is
// what tests drive directly.
func (r *Router) Call(req *Request, res *Response) {
	if req.Scratch == nil {
		req.Scratch = make(map[string]any)
	}

	r.hooks.runPreroute(req.Scratch, req, res)

	match, mount, mountSuffix, ok := r.route(req)
	if !ok {
		if mount != nil {
			mount.handler.ServeHTTP(newResponseAdapter(res), mountRequest(req, mountSuffix))
			return
		}
		r.respondRoutingFailure(req, res)
		return
	}

	req.endpoint = match.endpoint
	req.captures = match.captures

	r.mu.RLock()
	filters := r.filters
	r.mu.RUnlock()

	start, err := r.resolveFilterStart(match.endpoint.Preempt())
	if err != nil {
		r.handleFailure(req, res, stageErr("endpoint", err))
		return
	}

	var value any
	failed := false
	for i := start; i < len(filters); i++ {
		outcome := filters[i].run(req, res)
		switch outcome.Kind {
		case Forward:
			continue
		case Reply:
			value = outcome.Value
			goto postroute
		case Fail:
			r.handleFailure(req, res, stageErr("filter:"+filters[i].Name(), outcome.Err))
			failed = true
		}
		break
	}
	if failed {
		return
	}

	value, err = match.endpoint.exec(req, res, match.captures)
	if err != nil {
		r.handleFailure(req, res, err)
		return
	}

postroute:
	r.finishPipeline(req, res, value)
}

// finishPipeline runs postroute, preserialize, serialize and postserialize
// for a value produced either by the endpoint, a replying filter, or a
// claimed error hook.
func (r *Router) finishPipeline(req *Request, res *Response, value any) {
	value = r.hooks.runPostroute(req.Scratch, req, res, value)
	value = r.hooks.runPreserialize(req.Scratch, req, res, value)

	serializer := r.selectSerializer(req.endpoint)
	if err := serializer.Serialize(value, req, res); err != nil {
		r.handleFailure(req, res, stageErr("serialize", err))
		return
	}
	finalRes := r.hooks.runPostserialize(req.Scratch, req, res)
	if finalRes != res {
		*res = *finalRes
	}
}

func (r *Router) selectSerializer(ep *Endpoint) Serializer {
	if ep != nil && ep.Serializer() != "" {
		r.mu.RLock()
		s, ok := r.serializers[ep.Serializer()]
		r.mu.RUnlock()
		if ok {
			return s
		}
	}
	if r.defaultSerializer != nil {
		return r.defaultSerializer
	}
	return jsonSerializer{}
}

// handleFailure runs the error hook bucket; a hook that claims the failure
// produces an alternate value which still flows through the remaining
// pipeline stages. An unclaimed failure is terminal: the router's
// ErrorFunc writes the response directly and no further stage runs.
func (r *Router) handleFailure(req *Request, res *Response, err error) {
	if value, claimed := r.hooks.runError(req, res, err); claimed {
		r.finishPipeline(req, res, value)
		return
	}
	r.errorHandler(req, res, err)
}

// respondRoutingFailure answers a request that matched no endpoint and no
// mount with a 404 or 405; these never escape Call as a bare error.
func (r *Router) respondRoutingFailure(req *Request, res *Response) {
	allowed := req.allowedOverride
	if len(allowed) > 0 {
		r.methodNotAllowedHandler(req, res, allowed)
		return
	}
	r.notFoundHandler(req, res)
}

type routeResult struct {
	endpoint *Endpoint
	captures map[string]string
}

// route resolves a request to either a matched Endpoint or a claiming
// mount, applying the configured TrailingSlashMode when the request path
// carries a trailing slash the registered form does not.
func (r *Router) route(req *Request) (routeResult, *mountEntry, string, bool) {
	// The tree keys a path without its trailing slash (CompilePattern and
	// splitPath both trim it), so whether the matched endpoint was
	// registered with a trailing slash is read back from its pattern source
	// and compared against the request path explicitly.
	hasTrailingSlash := req.Path != "/" && strings.HasSuffix(req.Path, "/")
	lookupPath := req.Path
	if hasTrailingSlash {
		lookupPath = strings.TrimSuffix(req.Path, "/")
	}

	r.mu.RLock()
	m := r.tree.lookup(lookupPath, req.Verb)
	r.mu.RUnlock()
	if m.ok {
		src := m.endpoint.Pattern().String()
		registeredSlash := src != "/" && strings.HasSuffix(src, "/")
		if hasTrailingSlash == registeredSlash {
			return routeResult{endpoint: m.endpoint, captures: m.captures}, nil, "", true
		}
		if r.trailingSlash == TrailingSlashRedirect {
			target := lookupPath
			if registeredSlash {
				target = req.Path + "/"
			}
			req.redirectTo = target
			r.emit(DiagTrailingSlashHit, "trailing-slash redirect", map[string]any{
				"from": req.Path, "to": target,
			})
			return routeResult{}, nil, "", false
		}
		// TrailingSlashOff and TrailingSlashStrict404 both treat a
		// mismatched trailing slash as no match: fall through to 404 below.
	}

	if mnt, suffix, ok := r.matchMount(req.Path); ok {
		return routeResult{}, mnt, suffix, false
	}

	if m.verbMismatch {
		req.allowedOverride = m.allowed
	}
	return routeResult{}, nil, "", false
}

func (r *Router) allowedVerbsFor(path string) []string {
	r.mu.RLock()
	tree := r.tree
	r.mu.RUnlock()
	m := tree.lookup(path, "__nonexistent__")
	if m.verbMismatch {
		return m.allowed
	}
	return nil
}

// ServeHTTP adapts a net/http request into the narrow Request/Response
// pair Call operates on, and writes the final Response back out.
func (r *Router) ServeHTTP(w http.ResponseWriter, httpReq *http.Request) {
	req := acquireRequest()
	res := acquireResponse()
	defer releaseRequest(req)
	defer releaseResponse(res)

	r.populateRequest(req, httpReq)

	var obsState any
	ctx := httpReq.Context()
	if r.observability != nil {
		ctx, obsState = r.observability.OnRequestStart(ctx, httpReq)
		httpReq = httpReq.WithContext(ctx)
		req.ctx = ctx
		if obsState != nil {
			w = r.observability.WrapResponseWriter(w, obsState)
		}
	}

	r.Call(req, res)

	if req.redirectTo != "" {
		target := req.redirectTo
		if req.RawQuery != "" {
			target += "?" + req.RawQuery
		}
		http.Redirect(w, httpReq, target, http.StatusTemporaryRedirect)
	} else {
		writeResponse(w, res)
	}

	if r.observability != nil && obsState != nil {
		routePattern := "_unmatched"
		if req.endpoint != nil {
			routePattern = req.endpoint.Pattern().String()
		} else if res.Status == 404 {
			routePattern = "_not_found"
		} else if res.Status == 405 {
			routePattern = "_method_not_allowed"
		}
		r.observability.OnRequestEnd(ctx, obsState, w, routePattern)
	}
}

func (r *Router) populateRequest(req *Request, httpReq *http.Request) {
	req.Verb = httpReq.Method
	req.Path = httpReq.URL.Path
	req.RawQuery = httpReq.URL.RawQuery
	req.Query = map[string][]string(httpReq.URL.Query())
	req.Headers = httpReq.Header
	req.Raw = httpReq
	req.ctx = httpReq.Context()
	req.RemoteIP = r.clientIP(httpReq)

	if len(httpReq.Cookies()) > 0 {
		req.Cookies = make(map[string]*http.Cookie, len(httpReq.Cookies()))
		for _, c := range httpReq.Cookies() {
			req.Cookies[c.Name] = c
		}
	}

	if r.parsePostBody && bodyExpected(httpReq.Method) && isJSONContentType(httpReq.Header.Get("Content-Type")) {
		b, err := io.ReadAll(httpReq.Body)
		if err == nil && len(b) > 0 {
			req.RawBody = b
			var body map[string]any
			if json.Unmarshal(b, &body) == nil {
				req.Body = body
			}
		}
	}
}

func bodyExpected(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

func isJSONContentType(ct string) bool {
	return strings.HasPrefix(strings.TrimSpace(ct), "application/json")
}

func writeResponse(w http.ResponseWriter, res *Response) {
	for k, vs := range res.Headers {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := res.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(res.Body) > 0 {
		_, _ = w.Write(res.Body)
	}
}

// responseAdapter lets a mounted http.Handler write through to a pooled
// Response the same way a directly-matched Endpoint does, so observability
// and final writing stay uniform regardless of which path served the
// request.
type responseAdapter struct {
	res    *Response
	header http.Header
}

func newResponseAdapter(res *Response) *responseAdapter {
	return &responseAdapter{res: res, header: make(http.Header)}
}

func (a *responseAdapter) Header() http.Header { return a.header }

func (a *responseAdapter) Write(b []byte) (int, error) {
	a.res.Body = append(a.res.Body, b...)
	a.res.written = true
	if a.res.Status == 0 {
		a.res.Status = http.StatusOK
	}
	return len(b), nil
}

func (a *responseAdapter) WriteHeader(code int) {
	a.res.Status = code
	for k, vs := range a.header {
		for _, v := range vs {
			a.res.SetHeader(k, v)
			_ = v
		}
	}
	a.res.Headers = a.header.Clone()
}

// mountRequest reconstructs a minimal *http.Request for a mounted handler
// from the narrow Request, rewriting the path to suffix — the unconsumed
// remainder after the mount's prefix was stripped.
// A mounted *Router's own ServeHTTP reads the path straight off this
// request, so the rewrite must happen here before delegating.
func mountRequest(req *Request, suffix string) *http.Request {
	base := req.Raw
	var header http.Header
	var body io.Reader
	if base != nil {
		header = base.Header
		body = base.Body
	} else {
		header = req.Headers
	}
	u := &url.URL{Path: suffix, RawQuery: req.RawQuery}
	out, _ := http.NewRequest(req.Verb, u.String(), body)
	out.Header = header
	if base != nil {
		out = out.WithContext(base.Context())
	}
	return out
}
