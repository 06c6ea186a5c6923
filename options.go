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

// TrailingSlashMode controls how a request path differing from a
// registered pattern only by a trailing slash is handled.
type TrailingSlashMode int

const (
	// TrailingSlashOff treats "/a" and "/a/" as distinct paths; no special
	// handling is performed.
	TrailingSlashOff TrailingSlashMode = iota
	// TrailingSlashStrict404 returns a 404 for the form (with or without
	// the trailing slash) that has no direct registration, even if the
	// other form is registered.
	TrailingSlashStrict404
	// TrailingSlashRedirect issues a 307 redirect to the registered form,
	// preserving the raw query string.
	TrailingSlashRedirect
)

// WithDiagnostics sets a diagnostic handler for the router. Diagnostic
// events are optional informational events (e.g. a malformed proxy header
// from a trusted peer) that never affect request handling.
//
// Example:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	r := router.MustNew(router.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(r *Router) {
		r.diagnostics = handler
	}
}

// WithTrailingSlash sets the trailing-slash handling mode. Default is
// TrailingSlashOff.
func WithTrailingSlash(mode TrailingSlashMode) Option {
	return func(r *Router) {
		r.trailingSlash = mode
	}
}

// WithParsePostBody enables parsing the request body into Request.Body for
// POST/PUT/PATCH requests with a JSON content type, before the Argument
// Binder and any endpoint handler run. Default is enabled.
func WithParsePostBody(enabled bool) Option {
	return func(r *Router) {
		r.parsePostBody = enabled
	}
}

// WithDefaultSerializer sets the Serializer used when an endpoint does not
// select one by name. The built-in default is a minimal JSON serializer.
func WithDefaultSerializer(s Serializer) Option {
	return func(r *Router) {
		r.defaultSerializer = s
	}
}

// WithSerializer registers a named Serializer an endpoint can select via
// its serializer selector.
func WithSerializer(name string, s Serializer) Option {
	return func(r *Router) {
		if r.serializers == nil {
			r.serializers = make(map[string]Serializer)
		}
		r.serializers[name] = s
	}
}

// WithNotFoundHandler overrides the default 404 response.
func WithNotFoundHandler(fn NotFoundFunc) Option {
	return func(r *Router) {
		r.notFoundHandler = fn
	}
}

// WithMethodNotAllowedHandler overrides the default 405 response.
func WithMethodNotAllowedHandler(fn MethodNotAllowedFunc) Option {
	return func(r *Router) {
		r.methodNotAllowedHandler = fn
	}
}

// WithErrorHandler overrides the default error response produced when a
// filter, hook or endpoint fails and no error hook claims the failure.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(r *Router) {
		r.errorHandler = fn
	}
}

// WithEvaluationEnvironment sets the Environment deferred-expression
// filters and endpoints registered via the Loader Adapter are resolved
// against. A Router created without this option gets a
// fresh, empty Environment.
func WithEvaluationEnvironment(env *Environment) Option {
	return func(r *Router) {
		r.env = env
	}
}

// WithObservabilityRecorder sets the unified observability recorder
// (tracing, metrics, logging) for the router. Pass nil to disable.
func WithObservabilityRecorder(rec ObservabilityRecorder) Option {
	return func(r *Router) {
		r.observability = rec
	}
}
