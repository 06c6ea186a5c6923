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
	"fmt"
	"strings"
)

// EndpointFunc is a handler for one (verbs, path) pair. It returns the
// value the pipeline carries forward; an endpoint never
// writes status/body itself except by mutating res directly.
type EndpointFunc func(req *Request, res *Response) (any, error)

// Endpoint is a leaf handler for one (verbs, path) pair, immutable after
// registration.
type Endpoint struct {
	verbs      []string
	pattern    *Pattern
	handler    *handlerThunk
	preempt    string // filter name skipped (along with all earlier filters) when set
	serializer string // serializer selector; "" means router-default
	metadata   map[string]any
	params     *paramDescriptor // Argument Binder descriptor, built once at registration
}

// Verbs returns the HTTP methods this endpoint accepts.
func (e *Endpoint) Verbs() []string { return e.verbs }

// Pattern returns the compiled path pattern.
func (e *Endpoint) Pattern() *Pattern { return e.pattern }

// Preempt returns the filter name this endpoint pre-empts, or "" if none.
func (e *Endpoint) Preempt() string { return e.preempt }

// Serializer returns the endpoint's serializer selector, or "" for the
// router default.
func (e *Endpoint) Serializer() string { return e.serializer }

// Metadata returns the endpoint's free-form documentation bag. The core
// never interprets it; it exists for an external OpenAPI generator.
func (e *Endpoint) Metadata() map[string]any { return e.metadata }

// validVerbs are the HTTP methods the core accepts as its verb
// vocabulary.
var validVerbs = map[string]bool{
	"GET": true, "PUT": true, "POST": true, "DELETE": true,
	"HEAD": true, "OPTIONS": true, "PATCH": true,
}

// reservedMetadataKeys names metadata keys a caller must set through their
// dedicated EndpointOption instead of via WithMetadata; using one of these
// names with WithMetadata fails with ErrForbiddenArg.
var reservedMetadataKeys = map[string]bool{
	"preempt": true, "serializer": true, "verbs": true, "path": true,
}

// endpointConfig accumulates EndpointOption settings for NewEndpoint.
type endpointConfig struct {
	preempt    string
	serializer string
	metadata   map[string]any
	params     any
	expr       Expr
	env        *Environment
}

// EndpointOption configures an optional attribute of an Endpoint at
// construction time.
type EndpointOption func(*endpointConfig) error

// WithPreempt names the filter this endpoint pre-empts: that filter, and
// every filter registered before it on the same router, is skipped when
// this endpoint is the matched one.
func WithPreempt(filterName string) EndpointOption {
	return func(c *endpointConfig) error {
		c.preempt = filterName
		return nil
	}
}

// WithSerializerName selects a non-default Serializer by the name it was
// registered under via router.WithSerializer.
func WithSerializerName(name string) EndpointOption {
	return func(c *endpointConfig) error {
		c.serializer = name
		return nil
	}
}

// WithMetadata attaches a free-form documentation bag (param descriptions,
// response shape) the core stores opaquely for an external OpenAPI
// generator. Keys also settable through a dedicated
// EndpointOption ("preempt", "serializer", "verbs", "path") are forbidden
// here and fail with ErrForbiddenArg.
func WithMetadata(kv map[string]any) EndpointOption {
	return func(c *endpointConfig) error {
		for k := range kv {
			if reservedMetadataKeys[k] {
				return fmt.Errorf("%w: metadata key %q", ErrForbiddenArg, k)
			}
		}
		if c.metadata == nil {
			c.metadata = make(map[string]any, len(kv))
		}
		for k, v := range kv {
			c.metadata[k] = v
		}
		return nil
	}
}

// WithParams declares the argument shape the Argument Binder should bind
// into for this endpoint, as a zero value of a struct tagged with `arg:"name"`
// fields. Pass a nil-typed pointer, e.g. WithParams((*MyArgs)(nil)).
func WithParams(sample any) EndpointOption {
	return func(c *endpointConfig) error {
		c.params = sample
		return nil
	}
}

// WithDeferredHandler marks the endpoint's handler as a deferred expression
// resolved against env the first time it is invoked, then cached (Design
// Note 9's Deferred(expr, env-id) variant). When used, NewEndpoint's
// handler parameter is ignored.
func WithDeferredHandler(expr Expr, env *Environment) EndpointOption {
	return func(c *endpointConfig) error {
		c.expr = expr
		c.env = env
		return nil
	}
}

// NewEndpoint compiles path and validates verbs, building an immutable
// Endpoint ready for Router.Handle. A leading slash is added to path if
// absent.
func NewEndpoint(verbs []string, path string, handler EndpointFunc, opts ...EndpointOption) (*Endpoint, error) {
	if len(verbs) == 0 {
		return nil, fmt.Errorf("%w: endpoint declares no verbs", ErrMissingPath)
	}
	normVerbs := make([]string, 0, len(verbs))
	seen := make(map[string]bool, len(verbs))
	for _, v := range verbs {
		uv := strings.ToUpper(v)
		if !validVerbs[uv] {
			return nil, fmt.Errorf("%w: unknown verb %q", ErrForbiddenArg, v)
		}
		if seen[uv] {
			continue
		}
		seen[uv] = true
		normVerbs = append(normVerbs, uv)
	}
	if path == "" {
		return nil, ErrMissingPath
	}
	pattern, err := CompilePattern(path)
	if err != nil {
		return nil, err
	}

	cfg := &endpointConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	var thunk *handlerThunk
	switch {
	case cfg.expr != nil:
		thunk = deferredThunk(cfg.expr, cfg.env)
	case handler != nil:
		thunk = directThunk(handler)
	default:
		return nil, fmt.Errorf("%w: endpoint has no handler", ErrBadEntrypoint)
	}

	var params *paramDescriptor
	if cfg.params != nil {
		params, err = newParamDescriptor(cfg.params)
		if err != nil {
			return nil, err
		}
	}

	return &Endpoint{
		verbs:      normVerbs,
		pattern:    pattern,
		handler:    thunk,
		preempt:    cfg.preempt,
		serializer: cfg.serializer,
		metadata:   cfg.metadata,
		params:     params,
	}, nil
}

// exec binds arguments and invokes the handler, returning its value.
// Errors propagate as a StageError the dispatch loop turns into a Fail
// outcome.
func (e *Endpoint) exec(req *Request, res *Response, captures map[string]string) (any, error) {
	fn, err := e.handler.resolve()
	if err != nil {
		return nil, stageErr("endpoint", err)
	}
	handlerFn, ok := fn.(EndpointFunc)
	if !ok {
		return nil, stageErr("endpoint", fmt.Errorf("%w: handler is not an EndpointFunc", ErrBadEntrypoint))
	}

	if e.params != nil {
		bound, err := bindArguments(e.params, req, captures)
		if err != nil {
			return nil, stageErr("endpoint", err)
		}
		req.bound = bound
	}

	v, err := handlerFn(req, res)
	if err != nil {
		return nil, stageErr("endpoint", err)
	}
	return v, nil
}
