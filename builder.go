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

// This file is the builder facade: the programmatic mutation API layered
// over the Router's internal route tree, filter list and hook registry.
// Every mutating call here is serialized by r.mu and rejected with
// ErrRouterFrozen once the router has been frozen.

// handleConfig accumulates the options passed to Router.Handle.
type handleConfig struct {
	endpoint *Endpoint
	epOpts   []EndpointOption
}

// HandleOption configures a call to Router.Handle.
type HandleOption func(*handleConfig)

// WithEndpointObject registers a prebuilt Endpoint rather than one built
// from the (verbs, path, handler) tuple. Supplying both this and a
// non-empty tuple fails with ErrConflictingArgs.
func WithEndpointObject(ep *Endpoint) HandleOption {
	return func(c *handleConfig) { c.endpoint = ep }
}

// WithEndpointOptions forwards EndpointOption values (WithPreempt,
// WithSerializerName, WithMetadata, WithParams, WithDeferredHandler) to the
// Endpoint built from the tuple form.
func WithEndpointOptions(opts ...EndpointOption) HandleOption {
	return func(c *handleConfig) { c.epOpts = append(c.epOpts, opts...) }
}

// Handle registers an endpoint, either from the (verbs, path, handler)
// tuple or from a prebuilt Endpoint supplied via WithEndpointObject.
// Supplying both fails with ErrConflictingArgs; supplying neither fails
// with ErrMissingPath.
func (r *Router) Handle(verbs []string, path string, handler EndpointFunc, opts ...HandleOption) error {
	cfg := &handleConfig{}
	for _, o := range opts {
		o(cfg)
	}
	tupleGiven := len(verbs) > 0 || path != "" || handler != nil
	if cfg.endpoint != nil {
		if tupleGiven {
			return fmt.Errorf("%w: both an endpoint object and a (verbs,path,handler) tuple were supplied", ErrConflictingArgs)
		}
		return r.registerEndpoint(cfg.endpoint)
	}
	if !tupleGiven {
		return ErrMissingPath
	}
	ep, err := NewEndpoint(verbs, path, handler, cfg.epOpts...)
	if err != nil {
		return err
	}
	return r.registerEndpoint(ep)
}

// HandleEndpoint registers a prebuilt Endpoint directly. It is sugar for
// Handle(nil, "", nil, WithEndpointObject(ep)).
func (r *Router) HandleEndpoint(ep *Endpoint) error {
	return r.Handle(nil, "", nil, WithEndpointObject(ep))
}

func (r *Router) registerEndpoint(ep *Endpoint) error {
	if ep == nil {
		return fmt.Errorf("%w: nil endpoint", ErrMissingPath)
	}
	if err := r.checkMutable(); err != nil {
		return err
	}
	if ep.preempt != "" {
		r.mu.RLock()
		_, preemptErr := r.resolveFilterStart(ep.preempt)
		r.mu.RUnlock()
		if preemptErr != nil {
			return preemptErr
		}
	}

	r.mu.Lock()
	r.tree.insert(ep.pattern.segments, ep.verbs, ep)
	r.mu.Unlock()

	if len(ep.pattern.captures) == 0 {
		if _, _, shadowed := r.matchMount(ep.pattern.String()); shadowed {
			r.emit(DiagMountShadowed, "endpoint registration shadows an existing mount", map[string]any{
				"path": ep.pattern.String(),
			})
		}
	}
	r.emit(DiagRouteRegistered, "endpoint registered", map[string]any{
		"path": ep.pattern.String(), "verbs": ep.verbs,
	})
	return nil
}

// RemoveHandle removes the endpoint registered for (verb, path), if any.
// Silently succeeds when absent.
func (r *Router) RemoveHandle(verb, path string) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	pattern, err := CompilePattern(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tree.remove(pattern.segments, strings.ToUpper(verb))
	return nil
}

// Filter appends a direct-handler Filter to the chain in call order.
// Filter names must be unique within the router and may not collide with
// a reserved hook bucket name.
func (r *Router) Filter(name string, fn FilterFunc) error {
	return r.addFilter(name, newFilter(name, fn))
}

// FilterDeferred appends a Filter whose handler is a deferred expression,
// resolved against the router's evaluation environment the first time it
// runs.
func (r *Router) FilterDeferred(name string, expr Expr) error {
	return r.addFilter(name, newDeferredFilter(name, expr, r.env))
}

func (r *Router) addFilter(name string, f *Filter) error {
	if reservedFilterNames[name] {
		return fmt.Errorf("%w: %q", ErrReservedFilterName, name)
	}
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.filters {
		if existing.Name() == name {
			return fmt.Errorf("%w: %q", ErrDuplicateFilterName, name)
		}
	}
	r.filters = append(r.filters, f)
	return nil
}

// RegisterHook appends fn to the named hook bucket (preroute, postroute,
// preserialize, postserialize, error). Unknown bucket names fail with
// ErrUnknownHook. The hook registry is additive only: there
// is no corresponding remove.
func (r *Router) RegisterHook(name string, fn any) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	return r.hooks.Register(name, fn)
}

// Set404Handler overrides the response produced for a request matching no
// registered path.
func (r *Router) Set404Handler(fn NotFoundFunc) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.mu.Lock()
	r.notFoundHandler = fn
	r.mu.Unlock()
	return nil
}

// Set405Handler overrides the response produced when a path matches but
// the request's verb does not.
func (r *Router) Set405Handler(fn MethodNotAllowedFunc) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.mu.Lock()
	r.methodNotAllowedHandler = fn
	r.mu.Unlock()
	return nil
}

// SetErrorHandler overrides the default 500 response produced when a
// filter, hook or endpoint fails and no error hook claims the failure.
func (r *Router) SetErrorHandler(fn ErrorFunc) error {
	if err := r.checkMutable(); err != nil {
		return err
	}
	r.mu.Lock()
	r.errorHandler = fn
	r.mu.Unlock()
	return nil
}

// Freeze marks the router as fully built: every subsequent Handle,
// HandleEndpoint, Filter, FilterDeferred, RemoveHandle, RegisterHook,
// Set404Handler, Set405Handler and SetErrorHandler call fails with
// ErrRouterFrozen. Mount, Unmount and MountDir return no error and are not
// affected by Freeze. Calling it is optional but recommended once a router
// is handed to a transport for steady-state serving.
func (r *Router) Freeze() { r.freeze() }

// Per-verb sugar: thin wrappers over Handle for the single-verb case. A
// path without a leading slash gets one prepended by CompilePattern.

// Get registers a GET endpoint.
func (r *Router) Get(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"GET"}, path, handler, WithEndpointOptions(opts...))
}

// Put registers a PUT endpoint.
func (r *Router) Put(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"PUT"}, path, handler, WithEndpointOptions(opts...))
}

// Post registers a POST endpoint.
func (r *Router) Post(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"POST"}, path, handler, WithEndpointOptions(opts...))
}

// Delete registers a DELETE endpoint.
func (r *Router) Delete(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"DELETE"}, path, handler, WithEndpointOptions(opts...))
}

// Head registers a HEAD endpoint.
func (r *Router) Head(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"HEAD"}, path, handler, WithEndpointOptions(opts...))
}

// Options registers an OPTIONS endpoint.
func (r *Router) Options(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"OPTIONS"}, path, handler, WithEndpointOptions(opts...))
}

// Patch registers a PATCH endpoint.
func (r *Router) Patch(path string, handler EndpointFunc, opts ...EndpointOption) error {
	return r.Handle([]string{"PATCH"}, path, handler, WithEndpointOptions(opts...))
}
