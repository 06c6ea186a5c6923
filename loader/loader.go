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

// Package loader bridges an external annotation parser's output into
// builder facade calls, resolving file vs. directory inputs and an
// optional entrypoint script.
//
// The annotation parser itself — the component that reads source files and
// yields {verbs[], path, handler-or-expr, ...} descriptors — is named only
// at its interface here: callers supply one via AnnotationSource.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	router "github.com/routeforge/routeforge"
)

// EndpointDescriptor is the {verbs[], path, handler-or-expr, preempt?,
// serializer-selector?, response-metadata?, param-metadata?} shape an
// annotation parser produces for one endpoint.
type EndpointDescriptor struct {
	Verbs            []string
	Path             string
	Handler          router.EndpointFunc
	Preempt          string
	Serializer       string
	ResponseMetadata map[string]any
	ParamMetadata    map[string]any
	Params           any // sample struct for the Argument Binder descriptor
}

// FilterDescriptor is the {name, handler-or-expr} shape an annotation
// parser produces for one filter.
type FilterDescriptor struct {
	Name    string
	Handler router.FilterFunc
}

// StaticMountDescriptor is the {local-path, public-prefix} shape an
// annotation parser produces for one static mount.
type StaticMountDescriptor struct {
	LocalPath    string
	PublicPrefix string
}

// Descriptors is everything one annotation source parse yields: the full
// set of endpoints, filters and static mounts to register on a fresh
// Router.
type Descriptors struct {
	Endpoints []EndpointDescriptor
	Filters   []FilterDescriptor
	Statics   []StaticMountDescriptor
}

// AnnotationSource is the external annotation parser's interface. Callers
// supply an implementation that reads whatever source format they use
// (doc comments, struct tags, a config file) and yields Descriptors.
type AnnotationSource interface {
	Load(path string) (Descriptors, error)
}

// StaticAnnotationSource is an AnnotationSource constructed directly from
// an already-parsed Descriptors value. It ignores the path argument, and
// exists for tests and for callers who already have descriptors in hand.
type StaticAnnotationSource struct {
	Descriptors Descriptors
}

// Load returns the wrapped Descriptors, ignoring path.
func (s StaticAnnotationSource) Load(string) (Descriptors, error) {
	return s.Descriptors, nil
}

// EntrypointFunc is a function, bound into the Loader's Environment under
// EntrypointBinding, that builds and returns a fully configured Router.
// The entrypoint is resolved lazily, once, against a caller-supplied
// Environment, the same deferred-resolution model as an endpoint or
// filter handler.
type EntrypointFunc func() (*router.Router, error)

// EntrypointBinding is the default Environment key Loader looks up an
// EntrypointFunc under when a directory's entrypoint file is found.
const EntrypointBinding = "entrypoint"

// DefaultDefinitionFile is the default filename a directory load falls
// back to when the directory has no entrypoint file.
const DefaultDefinitionFile = "plumber.go"

// DefaultEntrypointFile is the filename whose presence in a directory
// triggers entrypoint resolution instead of annotation parsing.
const DefaultEntrypointFile = "entrypoint.go"

type config struct {
	env            *router.Environment
	entrypointName string
	entrypointFile string
	defaultFile    string
}

// Option configures a Loader.
type Option func(*config)

// WithEnvironment sets the Environment an entrypoint is resolved against,
// and the Environment passed to the Router built from descriptors (so
// Deferred handlers in the annotation source's output resolve correctly).
// Defaults to a fresh, empty Environment.
func WithEnvironment(env *router.Environment) Option {
	return func(c *config) { c.env = env }
}

// WithEntrypointBinding overrides the Environment key an EntrypointFunc is
// looked up under. Default EntrypointBinding.
func WithEntrypointBinding(name string) Option {
	return func(c *config) { c.entrypointName = name }
}

// WithEntrypointFile overrides the filename whose presence in a directory
// triggers entrypoint resolution. Default DefaultEntrypointFile.
func WithEntrypointFile(name string) Option {
	return func(c *config) { c.entrypointFile = name }
}

// WithDefaultFile overrides the fallback filename loaded via the
// annotation source when a directory has no entrypoint file. Default
// DefaultDefinitionFile.
func WithDefaultFile(name string) Option {
	return func(c *config) { c.defaultFile = name }
}

// Loader resolves a file or directory input into a running Router.
type Loader struct {
	source AnnotationSource
	cfg    config
}

// New constructs a Loader backed by source.
func New(source AnnotationSource, opts ...Option) *Loader {
	cfg := config{
		env:            router.NewEnvironment(),
		entrypointName: EntrypointBinding,
		entrypointFile: DefaultEntrypointFile,
		defaultFile:    DefaultDefinitionFile,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader{source: source, cfg: cfg}
}

// Load resolves path, which must name either a file or a directory; an
// empty path is the "neither" case and fails with ErrMissingPath.
func (l *Loader) Load(path string) (*router.Router, error) {
	if path == "" {
		return nil, router.ErrMissingPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", router.ErrFileNotFound, path)
	}
	if info.IsDir() {
		return l.loadDirectory(path)
	}
	return l.buildFromSource(path)
}

// LoadFile resolves path as a file only; a directory is rejected with
// ErrIsDirectory rather than falling through to directory-mode
// resolution.
func (l *Loader) LoadFile(path string) (*router.Router, error) {
	if path == "" {
		return nil, router.ErrMissingPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", router.ErrFileNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s", router.ErrIsDirectory, path)
	}
	return l.buildFromSource(path)
}

func (l *Loader) loadDirectory(dir string) (*router.Router, error) {
	entrypointPath := filepath.Join(dir, l.cfg.entrypointFile)
	if _, err := os.Stat(entrypointPath); err == nil {
		return l.runEntrypoint(entrypointPath)
	}

	defaultPath := filepath.Join(dir, l.cfg.defaultFile)
	if _, err := os.Stat(defaultPath); err == nil {
		return l.buildFromSource(defaultPath)
	}

	return nil, fmt.Errorf("%w: neither %s nor %s found in %s", router.ErrNoDefinitionFound, l.cfg.entrypointFile, l.cfg.defaultFile, dir)
}

func (l *Loader) runEntrypoint(path string) (*router.Router, error) {
	v, ok := l.cfg.env.Lookup(l.cfg.entrypointName)
	if !ok {
		return nil, fmt.Errorf("%w: no entrypoint bound for %s", router.ErrBadEntrypoint, path)
	}
	fn, ok := v.(EntrypointFunc)
	if !ok {
		return nil, fmt.Errorf("%w: binding %q is not an EntrypointFunc", router.ErrBadEntrypoint, l.cfg.entrypointName)
	}
	rt, err := fn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", router.ErrBadEntrypoint, err)
	}
	if rt == nil {
		return nil, fmt.Errorf("%w: entrypoint returned a nil router", router.ErrBadEntrypoint)
	}
	return rt, nil
}

func (l *Loader) buildFromSource(path string) (*router.Router, error) {
	desc, err := l.source.Load(path)
	if err != nil {
		return nil, err
	}
	return BuildRouter(desc, l.cfg.env)
}

// BuildRouter constructs a fresh Router and registers every filter,
// endpoint and static mount in desc against it, in the order the
// annotation source returned them. Exported so a caller with Descriptors
// already in hand (e.g. from StaticAnnotationSource) can build a Router
// without going through the file/directory resolution path.
func BuildRouter(desc Descriptors, env *router.Environment) (*router.Router, error) {
	var opts []router.Option
	if env != nil {
		opts = append(opts, router.WithEvaluationEnvironment(env))
	}
	r, err := router.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, f := range desc.Filters {
		if err := r.Filter(f.Name, f.Handler); err != nil {
			return nil, fmt.Errorf("router: loading filter %q: %w", f.Name, err)
		}
	}
	for _, ep := range desc.Endpoints {
		var epOpts []router.EndpointOption
		if ep.Preempt != "" {
			epOpts = append(epOpts, router.WithPreempt(ep.Preempt))
		}
		if ep.Serializer != "" {
			epOpts = append(epOpts, router.WithSerializerName(ep.Serializer))
		}
		if ep.Params != nil {
			epOpts = append(epOpts, router.WithParams(ep.Params))
		}
		if len(ep.ResponseMetadata) > 0 || len(ep.ParamMetadata) > 0 {
			meta := make(map[string]any, 2)
			if len(ep.ResponseMetadata) > 0 {
				meta["response"] = ep.ResponseMetadata
			}
			if len(ep.ParamMetadata) > 0 {
				meta["params"] = ep.ParamMetadata
			}
			epOpts = append(epOpts, router.WithMetadata(meta))
		}
		if err := r.Handle(ep.Verbs, ep.Path, ep.Handler, router.WithEndpointOptions(epOpts...)); err != nil {
			return nil, fmt.Errorf("router: loading endpoint %q %q: %w", ep.Verbs, ep.Path, err)
		}
	}
	for _, s := range desc.Statics {
		r.MountDir(s.PublicPrefix, s.LocalPath)
	}
	return r, nil
}
