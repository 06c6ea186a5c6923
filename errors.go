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

import "errors"

// Static errors for build-time and load-time failures. These are fatal to
// startup and should be wrapped with fmt.Errorf and %w when context (a
// pattern string, a filter name, a file path) is useful to the caller.
var (
	// Path Matcher
	ErrMalformedPattern = errors.New("router: malformed path pattern")
	ErrUnknownTypeTag   = errors.New("router: unknown path segment type tag")

	// Filter / Router registration
	ErrDuplicateFilterName = errors.New("router: duplicate filter name")
	ErrReservedFilterName  = errors.New("router: filter name is reserved")
	ErrUnknownHook         = errors.New("router: unknown hook bucket")
	ErrForbiddenArg        = errors.New("router: forbidden option name")
	ErrConflictingArgs     = errors.New("router: conflicting arguments")
	ErrMissingPath         = errors.New("router: no path specified")
	ErrUnknownPreempt      = errors.New("router: preempted filter is not registered on this router")

	// Loader Adapter
	ErrFileNotFound      = errors.New("router: file not found")
	ErrIsDirectory       = errors.New("router: path is a directory")
	ErrNoDefinitionFound = errors.New("router: no route definition found")
	ErrBadEntrypoint     = errors.New("router: entrypoint did not return a runnable router")

	// Router lifecycle
	ErrRouterFrozen = errors.New("router: mutation attempted after freeze")

	// Context / response plumbing
	ErrResponseWriterNotHijacker = errors.New("router: response writer does not implement http.Hijacker")
	ErrContentTypeNotAllowed     = errors.New("router: content type not allowed")
)

// RoutingError is the sentinel marker for the two routing-time conditions
// that surface as HTTP responses rather than bare errors: NotFound (404)
// and MethodNotAllowed (405). Dispatch never returns these to a caller of
// Call as a bare error; they are folded into a Response before they
// escape.
type RoutingError struct {
	Status  int
	Message string
	Allow   []string // populated only for MethodNotAllowed
}

func (e *RoutingError) Error() string { return e.Message }

// NotFoundError constructs the routing-time 404 condition.
func NotFoundError() *RoutingError {
	return &RoutingError{Status: 404, Message: "not found"}
}

// MethodNotAllowedError constructs the routing-time 405 condition,
// carrying the Allow header value for the response.
func MethodNotAllowedError(allow []string) *RoutingError {
	return &RoutingError{Status: 405, Message: "method not allowed", Allow: allow}
}

// StageError wraps a runtime failure (from a handler, filter, or hook)
// with the pipeline stage it occurred in, so the error hook and
// diagnostics can report where the request died.
type StageError struct {
	Stage string // "filter:<name>" | "endpoint" | "serialize"
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }
func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) *StageError {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
