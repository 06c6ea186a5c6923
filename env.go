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

import "sync"

// Environment is the evaluation environment a deferred-expression handler
// is bound into. An endpoint or filter handler can be either a direct
// callable or an expression evaluated lazily against a caller-supplied
// lexical scope; that scope is a plain named-value bag, and the
// "expression" is a Go closure (Expr) that receives it.
type Environment struct {
	mu       sync.RWMutex
	bindings map[string]any
}

// NewEnvironment creates an empty Environment.
func NewEnvironment() *Environment {
	return &Environment{bindings: make(map[string]any)}
}

// Bind sets a named value visible to expressions evaluated in this
// environment.
func (e *Environment) Bind(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bindings[name] = value
}

// Lookup returns the value bound to name and whether it was present.
func (e *Environment) Lookup(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.bindings[name]
	return v, ok
}

// Expr is a deferred handler expression: given the Environment it was
// declared against, it produces the concrete handler value (a FilterFunc,
// an EndpointFunc, ...) the first time it is needed.
type Expr func(env *Environment) (any, error)

// handlerThunk resolves a direct or deferred handler exactly once and
// caches the result.
type handlerThunk struct {
	mu       sync.Mutex
	done     bool
	resolved any
	err      error
	expr     Expr
	env      *Environment
}

func directThunk(h any) *handlerThunk {
	return &handlerThunk{done: true, resolved: h}
}

func deferredThunk(expr Expr, env *Environment) *handlerThunk {
	return &handlerThunk{expr: expr, env: env}
}

func (t *handlerThunk) resolve() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return t.resolved, t.err
	}
	v, err := t.expr(t.env)
	t.resolved, t.err, t.done = v, err, true
	return v, err
}
