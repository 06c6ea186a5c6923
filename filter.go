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

// reservedFilterNames are the hook bucket names: a Filter may not be
// registered under any of these.
var reservedFilterNames = map[string]bool{
	"preroute":     true,
	"postroute":    true,
	"preserialize": true,
	"postserialize": true,
}

// OutcomeKind distinguishes the three results a FilterFunc may produce.
type OutcomeKind int

const (
	// Forward advances the filter chain to the next filter (or to the
	// matched endpoint if this was the last filter).
	Forward OutcomeKind = iota
	// Reply short-circuits the chain: Outcome.Value becomes the
	// endpoint's value, exactly as if the endpoint itself had returned it.
	Reply
	// Fail diverts to the error handler with Outcome.Err.
	Fail
)

// Outcome is what a FilterFunc returns.
//
// A filter written directly against FilterFunc cannot forget to signal
// its outcome: the signature forces an explicit Forward, Reply or Fail.
type Outcome struct {
	Kind  OutcomeKind
	Value any
	Err   error
}

// ForwardResult is the Outcome a FilterFunc returns to advance the chain.
func ForwardResult() Outcome { return Outcome{Kind: Forward} }

// ReplyWith short-circuits the chain with v as the endpoint's value.
func ReplyWith(v any) Outcome { return Outcome{Kind: Reply, Value: v} }

// FailWith diverts the request to the error handler.
func FailWith(err error) Outcome { return Outcome{Kind: Fail, Err: err} }

// FilterFunc is a pipeline stage handler.
type FilterFunc func(req *Request, res *Response) Outcome

// Filter is a named pipeline stage. Order within a Router is insertion
// order. Filter is immutable after registration, and no Router method
// removes a registered filter.
type Filter struct {
	name    string
	handler *handlerThunk
}

// Name returns the filter's unique name within its router.
func (f *Filter) Name() string { return f.name }

// run invokes the filter, resolving a deferred handler on first use and
// caching it thereafter.
func (f *Filter) run(req *Request, res *Response) Outcome {
	fn, err := f.handler.resolve()
	if err != nil {
		return FailWith(err)
	}
	filterFn, ok := fn.(FilterFunc)
	if !ok {
		return FailWith(ErrBadEntrypoint)
	}
	return filterFn(req, res)
}

// newFilter constructs a Filter with a direct handler.
func newFilter(name string, fn FilterFunc) *Filter {
	return &Filter{name: name, handler: directThunk(fn)}
}

// newDeferredFilter constructs a Filter whose handler is a deferred
// expression, resolved against env the first time it is needed.
func newDeferredFilter(name string, expr Expr, env *Environment) *Filter {
	return &Filter{name: name, handler: deferredThunk(expr, env)}
}
