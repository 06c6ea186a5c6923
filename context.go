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
	"sync"
)

// Request is the narrow view the core observes an incoming HTTP request
// through. It lives exactly the span of one call: Router pulls one from a
// pool per dispatch and releases it when the pipeline finishes.
type Request struct {
	Verb     string
	Path     string
	RawQuery string
	Query    map[string][]string
	RawBody  []byte
	Body     map[string]any
	Cookies  map[string]*http.Cookie
	Headers  http.Header
	RemoteIP string

	// Scratch is the per-request free-form map filters, hooks and
	// endpoints read and write. It is owned by exactly one request and
	// never shared across concurrent requests.
	Scratch map[string]any

	// Raw is the underlying net/http request, for handlers that need to
	// fall back to standard library access the narrow view doesn't cover.
	Raw *http.Request

	ctx context.Context

	endpoint *Endpoint        // set once routing has matched, used for capture type coercion
	bound    any              // Argument Binder output, a *T pointer matching the endpoint's descriptor
	captures map[string]string

	// redirectTo and allowedOverride are set by Router.route for the two
	// routing outcomes that bypass the normal pipeline: a trailing-slash
	// redirect and a verb mismatch against an otherwise-matching pattern.
	redirectTo      string
	allowedOverride []string
}

// Context returns the request's context.Context, honoring cancellation
// signaled by the transport.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// Param returns a single path capture by name.
func (r *Request) Param(name string) (string, bool) {
	v, ok := r.captures[name]
	return v, ok
}

// Bound returns the Argument Binder's output for this request: a pointer
// to the struct type the matched endpoint declared via WithParams, or nil
// if the endpoint declared no argument descriptor.
func (r *Request) Bound() any { return r.bound }

// reset clears a pooled Request for reuse.
func (r *Request) reset() {
	r.Verb = ""
	r.Path = ""
	r.RawQuery = ""
	r.Query = nil
	r.RawBody = nil
	r.Body = nil
	r.Cookies = nil
	r.Headers = nil
	r.RemoteIP = ""
	r.Scratch = nil
	r.Raw = nil
	r.ctx = nil
	r.endpoint = nil
	r.bound = nil
	r.captures = nil
	r.redirectTo = ""
	r.allowedOverride = nil
}

// Response is the narrow, mutable view of the outgoing HTTP response.
// Handlers mutate it directly; the core never writes status/body on an
// endpoint's behalf except through this struct.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte

	written bool
}

// SetStatus sets the response status code.
func (res *Response) SetStatus(code int) { res.Status = code }

// SetHeader sets a response header.
func (res *Response) SetHeader(key, value string) {
	if res.Headers == nil {
		res.Headers = make(http.Header)
	}
	res.Headers.Set(key, value)
}

// SetBody sets the raw response body bytes, bypassing the serializer. A
// postserialize hook typically uses this to rewrite an already-serialized
// body in place (e.g. compression).
func (res *Response) SetBody(b []byte) {
	res.Body = b
	res.written = true
}

func (res *Response) reset() {
	res.Status = 0
	res.Headers = nil
	res.Body = nil
	res.written = false
}

var requestPool = sync.Pool{New: func() any { return &Request{} }}
var responsePool = sync.Pool{New: func() any { return &Response{} }}

func acquireRequest() *Request {
	r, _ := requestPool.Get().(*Request)
	if r == nil {
		r = &Request{}
	}
	return r
}

func releaseRequest(r *Request) {
	r.reset()
	requestPool.Put(r)
}

func acquireResponse() *Response {
	r, _ := responsePool.Get().(*Response)
	if r == nil {
		r = &Response{}
	}
	return r
}

func releaseResponse(r *Response) {
	r.reset()
	responsePool.Put(r)
}
