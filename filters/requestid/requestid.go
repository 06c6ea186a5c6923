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

// Package requestid is a bundled Filter that stamps every request with a
// correlation ID, honoring a client-supplied value when configured to
// trust one and otherwise generating a fresh ID before the request
// reaches the endpoint.
package requestid

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	router "github.com/routeforge/routeforge"
)

// HeaderName is the default header a request ID is read from and written
// back to.
const HeaderName = "X-Request-ID"

// ScratchKey is the Request.Scratch key the generated ID is stored under,
// readable by downstream filters, hooks and endpoints.
const ScratchKey = "request_id"

type config struct {
	header        string
	allowClientID bool
	generator     func() string
}

// Option configures New.
type Option func(*config)

// WithHeader overrides the header name consulted and set. Default
// "X-Request-ID".
func WithHeader(name string) Option {
	return func(c *config) { c.header = name }
}

// WithAllowClientID controls whether a caller-supplied header value is
// trusted as the request ID rather than always generating a fresh one.
// Default true.
func WithAllowClientID(allow bool) Option {
	return func(c *config) { c.allowClientID = allow }
}

// WithGenerator overrides the ID generator. Default is a random UUIDv4.
func WithGenerator(fn func() string) Option {
	return func(c *config) { c.generator = fn }
}

// WithULID selects ulid.ULID as the ID format instead of UUIDv4: sortable
// by generation time, useful when request IDs double as a log cursor.
func WithULID() Option {
	return func(c *config) { c.generator = newULID }
}

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(cryptoRandReader{}, 0)
)

// newULID generates a ULID using a monotonic entropy source so IDs
// generated within the same millisecond still sort.
func newULID() string {
	ulidMu.Lock()
	defer ulidMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), ulidEntropy)
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// cryptoRandReader adapts crypto/rand to io.Reader for ulid.Monotonic.
type cryptoRandReader struct{}

func (cryptoRandReader) Read(p []byte) (int, error) { return rand.Read(p) }

func defaultConfig() *config {
	return &config{
		header:        HeaderName,
		allowClientID: true,
		generator:     func() string { return uuid.New().String() },
	}
}

// New returns a Filter handler that stamps the request with a correlation
// ID, echoing it on the response header and storing it in Request.Scratch
// under ScratchKey. Register it with Router.Filter("requestid", New()).
func New(opts ...Option) router.FilterFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(req *router.Request, res *router.Response) router.Outcome {
		var id string
		if cfg.allowClientID && req.Headers != nil {
			id = req.Headers.Get(cfg.header)
		}
		if id == "" {
			id = cfg.generator()
		}
		res.SetHeader(cfg.header, id)
		if req.Scratch == nil {
			req.Scratch = make(map[string]any)
		}
		req.Scratch[ScratchKey] = id
		return router.ForwardResult()
	}
}

// Get retrieves the request ID New stored in req.Scratch, or "" if the
// requestid filter was never run for this request.
func Get(req *router.Request) string {
	if req == nil || req.Scratch == nil {
		return ""
	}
	if id, ok := req.Scratch[ScratchKey].(string); ok {
		return id
	}
	return ""
}
