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

// Package compression is a bundled postserialize Hook that
// brotli-compresses a finished response body. It operates as a rewrite
// over an already-materialized Response.Body, since the core only exposes
// the finished body at that pipeline stage.
package compression

import (
	"bytes"
	"strings"

	"github.com/andybalholm/brotli"

	router "github.com/routeforge/routeforge"
)

type config struct {
	level               int
	minSize             int
	excludeContentTypes map[string]bool
}

// Option configures Hook.
type Option func(*config)

// WithLevel sets the brotli compression level (0-11). Default 4, a
// conservative choice for dynamic JSON/text content.
func WithLevel(level int) Option {
	return func(c *config) { c.level = level }
}

// WithMinSize sets the minimum response body size, in bytes, before
// compression is attempted. Default 256.
func WithMinSize(n int) Option {
	return func(c *config) { c.minSize = n }
}

// WithExcludedContentTypes names Content-Type values (ignoring any
// "; charset=..." suffix) that are never compressed, e.g. already-compressed
// image formats.
func WithExcludedContentTypes(types ...string) Option {
	return func(c *config) {
		for _, t := range types {
			c.excludeContentTypes[t] = true
		}
	}
}

func defaultConfig() *config {
	return &config{level: 4, minSize: 256, excludeContentTypes: make(map[string]bool)}
}

// Hook returns a PostserializeHook that compresses res.Body with brotli
// when the request's Accept-Encoding header allows it, the body meets the
// minimum size, and its Content-Type isn't excluded. Register it with
// Router.RegisterHook(router.HookPostserialize, compression.Hook()).
func Hook(opts ...Option) router.PostserializeHook {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(_ map[string]any, req *router.Request, res *router.Response) *router.Response {
		if len(res.Body) < cfg.minSize {
			return res
		}
		if req.Headers == nil || !acceptsBrotli(req.Headers.Get("Accept-Encoding")) {
			return res
		}
		if res.Headers != nil && cfg.excludeContentTypes[baseContentType(res.Headers.Get("Content-Type"))] {
			return res
		}

		var buf bytes.Buffer
		w := brotli.NewWriterLevel(&buf, cfg.level)
		if _, err := w.Write(res.Body); err != nil {
			_ = w.Close()
			return res
		}
		if err := w.Close(); err != nil {
			return res
		}

		res.Body = buf.Bytes()
		res.SetHeader("Content-Encoding", "br")
		res.SetHeader("Vary", "Accept-Encoding")
		return res
	}
}

func acceptsBrotli(acceptEncoding string) bool {
	for _, part := range strings.Split(acceptEncoding, ",") {
		if strings.HasPrefix(strings.TrimSpace(part), "br") {
			return true
		}
	}
	return false
}

func baseContentType(ct string) string {
	base, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(base)
}
