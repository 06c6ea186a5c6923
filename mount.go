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
	"net/http"
	"strings"
)

// mountEntry binds a path prefix to a delegate http.Handler: either another
// *Router or a minimal static-asset handler. Entries
// are tried longest-prefix-first so a more specific mount ("/api/v2") is
// preferred over a broader one ("/api") registered earlier.
type mountEntry struct {
	prefix  string
	handler http.Handler
}

// StaticFileServer is the minimal external collaborator interface the core
// calls for mounted static assets; byte-serving internals are out of scope
// beyond this default.
type StaticFileServer interface {
	http.Handler
}

// fileServerAdapter adapts http.FileServer (stdlib) to StaticFileServer; it
// is the default used by Router.MountDir.
type fileServerAdapter struct {
	inner http.Handler
}

func (f *fileServerAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) { f.inner.ServeHTTP(w, r) }

// NewStaticFileServer serves files out of root, stripping prefix from the
// request path before delegating to http.FileServer.
func NewStaticFileServer(root, prefix string) StaticFileServer {
	return &fileServerAdapter{inner: http.StripPrefix(prefix, http.FileServer(http.Dir(root)))}
}

// Mount delegates every request under prefix to child. A request whose path
// falls under more than one registered prefix is routed to the
// longest-matching one; the mounted child's own 404 (or any other status)
// is final — it is never retried against a sibling mount or this router's
// own not-found handler.
//
// A literal endpoint registered on this router always takes precedence
// over any mount at a colliding path, regardless of the order Handle and
// Mount were called in: dispatch always tries the route tree first.
func (r *Router) Mount(prefix string, child http.Handler) {
	prefix = normalizeMountPrefix(prefix)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mounts {
		if m.prefix == prefix {
			r.mounts[i].handler = child
			return
		}
	}
	r.mounts = append(r.mounts, mountEntry{prefix: prefix, handler: child})
}

// Unmount removes a previously registered mount. A no-op if prefix was
// never mounted.
func (r *Router) Unmount(prefix string) {
	prefix = normalizeMountPrefix(prefix)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.mounts {
		if m.prefix == prefix {
			r.mounts = append(r.mounts[:i], r.mounts[i+1:]...)
			return
		}
	}
}

func normalizeMountPrefix(prefix string) string {
	if prefix == "" {
		prefix = "/"
	}
	if prefix[0] != '/' {
		prefix = "/" + prefix
	}
	if len(prefix) > 1 {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	return prefix
}

// matchMount returns the longest-prefix mount claiming path, and the
// remainder after stripping its prefix (or "/" when nothing remains), or
// ok=false if no mount claims it. A claiming mount gets the path rewritten
// to the remaining suffix before delegation.
func (r *Router) matchMount(path string) (*mountEntry, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *mountEntry
	for i := range r.mounts {
		m := &r.mounts[i]
		if m.prefix == "/" {
			if best == nil {
				best = m
			}
			continue
		}
		if path == m.prefix || strings.HasPrefix(path, m.prefix+"/") {
			if best == nil || len(m.prefix) > len(best.prefix) {
				best = m
			}
		}
	}
	if best == nil {
		return nil, "", false
	}
	rest := strings.TrimPrefix(path, best.prefix)
	if rest == "" {
		rest = "/"
	} else if rest[0] != '/' {
		rest = "/" + rest
	}
	found := *best // a copy, so a concurrent Unmount cannot shift it under the caller
	return &found, rest, true
}
