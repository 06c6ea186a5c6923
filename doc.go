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

// Package router is a request-routing and middleware-pipeline core for
// building HTTP APIs declaratively.
//
// # Components
//
//   - Pattern: compiles "/a/<name>/b/<id:int>"-style path patterns and
//     matches or prefix-matches request paths against them.
//   - Endpoint: a leaf handler for one (verbs, path) pair.
//   - Filter: a named pipeline stage that can forward, reply, or fail.
//   - HookRegistry: five named interception buckets (preroute, postroute,
//     preserialize, postserialize, error) run around every dispatch.
//   - the Argument Binder: merges scratch, query, path captures and body
//     into a caller-declared struct, once per request.
//   - Router: ties the above together and implements http.Handler. It does
//     not manage the server lifecycle; callers own the *http.Server.
//
// Router is safe for concurrent use once constructed; registering routes,
// filters, hooks, and mounts concurrently with serving traffic is
// supported but registration itself is serialized internally.
package router
