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

// MountDir is Builder Facade sugar over Mount and NewStaticFileServer: it
// mounts a directory of static assets at prefix, using the stdlib
// http.FileServer under the hood. Static-file byte-serving internals
// beyond this default are an external collaborator's concern;
// callers needing range requests, ETags, or a CDN origin should call Mount
// with their own StaticFileServer implementation instead.
func (r *Router) MountDir(prefix, root string) {
	r.Mount(prefix, NewStaticFileServer(root, normalizeMountPrefix(prefix)))
}
