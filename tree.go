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

import "strings"

// routeTree is a trie keyed by literal segments, with dynamic children
// bucketed by type tag. At each node, a verb->Endpoint map holds
// registered terminals.
//
// Lookup order at a node is literal first, then dynamic children ordered by
// type specificity (int/double/bool before string), then registration
// order among children of equal specificity.
type routeTree struct {
	root *treeNode
}

type treeNode struct {
	literal   map[string]*treeNode
	typed     []*dynEdge // int/double/bool children, in registration order
	stringary []*dynEdge // string children, in registration order
	endpoints map[string]*Endpoint
}

type dynEdge struct {
	name string
	typ  SegmentType
	node *treeNode
}

func newRouteTree() *routeTree {
	return &routeTree{root: newTreeNode()}
}

func newTreeNode() *treeNode {
	return &treeNode{literal: make(map[string]*treeNode)}
}

// insert registers ep under verbs at the path described by segs. The last
// handle() call to register a given (verb, path) pair wins.
func (t *routeTree) insert(segs []segment, verbs []string, ep *Endpoint) {
	node := t.root
	for _, seg := range segs {
		if !seg.isCapture {
			child, ok := node.literal[seg.literal]
			if !ok {
				child = newTreeNode()
				node.literal[seg.literal] = child
			}
			node = child
			continue
		}
		bucket := &node.stringary
		if seg.typ.specificity() == 1 {
			bucket = &node.typed
		}
		var edge *dynEdge
		for _, e := range *bucket {
			if e.name == seg.name && e.typ == seg.typ {
				edge = e
				break
			}
		}
		if edge == nil {
			edge = &dynEdge{name: seg.name, typ: seg.typ, node: newTreeNode()}
			*bucket = append(*bucket, edge)
		}
		node = edge.node
	}
	if node.endpoints == nil {
		node.endpoints = make(map[string]*Endpoint)
	}
	for _, v := range verbs {
		node.endpoints[v] = ep
	}
}

// remove deletes the endpoint registered for verb at the path described by
// segs. Absent registrations are a silent no-op.
func (t *routeTree) remove(segs []segment, verb string) {
	node := t.root
	for _, seg := range segs {
		if !seg.isCapture {
			child, ok := node.literal[seg.literal]
			if !ok {
				return
			}
			node = child
			continue
		}
		bucket := node.stringary
		if seg.typ.specificity() == 1 {
			bucket = node.typed
		}
		var next *treeNode
		for _, e := range bucket {
			if e.name == seg.name && e.typ == seg.typ {
				next = e.node
				break
			}
		}
		if next == nil {
			return
		}
		node = next
	}
	delete(node.endpoints, verb)
}

func (n *treeNode) allowedVerbs() []string {
	out := make([]string, 0, len(n.endpoints))
	for v := range n.endpoints {
		out = append(out, v)
	}
	return out
}

// treeMatch is the outcome of walking the trie for one request.
type treeMatch struct {
	endpoint    *Endpoint
	captures    map[string]string
	ok          bool
	verbMismatch bool
	allowed     []string
}

// lookup walks the trie for verb+path, using literal-first,
// most-specific-type, registration-order precedence, with backtracking: a
// literal child that leads to a dead end does not prevent trying a
// dynamic sibling at the same position.
func (t *routeTree) lookup(path, verb string) treeMatch {
	parts := splitPath(path)
	res := t.root.lookup(parts, 0, verb)
	return res
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (n *treeNode) lookup(parts []string, i int, verb string) treeMatch {
	if i == len(parts) {
		if ep, ok := n.endpoints[verb]; ok {
			return treeMatch{endpoint: ep, ok: true}
		}
		if len(n.endpoints) > 0 {
			return treeMatch{verbMismatch: true, allowed: n.allowedVerbs()}
		}
		return treeMatch{}
	}

	part := parts[i]
	var fallback *treeMatch

	if child, ok := n.literal[part]; ok {
		res := child.lookup(parts, i+1, verb)
		if res.ok {
			return res
		}
		if res.verbMismatch && fallback == nil {
			fallback = &res
		}
	}

	for _, edge := range n.typed {
		if !validateSegment(part, edge.typ) {
			continue
		}
		res := edge.node.lookup(parts, i+1, verb)
		if res.ok {
			res.captures = addCapture(res.captures, edge.name, part)
			return res
		}
		if res.verbMismatch && fallback == nil {
			fallback = &res
		}
	}

	for _, edge := range n.stringary {
		res := edge.node.lookup(parts, i+1, verb)
		if res.ok {
			res.captures = addCapture(res.captures, edge.name, part)
			return res
		}
		if res.verbMismatch && fallback == nil {
			fallback = &res
		}
	}

	if fallback != nil {
		return *fallback
	}
	return treeMatch{}
}

func addCapture(existing map[string]string, name, value string) map[string]string {
	if existing == nil {
		existing = make(map[string]string, 1)
	}
	existing[name] = value
	return existing
}

// topLevelKeys returns, for diagnostics, the first-character set of every
// literal child of the root. Dynamic children are not represented.
func (t *routeTree) topLevelKeys() []byte {
	seen := make(map[byte]struct{})
	for k := range t.root.literal {
		if len(k) > 0 {
			seen[k[0]] = struct{}{}
		}
	}
	out := make([]byte, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	return out
}
