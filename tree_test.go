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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertFixture(t *testing.T, tree *routeTree, verbs []string, path string) {
	t.Helper()
	p, err := CompilePattern(path)
	require.NoError(t, err)
	tree.insert(p.segments, verbs, &Endpoint{verbs: verbs, pattern: p})
}

// Listing "/v/b/c/*" yields {a,b,f} once GET /v/b/c/a, GET /v/b/c/b and
// GET /v/b/c/f are registered alongside GET /a, GET /a/b/c/f and
// POST /a/b/c/f.
func TestRouteTree_SiblingListing(t *testing.T) {
	tree := newRouteTree()
	insertFixture(t, tree, []string{"GET"}, "/a")
	insertFixture(t, tree, []string{"GET"}, "/a/b/c/f")
	insertFixture(t, tree, []string{"POST"}, "/a/b/c/f")
	insertFixture(t, tree, []string{"GET"}, "/v/b/c/a")
	insertFixture(t, tree, []string{"GET"}, "/v/b/c/b")
	insertFixture(t, tree, []string{"GET"}, "/v/b/c/f")

	vNode := tree.root.literal["v"].literal["b"].literal["c"]
	require.NotNil(t, vNode)
	keys := make(map[string]bool)
	for k := range vNode.literal {
		keys[k] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true, "f": true}, keys)

	m := tree.lookup("/a/b/c/f", "GET")
	assert.True(t, m.ok)
	m = tree.lookup("/a/b/c/f", "POST")
	assert.True(t, m.ok)
	m = tree.lookup("/a/b/c/f", "DELETE")
	assert.True(t, m.verbMismatch)
	assert.ElementsMatch(t, []string{"GET", "POST"}, m.allowed)
}

// Literal beats dynamic, and among dynamic children int/double/bool beat
// string.
func TestRouteTree_LiteralBeatsDynamic(t *testing.T) {
	tree := newRouteTree()
	insertFixture(t, tree, []string{"GET"}, "/items/<id>")
	insertFixture(t, tree, []string{"GET"}, "/items/featured")

	m := tree.lookup("/items/featured", "GET")
	require.True(t, m.ok)
	assert.Empty(t, m.captures, "the literal child must win, not the dynamic capture")

	m = tree.lookup("/items/42", "GET")
	require.True(t, m.ok)
	assert.Equal(t, "42", m.captures["id"])
}

func TestRouteTree_TypedBeatsString(t *testing.T) {
	tree := newRouteTree()
	stringEP := &Endpoint{}
	intEP := &Endpoint{}
	tree.insert([]segment{{isCapture: true, name: "x", typ: TypeString}}, []string{"GET"}, stringEP)
	tree.insert([]segment{{isCapture: true, name: "x", typ: TypeInt}}, []string{"GET"}, intEP)

	m := tree.lookup("/42", "GET")
	require.True(t, m.ok)
	assert.Same(t, intEP, m.endpoint, "a segment that validates as int must prefer the typed child over string")

	m = tree.lookup("/not-a-number", "GET")
	require.True(t, m.ok)
	assert.Same(t, stringEP, m.endpoint)
}

func TestRouteTree_RemoveIsSilentWhenAbsent(t *testing.T) {
	tree := newRouteTree()
	p, err := CompilePattern("/gone")
	require.NoError(t, err)
	assert.NotPanics(t, func() { tree.remove(p.segments, "GET") })
}

func TestRouteTree_LastInsertWins(t *testing.T) {
	tree := newRouteTree()
	first := &Endpoint{}
	second := &Endpoint{}
	p, err := CompilePattern("/x")
	require.NoError(t, err)
	tree.insert(p.segments, []string{"GET"}, first)
	tree.insert(p.segments, []string{"GET"}, second)

	m := tree.lookup("/x", "GET")
	require.True(t, m.ok)
	assert.Same(t, second, m.endpoint)
}
