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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern_AddsLeadingSlash(t *testing.T) {
	p, err := CompilePattern("a/b")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", p.String())
}

func TestCompilePattern_EmptyIsRoot(t *testing.T) {
	p, err := CompilePattern("")
	require.NoError(t, err)
	assert.Equal(t, "/", p.String())
	assert.Empty(t, p.Captures())
}

func TestCompilePattern_MalformedBrace(t *testing.T) {
	_, err := CompilePattern("/a/<name")
	assert.True(t, errors.Is(err, ErrMalformedPattern))

	_, err = CompilePattern("/a/name>")
	assert.True(t, errors.Is(err, ErrMalformedPattern))
}

func TestCompilePattern_UnknownTypeTag(t *testing.T) {
	_, err := CompilePattern("/a/<id:uuid>")
	assert.True(t, errors.Is(err, ErrUnknownTypeTag))
}

func TestCompilePattern_TypeAliases(t *testing.T) {
	p, err := CompilePattern("/a/<n:numeric>/<b:logical>")
	require.NoError(t, err)
	caps := p.Captures()
	require.Len(t, caps, 2)
	assert.Equal(t, TypeDouble, caps[0].Type)
	assert.Equal(t, TypeBool, caps[1].Type)
}

func TestPattern_MatchLiteral(t *testing.T) {
	p, err := CompilePattern("/a/b/c")
	require.NoError(t, err)

	_, ok := p.Match("/a/b/c")
	assert.True(t, ok)

	_, ok = p.Match("/a/b/C")
	assert.False(t, ok, "literal match is case-sensitive")

	_, ok = p.Match("/a/b")
	assert.False(t, ok)
}

func TestPattern_MatchTypedCaptures(t *testing.T) {
	p, err := CompilePattern("/items/<id:int>")
	require.NoError(t, err)

	res, ok := p.Match("/items/42")
	require.True(t, ok)
	assert.Equal(t, "42", res.Captures["id"])

	_, ok = p.Match("/items/not-a-number")
	assert.False(t, ok, "failed type validation is no-match, not an error")
}

func TestPattern_MatchBoolVariants(t *testing.T) {
	p, err := CompilePattern("/flag/<v:bool>")
	require.NoError(t, err)

	for _, v := range []string{"true", "false", "0", "1", "yes", "no", "YES", "True"} {
		_, ok := p.Match("/flag/" + v)
		assert.True(t, ok, "expected %q to validate as bool", v)
	}
	_, ok := p.Match("/flag/maybe")
	assert.False(t, ok)
}

func TestPattern_MatchDouble(t *testing.T) {
	p, err := CompilePattern("/price/<v:double>")
	require.NoError(t, err)

	_, ok := p.Match("/price/3.14")
	assert.True(t, ok)
	_, ok = p.Match("/price/3.14e2")
	assert.True(t, ok)
	_, ok = p.Match("/price/abc")
	assert.False(t, ok)
}

func TestPattern_MatchPrefixForMounts(t *testing.T) {
	p, err := CompilePattern("/api/<version>")
	require.NoError(t, err)

	res, ok := p.MatchPrefix("/api/v2/users/7")
	require.True(t, ok)
	assert.Equal(t, "v2", res.Captures["version"])
	assert.Equal(t, "/users/7", res.Rest)

	res, ok = p.MatchPrefix("/api/v2")
	require.True(t, ok)
	assert.Equal(t, "/", res.Rest)
}
