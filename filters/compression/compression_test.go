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

package compression_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	router "github.com/routeforge/routeforge"
	"github.com/routeforge/routeforge/filters/compression"
)

func bigBody(n int) []byte {
	return bytes.Repeat([]byte("x"), n)
}

func TestHook_CompressesWhenAccepted(t *testing.T) {
	hook := compression.Hook()
	headers := make(http.Header)
	headers.Set("Accept-Encoding", "gzip, br")
	req := &router.Request{Headers: headers}
	res := &router.Response{Body: bigBody(1024)}

	out := hook(nil, req, res)
	require.NotNil(t, out)
	assert.Equal(t, "br", out.Headers.Get("Content-Encoding"))
	assert.NotEqual(t, bigBody(1024), out.Body)

	r := brotli.NewReader(bytes.NewReader(out.Body))
	decoded, err := readAll(r)
	require.NoError(t, err)
	assert.Equal(t, bigBody(1024), decoded)
}

func TestHook_SkipsWhenEncodingNotAccepted(t *testing.T) {
	hook := compression.Hook()
	headers := make(http.Header)
	headers.Set("Accept-Encoding", "gzip")
	req := &router.Request{Headers: headers}
	res := &router.Response{Body: bigBody(1024)}

	out := hook(nil, req, res)
	assert.Equal(t, bigBody(1024), out.Body)
	assert.Empty(t, out.Headers.Get("Content-Encoding"))
}

func TestHook_SkipsBelowMinSize(t *testing.T) {
	hook := compression.Hook(compression.WithMinSize(4096))
	headers := make(http.Header)
	headers.Set("Accept-Encoding", "br")
	req := &router.Request{Headers: headers}
	res := &router.Response{Body: bigBody(1024)}

	out := hook(nil, req, res)
	assert.Empty(t, out.Headers.Get("Content-Encoding"))
}

func TestHook_SkipsExcludedContentType(t *testing.T) {
	hook := compression.Hook(compression.WithExcludedContentTypes("image/png"))
	headers := make(http.Header)
	headers.Set("Accept-Encoding", "br")
	req := &router.Request{Headers: headers}
	resHeaders := make(http.Header)
	resHeaders.Set("Content-Type", "image/png; charset=binary")
	res := &router.Response{Body: bigBody(1024), Headers: resHeaders}

	out := hook(nil, req, res)
	assert.Empty(t, out.Headers.Get("Content-Encoding"))
}

func readAll(r *brotli.Reader) ([]byte, error) {
	var buf bytes.Buffer
	_, err := buf.ReadFrom(r)
	return buf.Bytes(), err
}

func TestHook_NoAcceptEncodingHeaderAtAll(t *testing.T) {
	hook := compression.Hook()
	req := &router.Request{}
	res := &router.Response{Body: bigBody(1024)}

	out := hook(nil, req, res)
	assert.Equal(t, bigBody(1024), out.Body)
}
