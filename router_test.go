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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHandle(t *testing.T, r *Router, verb, path string, fn EndpointFunc) {
	t.Helper()
	require.NoError(t, r.Handle([]string{verb}, path, fn))
}

func TestRouter_TrailingSlashOff(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })

	req := &Request{Verb: "GET", Path: "/a/"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 404, res.Status)
}

func TestRouter_TrailingSlashStrict404(t *testing.T) {
	r, err := New(WithTrailingSlash(TrailingSlashStrict404))
	require.NoError(t, err)
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })

	req := &Request{Verb: "GET", Path: "/a/"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 404, res.Status)
}

func TestRouter_TrailingSlashRedirectPreservesQuery(t *testing.T) {
	r, err := New(WithTrailingSlash(TrailingSlashRedirect))
	require.NoError(t, err)
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })

	httpReq := httptest.NewRequest("GET", "/a/?x=1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/a?x=1", rec.Header().Get("Location"))
}

func TestRouter_MountShadowedByOwnEndpoint(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	mustHandle(t, r, "GET", "/static", func(req *Request, res *Response) (any, error) { return "own", nil })
	r.Mount("/static", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(599)
	}))

	req := &Request{Verb: "GET", Path: "/static"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 200, res.Status)
	assert.Contains(t, string(res.Body), "own")
}

func TestRouter_MountDelegatesWithRewrittenSuffix(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	var gotPath string
	r.Mount("/api", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(200)
	}))

	httpReq := httptest.NewRequest("GET", "/api/users/7", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)

	assert.Equal(t, "/users/7", gotPath)
	assert.Equal(t, 200, rec.Code)
}

func TestRouter_MountRootSuffixFallsBackToSlash(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	var gotPath string
	r.Mount("/api", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		gotPath = req.URL.Path
		w.WriteHeader(200)
	}))

	httpReq := httptest.NewRequest("GET", "/api", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)
	assert.Equal(t, "/", gotPath)
}

func TestRouter_LongestPrefixMountWins(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	var which string
	r.Mount("/api", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		which = "broad"
		w.WriteHeader(200)
	}))
	r.Mount("/api/v2", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		which = "specific"
		w.WriteHeader(200)
	}))

	httpReq := httptest.NewRequest("GET", "/api/v2/ping", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httpReq)
	assert.Equal(t, "specific", which)
}

func TestRouter_HookExecutionOrder(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	var order []string
	require.NoError(t, r.RegisterHook(HookPreroute, PrerouteHook(func(scratch map[string]any, req *Request, res *Response) {
		order = append(order, "preroute")
	})))
	require.NoError(t, r.RegisterHook(HookPostroute, PostrouteHook(func(scratch map[string]any, req *Request, res *Response, value any) any {
		order = append(order, "postroute")
		return value
	})))
	require.NoError(t, r.RegisterHook(HookPreserialize, PreserializeHook(func(scratch map[string]any, req *Request, res *Response, value any) any {
		order = append(order, "preserialize")
		return value
	})))
	require.NoError(t, r.RegisterHook(HookPostserialize, PostserializeHook(func(scratch map[string]any, req *Request, res *Response) *Response {
		order = append(order, "postserialize")
		return res
	})))
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) {
		order = append(order, "endpoint")
		return "ok", nil
	})

	req := &Request{Verb: "GET", Path: "/a"}
	res := &Response{}
	r.Call(req, res)

	assert.Equal(t, []string{"preroute", "endpoint", "postroute", "preserialize", "postserialize"}, order)
}

func TestRouter_PostserializeRewritesBody(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.RegisterHook(HookPostserialize, PostserializeHook(func(scratch map[string]any, req *Request, res *Response) *Response {
		res.SetBody([]byte("rewritten"))
		return res
	})))
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "original", nil })

	req := &Request{Verb: "GET", Path: "/a"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, "rewritten", string(res.Body))
}

func TestRouter_FilterForwardReplyFail(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.Filter("noop", func(req *Request, res *Response) Outcome { return ForwardResult() }))
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })

	req := &Request{Verb: "GET", Path: "/a"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 200, res.Status)
	assert.Contains(t, string(res.Body), "ok")
}

func TestRouter_FilterReplyShortCircuits(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	called := false
	require.NoError(t, r.Filter("gate", func(req *Request, res *Response) Outcome { return ReplyWith("from-filter") }))
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) {
		called = true
		return "ok", nil
	})

	req := &Request{Verb: "GET", Path: "/a"}
	res := &Response{}
	r.Call(req, res)
	assert.False(t, called)
	assert.Contains(t, string(res.Body), "from-filter")
}

func TestRouter_FilterPreemptSkipsEarlierFilters(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	var ran []string
	require.NoError(t, r.Filter("auth", func(req *Request, res *Response) Outcome {
		ran = append(ran, "auth")
		return ForwardResult()
	}))
	require.NoError(t, r.Filter("logging", func(req *Request, res *Response) Outcome {
		ran = append(ran, "logging")
		return ForwardResult()
	}))
	ep, err := NewEndpoint([]string{"GET"}, "/public", func(req *Request, res *Response) (any, error) { return "ok", nil }, WithPreempt("auth"))
	require.NoError(t, err)
	require.NoError(t, r.HandleEndpoint(ep))

	req := &Request{Verb: "GET", Path: "/public"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, []string{"logging"}, ran)
}

func TestRouter_ErrorHookClaimsFailure(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	require.NoError(t, r.RegisterHook(HookError, ErrorHook(func(req *Request, res *Response, err error) any {
		return "recovered"
	})))
	mustHandle(t, r, "GET", "/boom", func(req *Request, res *Response) (any, error) {
		return nil, assertErr{}
	})

	req := &Request{Verb: "GET", Path: "/boom"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 200, res.Status)
	assert.Contains(t, string(res.Body), "recovered")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestRouter_MethodNotAllowedListsAllowedVerbs(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	mustHandle(t, r, "GET", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })
	mustHandle(t, r, "POST", "/a", func(req *Request, res *Response) (any, error) { return "ok", nil })

	req := &Request{Verb: "DELETE", Path: "/a"}
	res := &Response{}
	r.Call(req, res)
	assert.Equal(t, 405, res.Status)
	allow := res.Headers.Get("Allow")
	assert.Contains(t, allow, "GET")
	assert.Contains(t, allow, "POST")
}

func TestRouter_FreezeRejectsMutation(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	r.Freeze()
	err = r.Handle([]string{"GET"}, "/a", func(req *Request, res *Response) (any, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrRouterFrozen)
	assert.ErrorIs(t, r.Filter("x", func(req *Request, res *Response) Outcome { return ForwardResult() }), ErrRouterFrozen)
	assert.ErrorIs(t, r.RemoveHandle("GET", "/a"), ErrRouterFrozen)
}
