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

import "encoding/json"

// Serializer turns the pipeline's carried value into response bytes.
// Content-negotiation and serialization internals beyond this minimal
// default are an external collaborator's concern; the core
// only calls through this interface.
type Serializer interface {
	Serialize(v any, req *Request, res *Response) error
}

// SerializerFunc adapts a plain function to a Serializer.
type SerializerFunc func(v any, req *Request, res *Response) error

func (f SerializerFunc) Serialize(v any, req *Request, res *Response) error { return f(v, req, res) }

// jsonSerializer is the built-in default: it marshals v as JSON into the
// response body and sets Content-Type, unless the endpoint has already
// written a body directly via Response.SetBody.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(v any, req *Request, res *Response) error {
	if res.written {
		return nil
	}
	if v == nil {
		res.SetHeader("Content-Type", "application/json")
		if res.Status == 0 {
			res.SetStatus(204)
		}
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	res.SetHeader("Content-Type", "application/json")
	if res.Status == 0 {
		res.SetStatus(200)
	}
	res.Body = b
	res.written = true
	return nil
}

// NotFoundFunc produces a response for a request matching no registered
// path.
type NotFoundFunc func(req *Request, res *Response)

// MethodNotAllowedFunc produces a response for a request whose path
// matches a registered pattern but not for the request's verb.
type MethodNotAllowedFunc func(req *Request, res *Response, allowed []string)

// ErrorFunc produces a response for a request that failed during filter,
// hook or endpoint execution and that no registered error hook claimed.
type ErrorFunc func(req *Request, res *Response, err error)

func defaultNotFound(_ *Request, res *Response) {
	res.SetStatus(404)
	res.SetHeader("Content-Type", "application/json")
	res.SetBody([]byte(`{"error":"not found"}`))
}

func defaultMethodNotAllowed(_ *Request, res *Response, allowed []string) {
	res.SetStatus(405)
	res.SetHeader("Content-Type", "application/json")
	if len(allowed) > 0 {
		allow := allowed[0]
		for _, v := range allowed[1:] {
			allow += ", " + v
		}
		res.SetHeader("Allow", allow)
	}
	res.SetBody([]byte(`{"error":"method not allowed"}`))
}

func defaultErrorHandler(_ *Request, res *Response, err error) {
	res.SetStatus(500)
	res.SetHeader("Content-Type", "application/json")
	res.SetBody([]byte(`{"error":"` + jsonEscape(err.Error()) + `"}`))
}

func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	if len(b) >= 2 {
		return string(b[1 : len(b)-1])
	}
	return s
}
