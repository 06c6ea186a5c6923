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
	"fmt"
	"strconv"
	"strings"
)

// SegmentType is the type tag carried by a dynamic path segment.
type SegmentType int

const (
	// TypeString accepts any non-"/" run of characters. It is the default
	// for a capture written without a type tag.
	TypeString SegmentType = iota
	TypeInt
	TypeDouble
	TypeBool
)

func (t SegmentType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeDouble:
		return "double"
	case TypeBool:
		return "bool"
	default:
		return "string"
	}
}

// specificity orders type tags for the literal-first, most-specific-type
// tie-break: literal > int/double/bool > string, then registration order.
func (t SegmentType) specificity() int {
	switch t {
	case TypeInt, TypeDouble, TypeBool:
		return 1
	default:
		return 2
	}
}

// resolveTypeTag maps a pattern-syntax type name to a SegmentType,
// accepting "logical" and "numeric" as aliases for bool and double
// respectively for annotation-parser compatibility.
func resolveTypeTag(name string) (SegmentType, bool) {
	switch name {
	case "", "string":
		return TypeString, true
	case "int":
		return TypeInt, true
	case "double":
		return TypeDouble, true
	case "numeric":
		return TypeDouble, true
	case "bool":
		return TypeBool, true
	case "logical":
		return TypeBool, true
	default:
		return 0, false
	}
}

// Capture describes one named dynamic segment of a compiled Pattern, in
// left-to-right order.
type Capture struct {
	Name string
	Type SegmentType
}

// segment is one element of a compiled pattern: either a literal string or
// a named, typed capture.
type segment struct {
	literal   string
	isCapture bool
	name      string
	typ       SegmentType
}

// Pattern is a compiled path pattern, as produced by CompilePattern from a
// source string like "/a/<name>/b/<id:int>".
type Pattern struct {
	source   string
	segments []segment
	captures []Capture
}

// String renders the pattern back to its source form, used by
// introspection and diagnostics.
func (p *Pattern) String() string { return p.source }

// Captures returns the ordered list of (name, type) pairs for this
// pattern's dynamic segments.
func (p *Pattern) Captures() []Capture {
	out := make([]Capture, len(p.captures))
	copy(out, p.captures)
	return out
}

// CompilePattern parses a path pattern into a Pattern. An empty pattern is
// equivalent to "/". A leading slash is added if absent.
func CompilePattern(pattern string) (*Pattern, error) {
	if pattern == "" {
		pattern = "/"
	}
	if pattern[0] != '/' {
		pattern = "/" + pattern
	}

	p := &Pattern{source: pattern}

	raw := strings.Split(strings.Trim(pattern, "/"), "/")
	if len(raw) == 1 && raw[0] == "" {
		// root pattern "/": zero segments
		return p, nil
	}

	for _, part := range raw {
		seg, err := parseSegment(part)
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, seg)
		if seg.isCapture {
			p.captures = append(p.captures, Capture{Name: seg.name, Type: seg.typ})
		}
	}
	return p, nil
}

func parseSegment(part string) (segment, error) {
	if part == "" {
		return segment{}, fmt.Errorf("%w: empty path segment", ErrMalformedPattern)
	}
	open := strings.IndexByte(part, '<')
	if open == -1 {
		if strings.ContainsAny(part, "<>") {
			return segment{}, fmt.Errorf("%w: unbalanced brace in %q", ErrMalformedPattern, part)
		}
		return segment{literal: part}, nil
	}
	if open != 0 || part[len(part)-1] != '>' {
		return segment{}, fmt.Errorf("%w: unbalanced brace in %q", ErrMalformedPattern, part)
	}
	inner := part[1 : len(part)-1]
	if strings.ContainsAny(inner, "<>") {
		return segment{}, fmt.Errorf("%w: unbalanced brace in %q", ErrMalformedPattern, part)
	}
	name, typeName, hasType := strings.Cut(inner, ":")
	if name == "" {
		return segment{}, fmt.Errorf("%w: capture missing a name in %q", ErrMalformedPattern, part)
	}
	if !hasType {
		typeName = ""
	}
	typ, ok := resolveTypeTag(typeName)
	if !ok {
		return segment{}, fmt.Errorf("%w: %q in %q", ErrUnknownTypeTag, typeName, part)
	}
	return segment{isCapture: true, name: name, typ: typ}, nil
}

// MatchResult is the outcome of a successful Match: the captured values by
// name, and (for prefix matches used by mounts) the unconsumed path suffix.
type MatchResult struct {
	Captures map[string]string
	Rest     string
}

// Match attempts a full match of path against the pattern. Literal segments
// compare case-sensitively, and a trailing slash must be present on both
// the pattern and the path or on neither. Returns ok=false (no error) on a
// type validation failure: a failed type validation counts as no-match,
// not as an error.
func (p *Pattern) Match(path string) (MatchResult, bool) {
	return p.match(path, false)
}

// MatchPrefix attempts a prefix match for subrouter mounting: it succeeds
// as soon as every pattern segment is consumed, regardless of what
// remains in path, and returns the unconsumed remainder (or "/" when
// nothing remains) as MatchResult.Rest.
func (p *Pattern) MatchPrefix(path string) (MatchResult, bool) {
	return p.match(path, true)
}

func (p *Pattern) match(path string, prefix bool) (MatchResult, bool) {
	if path == "" {
		path = "/"
	}
	if !prefix {
		pathSlash := path != "/" && strings.HasSuffix(path, "/")
		patternSlash := p.source != "/" && strings.HasSuffix(p.source, "/")
		if pathSlash != patternSlash {
			return MatchResult{}, false
		}
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 1 && parts[0] == "" {
		parts = nil
	}

	if !prefix && len(parts) != len(p.segments) {
		return MatchResult{}, false
	}
	if prefix && len(parts) < len(p.segments) {
		return MatchResult{}, false
	}

	var captures map[string]string
	for i, seg := range p.segments {
		part := parts[i]
		if !seg.isCapture {
			if part != seg.literal {
				return MatchResult{}, false
			}
			continue
		}
		if !validateSegment(part, seg.typ) {
			return MatchResult{}, false
		}
		if captures == nil {
			captures = make(map[string]string, len(p.captures))
		}
		captures[seg.name] = part
	}

	rest := "/"
	if prefix {
		remaining := parts[len(p.segments):]
		if len(remaining) > 0 {
			rest = "/" + strings.Join(remaining, "/")
		}
	}
	return MatchResult{Captures: captures, Rest: rest}, true
}

// validateSegment checks a raw path segment against a capture's type tag:
// int is signed decimal, double is decimal with an optional exponent,
// bool accepts {true,false,0,1,yes,no} case-insensitive, string accepts
// any non-"/" run (guaranteed already, since segments are split on "/").
func validateSegment(raw string, typ SegmentType) bool {
	switch typ {
	case TypeInt:
		_, err := strconv.ParseInt(raw, 10, 64)
		return err == nil
	case TypeDouble:
		for i := 0; i < len(raw); i++ {
			switch c := raw[i]; {
			case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E', c == '+', c == '-':
			default:
				return false
			}
		}
		_, err := strconv.ParseFloat(raw, 64)
		return err == nil
	case TypeBool:
		switch strings.ToLower(raw) {
		case "true", "false", "0", "1", "yes", "no":
			return true
		default:
			return false
		}
	default:
		return true
	}
}
