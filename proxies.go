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
	"net"
	"net/http"
	"strings"
)

// RealIPHeader names a header consulted for real client IP detection, used
// to populate Request.RemoteIP.
type RealIPHeader string

const (
	HeaderXFF          RealIPHeader = "X-Forwarded-For"
	HeaderXRealIP      RealIPHeader = "X-Real-IP"
	HeaderCFConnecting RealIPHeader = "CF-Connecting-IP"
)

type trustedProxyConfig struct {
	proxies []string
	headers []RealIPHeader
	maxHops int
}

// TrustedProxyOption configures WithTrustedProxies.
type TrustedProxyOption func(*trustedProxyConfig)

func WithProxies(cidrs ...string) TrustedProxyOption {
	return func(cfg *trustedProxyConfig) { cfg.proxies = cidrs }
}

func WithProxyHeaders(headers ...RealIPHeader) TrustedProxyOption {
	return func(cfg *trustedProxyConfig) { cfg.headers = headers }
}

func WithProxyMaxHops(maxHops int) TrustedProxyOption {
	return func(cfg *trustedProxyConfig) { cfg.maxHops = maxHops }
}

type realIPConfig struct {
	cidrs   []*net.IPNet
	headers []RealIPHeader
	maxHops int
}

func compileProxies(opts *trustedProxyConfig) (*realIPConfig, error) {
	cfg := &realIPConfig{headers: opts.headers, maxHops: opts.maxHops}
	if len(cfg.headers) == 0 {
		cfg.headers = []RealIPHeader{HeaderXFF, HeaderXRealIP}
	}
	if cfg.maxHops <= 0 {
		cfg.maxHops = 1
	}
	cfg.cidrs = make([]*net.IPNet, 0, len(opts.proxies))
	for _, cidr := range opts.proxies {
		_, ipnet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("router: invalid trusted proxy CIDR %q: %w", cidr, err)
		}
		cfg.cidrs = append(cfg.cidrs, ipnet)
	}
	return cfg, nil
}

func (cfg *realIPConfig) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, ipnet := range cfg.cidrs {
		if ipnet.Contains(parsed) {
			return true
		}
	}
	return false
}

// WithTrustedProxies configures trusted proxy CIDRs and the forwarding
// headers consulted for them. Only peers in the CIDR list have their
// forwarding headers trusted, preventing IP-spoofing via forged headers.
func WithTrustedProxies(opts ...TrustedProxyOption) Option {
	return func(r *Router) {
		cfg := &trustedProxyConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		compiled, err := compileProxies(cfg)
		if err != nil {
			panic(fmt.Sprintf("router: invalid trusted proxy configuration: %v", err))
		}
		r.realip = compiled
	}
}

// clientIP resolves the RemoteIP field of a freshly acquired Request,
// consulting trusted-proxy headers only when the immediate peer is
// trusted.
func (r *Router) clientIP(raw *http.Request) string {
	remote := clientIPFromRemoteAddr(raw.RemoteAddr)
	if r.realip == nil {
		return remote
	}
	cfg := r.realip
	if !cfg.isTrusted(remote) {
		return remote
	}
	for _, h := range cfg.headers {
		switch h {
		case HeaderXFF:
			if ip := r.lastUntrustedXFF(raw.Header.Get("X-Forwarded-For"), cfg); ip != "" {
				return ip
			}
		case HeaderXRealIP:
			if ip := r.parseProxyHeaderIP(h, raw.Header.Get("X-Real-IP")); ip != "" {
				return ip
			}
		case HeaderCFConnecting:
			if ip := r.parseProxyHeaderIP(h, raw.Header.Get("Cf-Connecting-Ip")); ip != "" {
				return ip
			}
		default:
			if ip := r.parseProxyHeaderIP(h, raw.Header.Get(string(h))); ip != "" {
				return ip
			}
		}
	}
	return remote
}

// parseProxyHeaderIP parses a single-value proxy header, emitting
// DiagHeaderInjection when the raw value carries a control character (a CR
// or LF smuggled past a lenient upstream proxy rather than rejected at the
// TCP layer) before it is ever used for routing or logging decisions.
func (r *Router) parseProxyHeaderIP(header RealIPHeader, raw string) string {
	if containsControlChar(raw) {
		r.emit(DiagHeaderInjection, "proxy header contains a control character", map[string]any{
			"header": string(header),
		})
		return ""
	}
	return parseOneIP(raw)
}

func containsControlChar(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}

func clientIPFromRemoteAddr(remoteAddr string) string {
	if remoteAddr == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// lastUntrustedXFF walks an X-Forwarded-For chain from the right, skipping
// entries that are themselves trusted proxies, and returns the first
// untrusted (i.e. client-originated) address. A chain entry that fails to
// parse as an IP at all is reported via DiagXFFSuspicious: a well-behaved
// proxy never appends garbage, so this usually means a client forged the
// header hoping an untrusted entry would be read as the real address.
func (r *Router) lastUntrustedXFF(xff string, cfg *realIPConfig) string {
	if containsControlChar(xff) {
		r.emit(DiagHeaderInjection, "X-Forwarded-For contains a control character", nil)
		return ""
	}
	if xff == "" {
		return ""
	}
	parts := splitAndTrim(xff, ',')
	if len(parts) == 0 {
		return ""
	}
	hops := 0
	for i := len(parts) - 1; i >= 0; i-- {
		ip := parseOneIP(parts[i])
		if ip == "" {
			r.emit(DiagXFFSuspicious, "X-Forwarded-For entry is not a parseable IP", map[string]any{
				"chain": xff, "entry": parts[i],
			})
			continue
		}
		if cfg.isTrusted(ip) {
			hops++
			if cfg.maxHops > 0 && hops > cfg.maxHops {
				break
			}
			continue
		}
		return ip
	}
	if ip := parseOneIP(parts[0]); ip != "" {
		return ip
	}
	return ""
}

func parseOneIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}

func splitAndTrim(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, string(sep))
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
