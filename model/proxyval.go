/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package model

import (
	"fmt"
	"strings"
)

// InvocationMode selects the delivery semantics of an operation invocation.
type InvocationMode uint8

const (
	Twoway InvocationMode = iota
	Oneway
	BatchOneway
	Datagram
	BatchDatagram
)

func (m InvocationMode) String() string {
	switch m {
	case Twoway:
		return "twoway"
	case Oneway:
		return "oneway"
	case BatchOneway:
		return "batch-oneway"
	case Datagram:
		return "datagram"
	case BatchDatagram:
		return "batch-datagram"
	default:
		return "unknown"
	}
}

// IsBatch reports whether invocations queue into a batch instead of sending
// immediately.
func (m InvocationMode) IsBatch() bool { return m == BatchOneway || m == BatchDatagram }

// EndpointSelection picks which resolved connector is tried first when a
// proxy has more than one endpoint.
type EndpointSelection uint8

const (
	Random EndpointSelection = iota
	Ordered
)

func (s EndpointSelection) String() string {
	if s == Ordered {
		return "ordered"
	}
	return "random"
}

// Tristate is a three-valued flag (unset/false/true) used for proxy
// properties like Compress that default from the communicator rather than
// from a hardcoded zero value.
type Tristate uint8

const (
	Unset Tristate = iota
	False
	True
)

func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Proxy is an immutable reference to a remote (or, when CollocationOptimized
// applies, local) servant. Every mutator (e.g. WithTimeout) returns a new
// Proxy value rather than changing the receiver in place.
type Proxy struct {
	Identity   Identity
	Facet      string
	Mode       InvocationMode
	Selection  EndpointSelection
	Encoding   EncodingVersion
	Secure     bool
	PreferSecure bool
	Collocated bool
	Compress   Tristate
	TimeoutMs  int // 0 with timeoutSet==false means "no explicit timeout"
	timeoutSet bool

	AdapterID    string
	Endpoints    []EndpointSpec
	ConnectionID string

	// Context is the proxy's inherited default request context; every
	// invocation merges an explicit per-call context over it (shallow
	// override by key).
	Context map[string]string

	// Router and Locator are deliberately untyped here (interface{}) to avoid
	// a dependency cycle between model and the proxy/adapter packages that
	// implement them; callers type-assert to the concrete interface they need.
	Router  any
	Locator any
}

// NewProxy builds a base proxy bound to an identity, encoding 1.1 and random
// endpoint selection per the defaults in §6.
func NewProxy(id Identity) Proxy {
	return Proxy{
		Identity:  id,
		Mode:      Twoway,
		Selection: Random,
		Encoding:  Encoding11,
	}
}

func (p Proxy) IsTwoway() bool { return p.Mode == Twoway }

func (p Proxy) HasTimeout() bool { return p.timeoutSet }

func (p Proxy) WithFacet(facet string) Proxy {
	p.Facet = facet
	return p
}

func (p Proxy) WithMode(m InvocationMode) Proxy {
	p.Mode = m
	return p
}

func (p Proxy) WithEndpointSelection(s EndpointSelection) Proxy {
	p.Selection = s
	return p
}

func (p Proxy) WithEncoding(v EncodingVersion) Proxy {
	p.Encoding = v
	return p
}

func (p Proxy) WithSecure(secure bool) Proxy {
	p.Secure = secure
	return p
}

func (p Proxy) WithCompress(t Tristate) Proxy {
	p.Compress = t
	return p
}

func (p Proxy) WithTimeoutMs(ms int) Proxy {
	p.TimeoutMs = ms
	p.timeoutSet = true
	return p
}

func (p Proxy) WithoutTimeout() Proxy {
	p.TimeoutMs = 0
	p.timeoutSet = false
	return p
}

func (p Proxy) WithAdapterID(id string) Proxy {
	p.AdapterID = id
	p.Endpoints = nil
	return p
}

func (p Proxy) WithEndpoints(eps []EndpointSpec) Proxy {
	cp := make([]EndpointSpec, len(eps))
	copy(cp, eps)
	p.Endpoints = cp
	p.AdapterID = ""
	return p
}

func (p Proxy) WithConnectionID(id string) Proxy {
	p.ConnectionID = id
	return p
}

// WithContext replaces the proxy's inherited default context outright; it
// does not merge with the existing one (merging an explicit per-call
// context over this default happens at invocation time, not here).
func (p Proxy) WithContext(ctx map[string]string) Proxy {
	cp := make(map[string]string, len(ctx))
	for k, v := range ctx {
		cp[k] = v
	}
	p.Context = cp
	return p
}

// String renders the proxy-string grammar:
//
//	name[/category][ -f facet][ -t|-o|-O|-d|-D][ -s][ -e M.m] endpoints...
func (p Proxy) String() string {
	var b strings.Builder
	b.WriteString(p.Identity.String())
	if p.Facet != "" {
		fmt.Fprintf(&b, " -f %s", escapeIdentityPart(p.Facet))
	}
	switch p.Mode {
	case Oneway:
		b.WriteString(" -o")
	case BatchOneway:
		b.WriteString(" -O")
	case Datagram:
		b.WriteString(" -d")
	case BatchDatagram:
		b.WriteString(" -D")
	case Twoway:
		b.WriteString(" -t")
	}
	if p.Secure {
		b.WriteString(" -s")
	}
	if p.Encoding != (EncodingVersion{}) {
		fmt.Fprintf(&b, " -e %s", p.Encoding)
	}
	if p.AdapterID != "" {
		fmt.Fprintf(&b, " @ %s", escapeIdentityPart(p.AdapterID))
		return b.String()
	}
	for _, ep := range p.Endpoints {
		b.WriteString(" : ")
		b.WriteString(ep.String())
	}
	return b.String()
}

// ParseProxy parses the proxy-string grammar produced by Proxy.String.
func ParseProxy(s string) (Proxy, error) {
	head, rest, hasRest := cutFirstUnescapedSpace(s)
	id, err := ParseIdentity(head)
	if err != nil {
		return Proxy{}, err
	}
	p := NewProxy(id)
	if !hasRest {
		return p, nil
	}

	if idx := strings.Index(rest, "@"); idx >= 0 && !strings.Contains(rest, ":") {
		opts := strings.TrimSpace(rest[:idx])
		adapter := strings.TrimSpace(rest[idx+1:])
		if err := applyProxyOptions(&p, opts); err != nil {
			return Proxy{}, err
		}
		name, err := unescapeIdentityPart(adapter)
		if err != nil {
			return Proxy{}, err
		}
		p.AdapterID = name
		return p, nil
	}

	parts := strings.Split(rest, ":")
	if err := applyProxyOptions(&p, strings.TrimSpace(parts[0])); err != nil {
		return Proxy{}, err
	}
	for _, clause := range parts[1:] {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		ep, err := ParseEndpoint(clause)
		if err != nil {
			return Proxy{}, err
		}
		p.Endpoints = append(p.Endpoints, ep)
	}
	return p, nil
}

func applyProxyOptions(p *Proxy, opts string) error {
	fields := strings.Fields(opts)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-f":
			i++
			if i >= len(fields) {
				return fmt.Errorf("model: -f missing argument")
			}
			facet, err := unescapeIdentityPart(fields[i])
			if err != nil {
				return err
			}
			p.Facet = facet
		case "-t":
			p.Mode = Twoway
		case "-o":
			p.Mode = Oneway
		case "-O":
			p.Mode = BatchOneway
		case "-d":
			p.Mode = Datagram
		case "-D":
			p.Mode = BatchDatagram
		case "-s":
			p.Secure = true
		case "-e":
			i++
			if i >= len(fields) {
				return fmt.Errorf("model: -e missing argument")
			}
			v, err := parseEncodingVersion(fields[i])
			if err != nil {
				return err
			}
			p.Encoding = v
		default:
			return fmt.Errorf("model: unrecognized proxy option %q", fields[i])
		}
	}
	return nil
}

func cutFirstUnescapedSpace(s string) (head, rest string, ok bool) {
	esc := false
	for i := 0; i < len(s); i++ {
		switch {
		case esc:
			esc = false
		case s[i] == '\\':
			esc = true
		case s[i] == ' ':
			return s[:i], strings.TrimSpace(s[i+1:]), true
		}
	}
	return s, "", false
}
