// Package model holds the immutable value types shared by the wire codec,
// the connection runtime, and the proxy layer: identities, encoding
// versions, endpoint descriptors, and the proxy value itself.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package model

import (
	"fmt"
	"strings"
)

// Identity names a servant: category groups related identities (often a
// facet-like namespace), name is the servant's own key within it. An empty
// name is invalid for any identity used as a dispatch target.
type Identity struct {
	Category string
	Name     string
}

func (id Identity) IsEmpty() bool { return id.Name == "" }

// String renders the "name[/category]" proxy-string grammar, escaping '/'
// and whitespace in either field.
func (id Identity) String() string {
	if id.Category == "" {
		return escapeIdentityPart(id.Name)
	}
	return escapeIdentityPart(id.Name) + "/" + escapeIdentityPart(id.Category)
}

// ParseIdentity parses the "name[/category]" grammar produced by String.
func ParseIdentity(s string) (Identity, error) {
	parts := splitUnescaped(s, '/')
	switch len(parts) {
	case 1:
		name, err := unescapeIdentityPart(parts[0])
		if err != nil {
			return Identity{}, err
		}
		return Identity{Name: name}, nil
	case 2:
		name, err := unescapeIdentityPart(parts[0])
		if err != nil {
			return Identity{}, err
		}
		cat, err := unescapeIdentityPart(parts[1])
		if err != nil {
			return Identity{}, err
		}
		return Identity{Name: name, Category: cat}, nil
	default:
		return Identity{}, fmt.Errorf("model: invalid identity %q", s)
	}
}

func escapeIdentityPart(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '/', '\\', ' ', '\t', '\n':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func unescapeIdentityPart(s string) (string, error) {
	var b strings.Builder
	esc := false
	for _, r := range s {
		if esc {
			b.WriteRune(r)
			esc = false
			continue
		}
		if r == '\\' {
			esc = true
			continue
		}
		b.WriteRune(r)
	}
	if esc {
		return "", fmt.Errorf("model: dangling escape in %q", s)
	}
	return b.String(), nil
}

// splitUnescaped splits s on sep, honoring backslash-escaping of sep so an
// escaped '/' inside a name doesn't end the name field early.
func splitUnescaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	esc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case esc:
			cur.WriteByte(c)
			esc = false
		case c == '\\':
			cur.WriteByte(c)
			esc = true
		case c == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	parts = append(parts, cur.String())
	return parts
}
