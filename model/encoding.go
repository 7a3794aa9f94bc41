/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package model

import "fmt"

// EncodingVersion identifies the wire format used inside one encapsulation.
// The core recognizes 1.0 and 1.1; anything else is UnsupportedEncoding.
type EncodingVersion struct {
	Major uint8
	Minor uint8
}

var (
	Encoding10 = EncodingVersion{Major: 1, Minor: 0}
	Encoding11 = EncodingVersion{Major: 1, Minor: 1}
)

func (v EncodingVersion) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

func (v EncodingVersion) Supported() bool {
	return v.Major == 1 && (v.Minor == 0 || v.Minor == 1)
}

func (v EncodingVersion) Eq(o EncodingVersion) bool { return v.Major == o.Major && v.Minor == o.Minor }

func (v EncodingVersion) Eq10() bool { return v.Eq(Encoding10) }
func (v EncodingVersion) Eq11() bool { return v.Eq(Encoding11) }

// ProtocolVersion identifies the framing protocol itself (distinct from the
// encapsulation's EncodingVersion — see the wire header in §6).
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

var Protocol10 = ProtocolVersion{Major: 1, Minor: 0}

func (v ProtocolVersion) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }
