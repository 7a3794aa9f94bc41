/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package wire

import (
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

const HeaderSize = 14

var magic = [4]byte{'I', 'c', 'e', 'P'}

type MessageType uint8

const (
	MsgRequest MessageType = iota
	MsgBatchRequest
	MsgReply
	MsgValidateConnection
	MsgCloseConnection
)

type CompressionStatus uint8

const (
	CompressionNone CompressionStatus = iota
	CompressionNotCompressed
	CompressionDeflate
)

// Header is the 14-byte frame header common to every message type.
type Header struct {
	Protocol    model.ProtocolVersion
	Encoding    model.EncodingVersion
	MessageType MessageType
	Compression CompressionStatus
	MessageSize uint32 // total size including this 14-byte header
}

// Encode appends the header's wire representation to buf.
func (h Header) Encode(buf *Buffer) {
	buf.Append(magic[:])
	buf.WriteByte(h.Protocol.Major)
	buf.WriteByte(h.Protocol.Minor)
	buf.WriteByte(h.Encoding.Major)
	buf.WriteByte(h.Encoding.Minor)
	buf.WriteByte(byte(h.MessageType))
	buf.WriteByte(byte(h.Compression))
	buf.Append([]byte{
		byte(h.MessageSize), byte(h.MessageSize >> 8),
		byte(h.MessageSize >> 16), byte(h.MessageSize >> 24),
	})
}

// DecodeHeader reads and validates a 14-byte frame header from buf.
func DecodeHeader(buf *Buffer) (Header, error) {
	raw, err := buf.ReadBytes(HeaderSize)
	if err != nil {
		return Header{}, err
	}
	if raw[0] != magic[0] || raw[1] != magic[1] || raw[2] != magic[2] || raw[3] != magic[3] {
		return Header{}, ierr.Newf(ierr.BadMagic, "got %q", raw[:4])
	}
	h := Header{
		Protocol:    model.ProtocolVersion{Major: raw[4], Minor: raw[5]},
		Encoding:    model.EncodingVersion{Major: raw[6], Minor: raw[7]},
		MessageType: MessageType(raw[8]),
		Compression: CompressionStatus(raw[9]),
		MessageSize: uint32(raw[10]) | uint32(raw[11])<<8 | uint32(raw[12])<<16 | uint32(raw[13])<<24,
	}
	if h.Protocol.Major != 1 {
		return Header{}, ierr.Newf(ierr.UnsupportedProtocol, "%s", h.Protocol)
	}
	if h.MessageType > MsgCloseConnection {
		return Header{}, ierr.Newf(ierr.UnknownMessageType, "%d", h.MessageType)
	}
	if h.Compression > CompressionDeflate {
		return Header{}, ierr.Newf(ierr.CompressionNotSupported, "%d", h.Compression)
	}
	if h.MessageSize < HeaderSize {
		return Header{}, ierr.Newf(ierr.IllegalMessageSize, "%d", h.MessageSize)
	}
	return h, nil
}
