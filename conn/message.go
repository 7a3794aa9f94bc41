/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"github.com/glacio/corerpc/cmn"
	"github.com/glacio/corerpc/codec"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/wire"
)

// requestBody is the Request message's own payload, written after the
// 14-byte frame header: request id, target identity/facet/operation,
// invocation mode, context, and the already-encapsulated parameters.
type requestBody struct {
	RequestID int32
	Identity  model.Identity
	Facet     string
	Operation string
	Mode      model.InvocationMode
	Context   map[string]string
	Params    []byte // a complete startEncapsulation..endEncapsulation byte range
}

func encodeRequestBody(buf *wire.Buffer, rb requestBody, encVersion model.EncodingVersion) {
	enc := codec.NewEncoder(buf, encVersion)
	enc.WriteInt32(rb.RequestID)
	enc.WriteString(rb.Identity.Name)
	enc.WriteString(rb.Identity.Category)
	enc.WriteString(rb.Facet)
	enc.WriteString(rb.Operation)
	enc.WriteByte(byte(rb.Mode))
	enc.WriteContext(rb.Context)
	buf.Append(rb.Params)
}

func decodeRequestBody(buf *wire.Buffer, encVersion model.EncodingVersion) (requestBody, error) {
	dec := codec.NewDecoder(buf, encVersion, cmn.Rom.ClassGraphDepthMax(), nil, nil)
	var rb requestBody
	var err error
	if rb.RequestID, err = dec.ReadInt32(); err != nil {
		return rb, err
	}
	if rb.Identity.Name, err = dec.ReadString(); err != nil {
		return rb, err
	}
	if rb.Identity.Category, err = dec.ReadString(); err != nil {
		return rb, err
	}
	if rb.Facet, err = dec.ReadString(); err != nil {
		return rb, err
	}
	if rb.Operation, err = dec.ReadString(); err != nil {
		return rb, err
	}
	modeByte, err := dec.ReadByte()
	if err != nil {
		return rb, err
	}
	rb.Mode = model.InvocationMode(modeByte)
	if rb.Context, err = dec.ReadContext(); err != nil {
		return rb, err
	}
	rb.Params = buf.Bytes()[buf.Pos():]
	return rb, nil
}

// replyBody is the Reply message's own payload: request id, status byte,
// and the already-encapsulated result (or user exception).
type replyBody struct {
	RequestID int32
	Status    ReplyStatus
	Params    []byte
}

func encodeReplyBody(buf *wire.Buffer, rb replyBody) {
	buf.WriteByte(byte(rb.RequestID))
	buf.Append([]byte{byte(rb.RequestID >> 8), byte(rb.RequestID >> 16), byte(rb.RequestID >> 24)})
	buf.WriteByte(byte(rb.Status))
	buf.Append(rb.Params)
}

func decodeReplyBody(buf *wire.Buffer) (replyBody, error) {
	raw, err := buf.ReadBytes(5)
	if err != nil {
		return replyBody{}, err
	}
	rb := replyBody{
		RequestID: int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16 | int32(raw[3])<<24,
		Status:    ReplyStatus(raw[4]),
	}
	rb.Params = buf.Bytes()[buf.Pos():]
	return rb, nil
}

// readBatchCount reads the 4-byte request-count placeholder a BatchRequest
// message starts with.
func readBatchCount(buf *wire.Buffer) (int, error) {
	raw, err := buf.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	n := int32(raw[0]) | int32(raw[1])<<8 | int32(raw[2])<<16 | int32(raw[3])<<24
	if n < 0 {
		return 0, ierr.Newf(ierr.IllegalMessageSize, "negative batch count %d", n)
	}
	return int(n), nil
}
