/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/wire"
)

// SendRequest marshals and queues one invocation. For Twoway it returns a
// Waiter the caller blocks on (or selects over via Waiter.Done); for every
// other mode it returns nil. Batch modes accumulate into the connection's
// batch buffer instead of hitting the wire immediately; AutoflushBytes (or
// an explicit FlushBatch) is what actually sends them.
func (c *Connection) SendRequest(identity model.Identity, facet, operation string, mode model.InvocationMode, ctx map[string]string, paramsEncaps []byte) (*Waiter, error) {
	c.mu.Lock()
	if !c.state.canSend() {
		c.mu.Unlock()
		return nil, ierr.Newf(ierr.InvocationCanceled, "connection is %s, not accepting new invocations", c.state)
	}
	c.mu.Unlock()

	var requestID int32
	var w *Waiter
	if mode == model.Twoway {
		requestID = c.ids.allocate()
		w = newWaiter(requestID)
		c.mu.Lock()
		c.requests[requestID] = w
		c.mu.Unlock()
	}

	body := wire.NewWriteBufferFromPool(requestScratchSize)
	encodeRequestBody(body, requestBody{
		RequestID: requestID,
		Identity:  identity,
		Facet:     facet,
		Operation: operation,
		Mode:      mode,
		Context:   ctx,
		Params:    paramsEncaps,
	}, c.cfg.Encoding)

	if mode.IsBatch() {
		shouldFlush := c.batch.Add(body.Bytes())
		body.Release()
		if shouldFlush {
			if err := c.FlushBatch(); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	frame := c.frame(wire.MsgRequest, body.Bytes())
	body.Release()
	if err := c.enqueueOutput(frame); err != nil {
		if w != nil {
			c.mu.Lock()
			delete(c.requests, requestID)
			c.mu.Unlock()
		}
		return nil, err
	}
	return w, nil
}

// FlushBatch sends whatever is currently accumulated in the batch buffer as
// a single BatchRequest message, if non-empty.
func (c *Connection) FlushBatch() error {
	body, ok := c.batch.Flush()
	if !ok {
		return nil
	}
	frame := c.frame(wire.MsgBatchRequest, body)
	return c.enqueueOutput(frame)
}

func (c *Connection) sendReply(requestID int32, status ReplyStatus, params []byte) {
	body := wire.NewWriteBufferFromPool(requestScratchSize)
	encodeReplyBody(body, replyBody{RequestID: requestID, Status: status, Params: params})
	frame := c.frame(wire.MsgReply, body.Bytes())
	body.Release()
	if err := c.enqueueOutput(frame); err != nil {
		nlog.Warningf("conn %s: reply enqueue failed: %v", c.diagnosticID, err)
	}
}

func (c *Connection) sendHeartbeat() {
	if c.cfg.Encoding.Eq11() {
		frame := c.frame(wire.MsgValidateConnection, nil)
		if err := c.enqueueOutput(frame); err != nil {
			nlog.Warningf("conn %s: heartbeat enqueue failed: %v", c.diagnosticID, err)
		}
	}
}

// requestScratchSize sizes the pooled scratch buffers used to build one
// request/reply body or frame; most invocations fit a single page, so the
// common case touches the pool once instead of allocating fresh.
const requestScratchSize = 4 * 1024

// frame wraps body with a 14-byte header declaring msgType and the total
// size, ready to enqueue for write. The returned Buffer is pool-backed and
// owned by the caller until it's written (enqueueOutput/flushOutQueue
// release it once fully drained).
func (c *Connection) frame(msgType wire.MessageType, body []byte) *wire.Buffer {
	buf := wire.NewWriteBufferFromPool(wire.HeaderSize + len(body))
	hdr := wire.Header{
		Protocol:    c.cfg.Protocol,
		Encoding:    c.cfg.Encoding,
		MessageType: msgType,
		Compression: wire.CompressionNone,
		MessageSize: uint32(wire.HeaderSize + len(body)),
	}
	hdr.Encode(buf)
	buf.Append(body)
	return buf
}

// enqueueOutput appends frame to the output queue and attempts an
// immediate write; whatever doesn't fit stays queued until the next
// write-readiness event.
func (c *Connection) enqueueOutput(frame *wire.Buffer) error {
	c.mu.Lock()
	c.outQueue = append(c.outQueue, frame)
	c.mu.Unlock()
	return c.flushOutQueue()
}

// flushOutQueue writes as much of the queued output as the transport will
// currently accept; a partial write leaves the remainder queued for the
// next write-readiness event, per the flow-control rule. A frame's pooled
// buffer is released as soon as it's been written in full.
func (c *Connection) flushOutQueue() error {
	c.mu.Lock()
	queue := c.outQueue
	c.mu.Unlock()

	i := 0
	for ; i < len(queue); i++ {
		b := queue[i].Bytes()
		n, err := c.tr.Write(b)
		if err != nil {
			return ierr.Wrap(ierr.ConnectionLost, err, "write")
		}
		if n < len(b) {
			queue[i].Advance(n)
			break
		}
		queue[i].Release()
		c.touch()
	}

	c.mu.Lock()
	if i >= len(queue) {
		c.outQueue = nil
	} else {
		c.outQueue = queue[i:]
	}
	c.mu.Unlock()
	return nil
}
