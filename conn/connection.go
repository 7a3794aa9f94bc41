/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"strconv"
	"sync"
	"time"

	"github.com/glacio/corerpc/cmn"
	"github.com/glacio/corerpc/cmn/cos"
	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/cmn/prob"
	"github.com/glacio/corerpc/hk"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/transport"
	"github.com/glacio/corerpc/wire"
)

// DispatchFunc handles an inbound Request/BatchRequest on the server side;
// the adapter package supplies one when it creates a Connection for an
// accepted transport. A oneway/batch request (requestID==0) has its result
// ignored.
type DispatchFunc func(identity model.Identity, facet, operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (status ReplyStatus, reply []byte)

// Config bundles what NewConnection needs beyond the transport itself.
type Config struct {
	Protocol       model.ProtocolVersion
	Encoding       model.EncodingVersion
	IsServer       bool
	ACM            ACMConfig
	MessageSizeMax int // bytes; 0 = 1MiB default
	BatchAutoflush int // bytes
	Dispatch       DispatchFunc
}

func (c *Config) setDefaults() {
	if c.Protocol == (model.ProtocolVersion{}) {
		c.Protocol = model.Protocol10
	}
	if c.Encoding == (model.EncodingVersion{}) {
		c.Encoding = model.Encoding11
	}
	if c.MessageSizeMax <= 0 {
		c.MessageSizeMax = int(cmn.Rom.MessageSizeMax())
	}
}

// Connection is the heavyweight runtime entity owning one transport, an
// input buffer, an output queue, an active-request table, an ACM policy,
// and the connection state machine. It implements pool.Handler so the
// thread pool's leader/follower loop can drive it non-blockingly; it also
// exposes a blocking Validate for the synchronous half of setup.
type Connection struct {
	cfg   Config
	tr    transport.Conn
	isUDP bool

	diagnosticID string

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	requests     map[int32]*Waiter
	ids          *requestIDAllocator
	seenRequests *prob.Filter // server-side inbound dedup guard, distinct from ids' outbound wraparound guard
	outQueue     []*wire.Buffer
	closeMode    *CloseMode
	dispatching  int // count of in-flight server-side dispatches, for GracefullyWithWait

	inBuf *wire.Buffer // accumulates partial reads across HandleReadable calls

	batch *batchBuffer

	acm           ACMConfig
	acmUnregister hk.UnregisterFunc

	seenRequestsUnregister hk.UnregisterFunc

	onClosed func() // invoked exactly once when the connection reaches Finished
}

// NewConnection wraps tr (already transport-connected) in the connection
// state machine. The caller still must call Validate (client) or
// WriteValidation (server) before sending application requests.
func NewConnection(tr transport.Conn, cfg Config, isUDP bool) *Connection {
	cfg.setDefaults()
	c := &Connection{
		cfg:          cfg,
		tr:           tr,
		isUDP:        isUDP,
		diagnosticID: cos.GenUUID(),
		state:        NotInitialized,
		lastActivity: time.Now(),
		requests:     make(map[int32]*Waiter),
		ids:          newRequestIDAllocator(),
		seenRequests: prob.New(4096),
		batch:        newBatchBuffer(cfg.BatchAutoflush),
		acm:          cfg.ACM,
		inBuf:        wire.NewBuffer(nil),
	}
	c.seenRequestsUnregister = hk.DefaultHK.Reg("conn-dedup-"+c.diagnosticID, func() time.Duration {
		c.seenRequests.Reset()
		return seenRequestsResetInterval
	}, seenRequestsResetInterval)
	return c
}

// seenRequestsResetInterval bounds how long the inbound duplicate-request-id
// guard remembers an id before reclaiming it, so a long-lived connection's
// filter doesn't grow toward its false-positive threshold purely from
// historical traffic.
const seenRequestsResetInterval = 5 * time.Minute

func (c *Connection) DiagnosticID() string { return c.diagnosticID }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
}

// pool.Handler implementation.

func (c *Connection) Fd() (uintptr, bool) { return c.tr.Fd() }
func (c *Connection) Serialize() bool     { return true }

func (c *Connection) HandleError(err error) {
	if c.State() == Finished {
		return
	}
	nlog.Warningf("conn %s: %v", c.diagnosticID, err)
	c.failAll(err)
	c.transitionTo(Closed)
	c.finish()
}

// HandleWritable flushes whatever is queued; if the queue drains and the
// connection is Closing with no outstanding replies, it finishes the close.
func (c *Connection) HandleWritable() {
	if err := c.flushOutQueue(); err != nil {
		c.HandleError(err)
		return
	}
	c.maybeFinishClosing()
}

// HandleReadable reads whatever bytes are available, parses as many
// complete frames as the accumulated buffer holds, and dispatches each.
func (c *Connection) HandleReadable() {
	scratch := wire.NewBufferFromPool(64 * 1024)
	n, err := c.tr.Read(scratch.Bytes())
	if n > 0 {
		c.inBuf.Append(scratch.Bytes()[:n])
		c.touch()
	}
	scratch.Release()
	if err != nil {
		c.HandleError(ierr.Wrap(ierr.ConnectionLost, err, "read"))
		return
	}
	for {
		consumed, handleErr := c.tryHandleOneMessage()
		if handleErr != nil {
			c.HandleError(handleErr)
			return
		}
		if !consumed {
			break
		}
	}
}

// tryHandleOneMessage parses and dispatches one frame from c.inBuf if a
// complete one is present, compacting the buffer afterward.
func (c *Connection) tryHandleOneMessage() (handled bool, err error) {
	if c.inBuf.Remaining() < wire.HeaderSize {
		return false, nil
	}
	startPos := c.inBuf.Pos()
	hdr, err := wire.DecodeHeader(c.inBuf)
	if err != nil {
		return false, err
	}
	if int(hdr.MessageSize) > c.cfg.MessageSizeMax {
		return false, ierr.Newf(ierr.IllegalMessageSize, "message of %d bytes exceeds MessageSizeMax %d", hdr.MessageSize, c.cfg.MessageSizeMax)
	}
	bodyLen := int(hdr.MessageSize) - wire.HeaderSize
	if c.inBuf.Remaining() < bodyLen {
		c.inBuf.Seek(startPos) // rewind: wait for the rest of the body
		return false, nil
	}
	if hdr.Compression == wire.CompressionDeflate {
		return false, ierr.New(ierr.CompressionNotSupported, "deflate payload, no compressor configured")
	}
	// Dispatch against a view that ends at this frame's last byte, so a body
	// decoder that takes "the rest" never reads into the next frame; then
	// skip past the whole frame before compacting.
	end := startPos + int(hdr.MessageSize)
	all := c.inBuf
	c.inBuf = wire.NewBuffer(all.Bytes()[:end])
	c.inBuf.Seek(all.Pos())
	c.dispatchMessage(hdr)
	all.Seek(end)
	c.inBuf = all
	c.compactInBuf()
	return true, nil
}

// compactInBuf discards bytes already consumed so the buffer doesn't grow
// unbounded across many small messages.
func (c *Connection) compactInBuf() {
	remaining := append([]byte(nil), c.inBuf.Bytes()[c.inBuf.Pos():]...)
	c.inBuf = wire.NewBuffer(remaining)
}

func (c *Connection) dispatchMessage(hdr wire.Header) {
	switch hdr.MessageType {
	case wire.MsgValidateConnection:
		// zero-byte body; a heartbeat or the initial handshake frame.
		if c.State() == Validating {
			c.transitionTo(Active)
		}
	case wire.MsgRequest:
		rb, err := decodeRequestBody(c.inBuf, hdr.Encoding)
		if err != nil {
			nlog.Warningf("conn %s: malformed request: %v", c.diagnosticID, err)
			return
		}
		c.handleRequest(rb)
	case wire.MsgBatchRequest:
		n, err := readBatchCount(c.inBuf)
		if err != nil {
			nlog.Warningf("conn %s: malformed batch: %v", c.diagnosticID, err)
			return
		}
		for i := 0; i < n; i++ {
			rb, err := decodeRequestBody(c.inBuf, hdr.Encoding)
			if err != nil {
				nlog.Warningf("conn %s: malformed batched request: %v", c.diagnosticID, err)
				return
			}
			c.handleRequest(rb)
		}
	case wire.MsgReply:
		rb, err := decodeReplyBody(c.inBuf)
		if err != nil {
			nlog.Warningf("conn %s: malformed reply: %v", c.diagnosticID, err)
			return
		}
		c.handleReply(rb)
	case wire.MsgCloseConnection:
		c.transitionTo(Closing)
		c.maybeFinishClosing()
	}
}

func (c *Connection) handleRequest(rb requestBody) {
	if err := validateRequestID(rb.RequestID); err != nil {
		nlog.Warningf("conn %s: %v", c.diagnosticID, err)
		return
	}
	if rb.RequestID != 0 {
		key := []byte(strconv.FormatInt(int64(rb.RequestID), 10))
		if already := c.seenRequests.AddIfNotPresent(key); already {
			nlog.Warningf("conn %s: dropping duplicate request id %d", c.diagnosticID, rb.RequestID)
			return
		}
	}
	if c.cfg.Dispatch == nil {
		if rb.RequestID != 0 {
			c.sendReply(rb.RequestID, ReplyObjectNotExist, nil)
		}
		return
	}
	c.mu.Lock()
	c.dispatching++
	c.mu.Unlock()
	status, reply := c.cfg.Dispatch(rb.Identity, rb.Facet, rb.Operation, rb.Mode, rb.Context, rb.Params)
	c.mu.Lock()
	c.dispatching--
	c.mu.Unlock()
	if rb.RequestID != 0 {
		c.sendReply(rb.RequestID, status, reply)
	}
	c.maybeFinishClosing()
}

func (c *Connection) handleReply(rb replyBody) {
	c.mu.Lock()
	w, ok := c.requests[rb.RequestID]
	if ok {
		delete(c.requests, rb.RequestID)
	}
	empty := len(c.requests) == 0
	c.mu.Unlock()
	if !ok {
		// Either the peer is misbehaving, or this is a late reply for a
		// request CancelRequest already removed from the table (timeout or
		// explicit cancel): either way it's a protocol violation, not
		// something to silently ignore.
		c.HandleError(ierr.Newf(ierr.UnknownRequestID, "reply for unknown or already-canceled request id %d", rb.RequestID))
		return
	}
	w.Complete(rb.Status, rb.Params)
	if empty {
		c.ids.resetIfIdle()
	}
	c.maybeFinishClosing()
}

// CancelRequest removes requestID's waiter from the active-request table,
// if still present, and completes it with err. It is idempotent: a
// requestID no longer in the table (already replied, or already canceled
// by a prior call) is a no-op and CancelRequest reports false. A reply
// that later arrives for a canceled id finds the table empty and is
// treated by handleReply as the protocol error the cancellation scenario
// requires.
func (c *Connection) CancelRequest(requestID int32, err error) bool {
	c.mu.Lock()
	w, ok := c.requests[requestID]
	if ok {
		delete(c.requests, requestID)
	}
	empty := len(c.requests) == 0
	c.mu.Unlock()
	if !ok {
		return false
	}
	w.Fail(err)
	if empty {
		c.ids.resetIfIdle()
	}
	c.maybeFinishClosing()
	return true
}
