/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"github.com/glacio/corerpc/cmn/nlog"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/wire"
)

// Validate performs the client side of the validation handshake: it
// expects a 14-byte ValidateConnection frame and transitions to Active on
// receipt. UDP connections skip validation entirely and go Active
// immediately.
func (c *Connection) Validate() error {
	if c.isUDP {
		c.transitionTo(Active)
		c.startACM()
		return nil
	}
	c.transitionTo(Validating)
	buf := make([]byte, wire.HeaderSize)
	n, err := readFull(c.tr, buf)
	if err != nil || n < wire.HeaderSize {
		return ierr.Wrap(ierr.ConnectionLost, err, "validation read")
	}
	wb := wire.NewBuffer(buf)
	hdr, err := wire.DecodeHeader(wb)
	if err != nil {
		return err
	}
	if hdr.MessageType != wire.MsgValidateConnection {
		return ierr.Newf(ierr.UnknownMessageType, "expected ValidateConnection, got %d", hdr.MessageType)
	}
	c.transitionTo(Active)
	c.startACM()
	return nil
}

// WriteValidation performs the server side: write the ValidateConnection
// frame synchronously before the connection is registered with the pool.
func (c *Connection) WriteValidation() error {
	if c.isUDP {
		c.transitionTo(Active)
		c.startACM()
		return nil
	}
	c.transitionTo(Validating)
	frame := c.frame(wire.MsgValidateConnection, nil)
	_, err := c.tr.Write(frame.Bytes())
	frame.Release()
	if err != nil {
		return ierr.Wrap(ierr.ConnectionLost, err, "validation write")
	}
	c.transitionTo(Active)
	c.startACM()
	return nil
}

func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

var allowedTransitions = map[State]map[State]bool{
	NotInitialized: {Validating: true, Active: true},
	Validating:     {Active: true, Closed: true},
	Active:         {Holding: true, Closing: true, Closed: true},
	Holding:        {Active: true, Closing: true, Closed: true},
	Closing:        {Closed: true},
	Closed:         {Finished: true},
	Finished:       {},
}

// transitionTo moves the connection to state to, logging (but not
// panicking on) a transition the table above doesn't recognize: a
// caller-side bug should be visible, not fatal to an otherwise-healthy
// connection.
func (c *Connection) transitionTo(to State) {
	c.mu.Lock()
	from := c.state
	if from != to && !allowedTransitions[from][to] {
		nlog.Warningf("conn %s: %v", c.diagnosticID, transitionError(from, to))
	}
	c.state = to
	c.mu.Unlock()
}

// Hold suspends processing (Active -> Holding); Resume reverses it.
func (c *Connection) Hold() {
	c.mu.Lock()
	if c.state == Active {
		c.state = Holding
	}
	c.mu.Unlock()
}

func (c *Connection) Resume() {
	c.mu.Lock()
	if c.state == Holding {
		c.state = Active
	}
	c.mu.Unlock()
}

// Close begins closing the connection per mode. Forcefully closes the
// transport immediately and fails every waiter; the Gracefully modes send
// CloseConnection and wait for outstanding work to drain (driven by
// maybeFinishClosing as replies/dispatches complete).
func (c *Connection) Close(mode CloseMode) {
	c.mu.Lock()
	if c.state == Closed || c.state == Finished {
		c.mu.Unlock()
		return
	}
	c.closeMode = &mode
	c.state = Closing
	c.mu.Unlock()

	if mode == Forcefully {
		c.failAll(ierr.New(ierr.ConnectionManuallyClosed, "closed forcefully"))
		c.transitionTo(Closed)
		c.finish()
		return
	}

	frame := c.frame(wire.MsgCloseConnection, nil)
	if err := c.enqueueOutput(frame); err != nil {
		nlog.Warningf("conn %s: CloseConnection enqueue failed: %v", c.diagnosticID, err)
	}
	c.maybeFinishClosing()
}

// maybeFinishClosing transitions Closing -> Closed -> Finished once every
// condition the active close mode requires has been met: the output queue
// is empty, there are no outstanding twoway waiters, and (for
// GracefullyWithWait) no server-side dispatch is still in flight.
func (c *Connection) maybeFinishClosing() {
	c.mu.Lock()
	if c.state != Closing {
		c.mu.Unlock()
		return
	}
	mode := c.closeMode
	outstandingReplies := len(c.requests)
	outstandingDispatches := c.dispatching
	queueEmpty := len(c.outQueue) == 0
	c.mu.Unlock()

	if !queueEmpty || outstandingReplies > 0 {
		return
	}
	if mode != nil && *mode == GracefullyWithWait && outstandingDispatches > 0 {
		return
	}
	c.transitionTo(Closed)
	c.finish()
}

func (c *Connection) closeOnTimeout() {
	c.failAll(ierr.New(ierr.ConnectionLost, "ACM idle timeout"))
	c.transitionTo(Closed)
	c.finish()
}

// failAll delivers a terminal error to every outstanding waiter exactly
// once, satisfying "a connection satisfies every active request before
// entering Finished".
func (c *Connection) failAll(err error) {
	c.mu.Lock()
	waiters := c.requests
	c.requests = make(map[int32]*Waiter)
	c.mu.Unlock()
	for _, w := range waiters {
		w.Fail(err)
	}
}

// finish tears down ACM, closes the transport, transitions to Finished, and
// invokes onClosed exactly once.
func (c *Connection) finish() {
	c.stopACM()
	if c.seenRequestsUnregister != nil {
		c.seenRequestsUnregister()
		c.seenRequestsUnregister = nil
	}
	c.tr.Close()
	c.transitionTo(Finished)
	if c.onClosed != nil {
		c.onClosed()
	}
}

// OnClosed registers a callback invoked once the connection reaches
// Finished (e.g. so the owning factory can remove it from its table).
func (c *Connection) OnClosed(f func()) { c.onClosed = f }
