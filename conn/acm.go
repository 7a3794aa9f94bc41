/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package conn

import (
	"time"

	"github.com/glacio/corerpc/hk"
)

// ACMConfig is the activity-based connection management policy: a
// heartbeat fires every Timeout/4; if no bytes have moved in Timeout, the
// connection is closed with a timeout error.
type ACMConfig struct {
	Timeout time.Duration
}

func (c ACMConfig) enabled() bool { return c.Timeout > 0 }

func (c ACMConfig) heartbeatInterval() time.Duration {
	iv := c.Timeout / 4
	if iv <= 0 {
		iv = time.Second
	}
	return iv
}

// startACM registers a housekeeping callback that fires a heartbeat (a
// zero-byte ValidateConnection message under v1.1) and checks for idle
// timeout; it reschedules itself at ACMConfig.Timeout/4 until Close tears it
// down. Using hk.DefaultHK gives every connection's heartbeat a shared timer
// instead of one goroutine+ticker per connection.
func (c *Connection) startACM() {
	if !c.acm.enabled() {
		return
	}
	c.acmUnregister = hk.DefaultHK.Reg("conn-acm-"+c.diagnosticID, func() time.Duration {
		return c.acmTick()
	}, c.acm.heartbeatInterval())
}

func (c *Connection) stopACM() {
	if c.acmUnregister != nil {
		c.acmUnregister()
		c.acmUnregister = nil
	}
}

// acmTick is the per-interval ACM callback; it returns the next interval to
// wait, or <=0 once the connection has closed (unregistering itself).
func (c *Connection) acmTick() time.Duration {
	c.mu.Lock()
	state := c.state
	idleFor := time.Since(c.lastActivity)
	c.mu.Unlock()

	if state == Closed || state == Finished {
		return 0
	}
	if idleFor >= c.acm.Timeout {
		c.closeOnTimeout()
		return 0
	}
	c.sendHeartbeat()
	return c.acm.heartbeatInterval()
}
