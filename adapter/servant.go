// Package adapter implements the server-side object adapter: a servant
// registry keyed by identity and facet, a per-category default servant
// fallback, a locator chain consulted before giving up, and the incoming
// request demux that turns all three into a conn.DispatchFunc.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package adapter

import (
	"github.com/glacio/corerpc/conn"
	"github.com/glacio/corerpc/model"
)

// Servant answers one dispatched operation against the identity/facet it
// was found under. The params and returned reply are still-encoded
// encapsulations; a Servant never sees the wire frame around them.
type Servant interface {
	Dispatch(operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (status conn.ReplyStatus, reply []byte)
}

// ServantFunc adapts a plain function to Servant.
type ServantFunc func(operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte)

func (f ServantFunc) Dispatch(operation string, mode model.InvocationMode, ctx map[string]string, params []byte) (conn.ReplyStatus, []byte) {
	return f(operation, mode, ctx, params)
}
