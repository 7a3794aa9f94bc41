/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package transport

import (
	"context"
	"crypto/tls"

	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
)

// TLSConfigFunc resolves the *tls.Config to present for a given endpoint;
// the resolver/connector pipeline supplies this per adapter/proxy secure
// endpoint so certificate selection stays outside the transport layer.
type TLSConfigFunc func(ep model.EndpointSpec) (*tls.Config, error)

type tlsTransport struct {
	configFn TLSConfigFunc
}

func NewTLSTransport(configFn TLSConfigFunc) Transport {
	if configFn == nil {
		configFn = func(model.EndpointSpec) (*tls.Config, error) { return &tls.Config{}, nil }
	}
	return tlsTransport{configFn: configFn}
}

func (tlsTransport) IsDatagram() bool { return false }
func (tlsTransport) IsSecure() bool   { return true }

func (t tlsTransport) ConnectAsync(ctx context.Context, ep model.EndpointSpec) (Conn, error) {
	cfg, err := t.configFn(ep)
	if err != nil {
		return nil, ierr.Wrap(ierr.ConnectFailed, err, "tls config")
	}
	raw, err := dialTCP(ctx, "tcp", ep)
	if err != nil {
		return nil, err
	}
	tc := tls.Client(raw, cfg)
	if err := tc.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, ierr.Wrap(ierr.ConnectFailed, err, "tls handshake")
	}
	return &tcpConn{Conn: tc}, nil
}
