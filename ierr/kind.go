// Package ierr defines the error taxonomy shared by the codec, connection
// runtime, and proxy layer: a small set of kinds, not a type per failure
// mode, each carrying a stack trace via github.com/pkg/errors.
/*
 * Copyright (c) 2018-2024, corerpc authors. All rights reserved.
 */
package ierr

// Kind classifies an error into one of the taxonomy's families. Kinds are
// compared by value, never by formatted message, so callers can branch on
// Is(err, SomeKind) regardless of the wrapped detail text.
type Kind uint8

const (
	// Encoding kinds are fatal to the current encapsulation: they close the
	// connection server-side, but only fail the current invocation client-side.
	UnmarshalOutOfBounds Kind = iota
	MarshalException
	Encapsulation
	UnsupportedEncoding
	NoValueFactory
	StringConversion

	// Protocol kinds are framing-level violations; all close the connection.
	BadMagic
	UnsupportedProtocol
	IllegalMessageSize
	UnknownMessageType
	UnknownReplyStatus
	UnknownRequestID
	CompressionNotSupported
	ConnectionManuallyClosed

	// Transport kinds close the connection and fail every waiter on it.
	// ConnectFailed and ConnectionLost are retry candidates.
	ConnectFailed
	ConnectTimeout
	ConnectionLost
	SocketException
	DNSException

	// Invocation kinds fail only the invocation in progress.
	// InvocationTimeout and InvocationCanceled never retry.
	ObjectNotExist
	FacetNotExist
	OperationNotExist
	InvocationTimeout
	InvocationCanceled
	TwowayOnly

	// Lifecycle kinds are raised directly, bypassing any retry queue.
	CommunicatorDestroyed
	ObjectAdapterDeactivated
)

var kindNames = [...]string{
	"UnmarshalOutOfBounds", "MarshalException", "Encapsulation", "UnsupportedEncoding",
	"NoValueFactory", "StringConversion",
	"BadMagic", "UnsupportedProtocol", "IllegalMessageSize", "UnknownMessageType",
	"UnknownReplyStatus", "UnknownRequestID", "CompressionNotSupported", "ConnectionManuallyClosed",
	"ConnectFailed", "ConnectTimeout", "ConnectionLost", "SocketException", "DNSException",
	"ObjectNotExist", "FacetNotExist", "OperationNotExist", "InvocationTimeout",
	"InvocationCanceled", "TwowayOnly",
	"CommunicatorDestroyed", "ObjectAdapterDeactivated",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UnknownKind"
}

// Family groups kinds for propagation decisions (see Retryable, ClosesConnection).
type Family uint8

const (
	FamilyEncoding Family = iota
	FamilyProtocol
	FamilyTransport
	FamilyInvocation
	FamilyLifecycle
)

func (k Kind) Family() Family {
	switch {
	case k <= StringConversion:
		return FamilyEncoding
	case k <= ConnectionManuallyClosed:
		return FamilyProtocol
	case k <= DNSException:
		return FamilyTransport
	case k <= TwowayOnly:
		return FamilyInvocation
	default:
		return FamilyLifecycle
	}
}

// ClosesConnection reports whether an error of this kind, observed on a
// connection, must close it (vs. only failing the current invocation).
func (k Kind) ClosesConnection() bool {
	switch k.Family() {
	case FamilyProtocol, FamilyTransport:
		return true
	default:
		return false
	}
}

// Retryable reports whether the kind is ever a candidate for retry. Actual
// retry also depends on operation idempotency and whether the request was
// already observed by the peer; see the conn/proxy packages.
func (k Kind) Retryable() bool {
	return k == ConnectFailed || k == ConnectionLost
}
