package ierr_test

import (
	"errors"
	"net"
	"testing"

	"github.com/glacio/corerpc/ierr"
)

func TestNewAndIs(t *testing.T) {
	err := ierr.New(ierr.ObjectNotExist, "no such servant")
	if !ierr.Is(err, ierr.ObjectNotExist) {
		t.Fatal("expected Is to match the constructed kind")
	}
	if ierr.Is(err, ierr.FacetNotExist) {
		t.Fatal("expected Is to reject a different kind")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := &net.OpError{Op: "dial", Err: errors.New("refused")}
	err := ierr.Wrap(ierr.ConnectFailed, cause, "connect to endpoint")
	if !ierr.Is(err, ierr.ConnectFailed) {
		t.Fatal("expected wrapped error to carry the ConnectFailed kind")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to see through to the wrapped cause")
	}
}

func TestWrapNilIsNil(t *testing.T) {
	if ierr.Wrap(ierr.ConnectFailed, nil, "x") != nil {
		t.Fatal("expected Wrap(_, nil, _) to return nil")
	}
}

func TestKindOf(t *testing.T) {
	err := ierr.Newf(ierr.InvocationTimeout, "after %dms", 500)
	k, ok := ierr.KindOf(err)
	if !ok || k != ierr.InvocationTimeout {
		t.Fatalf("expected InvocationTimeout, got %v ok=%v", k, ok)
	}
	if _, ok := ierr.KindOf(errors.New("plain")); ok {
		t.Fatal("expected KindOf to report false for a plain error")
	}
}

func TestKindClassification(t *testing.T) {
	if !ierr.BadMagic.ClosesConnection() {
		t.Fatal("protocol errors must close the connection")
	}
	if ierr.ObjectNotExist.ClosesConnection() {
		t.Fatal("invocation errors must not close the connection")
	}
	if !ierr.ConnectFailed.Retryable() || !ierr.ConnectionLost.Retryable() {
		t.Fatal("expected ConnectFailed/ConnectionLost to be retryable")
	}
	if ierr.InvocationTimeout.Retryable() || ierr.InvocationCanceled.Retryable() {
		t.Fatal("expected InvocationTimeout/InvocationCanceled to never retry")
	}
}

func TestUnknownUserException(t *testing.T) {
	e := ierr.NewUnknownUserException("::Foo::BarException", [][]byte{{1, 2, 3}})
	if !e.Unknown() {
		t.Fatal("expected Unknown() true")
	}
	if e.TypeID() != "::Foo::BarException" {
		t.Fatalf("unexpected type id: %s", e.TypeID())
	}
	if len(e.Slices()) != 1 {
		t.Fatal("expected preserved slice data")
	}
}
