package codec_test

import (
	"testing"

	"github.com/glacio/corerpc/codec"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/wire"
)

// node is a minimal fixture class implementing codec.SliceCodec, with an
// optional Next pointer so tests can build cyclic graphs.
type node struct {
	Name string
	Next *node
}

func (n *node) TypeID() string { return "::test::Node" }
func (n *node) isNil() bool    { return n == nil }

func (n *node) MarshalSlice(e *codec.Encoder) error {
	e.WriteString(n.Name)
	return e.WriteValue(wrapNode(n.Next))
}

func (n *node) UnmarshalSlice(d *codec.Decoder) error {
	name, err := d.ReadString()
	if err != nil {
		return err
	}
	n.Name = name
	next, err := d.ReadValue(nil)
	if err != nil {
		return err
	}
	if next != nil {
		n.Next = next.(*node)
	}
	return nil
}

func wrapNode(n *node) codec.SliceCodec {
	if n == nil {
		return (*node)(nil)
	}
	return n
}

func newRegistry() *codec.ValueFactoryRegistry {
	reg := codec.NewValueFactoryRegistry()
	reg.Register("::test::Node", func() codec.SliceCodec { return &node{} })
	return reg
}

func TestClassGraphSimpleRoundtrip(t *testing.T) {
	reg := newRegistry()
	a := &node{Name: "a", Next: &node{Name: "b"}}

	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	if err := enc.WriteValue(a); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, reg, nil)
	got, err := dec.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	gotNode := got.(*node)
	if gotNode.Name != "a" || gotNode.Next == nil || gotNode.Next.Name != "b" {
		t.Fatalf("unexpected decoded graph: %+v", gotNode)
	}
}

func TestClassGraphSharedReference(t *testing.T) {
	reg := newRegistry()
	shared := &node{Name: "shared"}
	root := &node{Name: "root", Next: shared}

	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	if err := enc.WriteValue(root); err != nil {
		t.Fatalf("WriteValue(root): %v", err)
	}
	if err := enc.WriteValue(shared); err != nil {
		t.Fatalf("WriteValue(shared): %v", err)
	}

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, reg, nil)
	gotRoot, err := dec.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue(root): %v", err)
	}
	gotShared, err := dec.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue(shared): %v", err)
	}
	if gotRoot.(*node).Next != gotShared.(*node) {
		t.Fatal("expected the shared reference to decode to the same instance")
	}
}

func TestClassGraphNilReference(t *testing.T) {
	reg := newRegistry()
	leaf := &node{Name: "leaf"}

	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	if err := enc.WriteValue(leaf); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, reg, nil)
	got, err := dec.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if got.(*node).Next != nil {
		t.Fatal("expected a nil Next to decode back to nil")
	}
}

func TestClassGraphUnknownTypePreserved(t *testing.T) {
	leaf := &node{Name: "leaf"}
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	if err := enc.WriteValue(leaf); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, codec.NewValueFactoryRegistry(), nil)
	got, err := dec.ReadValue(nil)
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	unk, ok := got.(*codec.UnknownValue)
	if !ok {
		t.Fatalf("expected *UnknownValue, got %T", got)
	}
	if unk.TypeID() != "::test::Node" {
		t.Fatalf("unexpected preserved type id: %s", unk.TypeID())
	}
	if len(unk.Bytes()) == 0 {
		t.Fatal("expected preserved slice bytes")
	}
}

func TestClassGraphV10Roundtrip(t *testing.T) {
	reg := newRegistry()
	a := &node{Name: "a", Next: &node{Name: "b"}}

	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding10)
	enc.WriteValue10(a)
	if err := flushV10(enc); err != nil {
		t.Fatalf("flush: %v", err)
	}

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding10, 0, reg, nil)
	var got *node
	if err := dec.ReadValue10(func(v codec.SliceCodec) {
		if v != nil {
			got = v.(*node)
		}
	}); err != nil {
		t.Fatalf("ReadValue10: %v", err)
	}
	if err := dec.ReadPendingValues10(reg); err != nil {
		t.Fatalf("ReadPendingValues10: %v", err)
	}
	if got == nil || got.Name != "a" || got.Next == nil || got.Next.Name != "b" {
		t.Fatalf("unexpected v1.0 decoded graph: %+v", got)
	}
}

// flushV10 is a small helper so the test doesn't need package-internal
// access to the unexported flush method.
func flushV10(enc *codec.Encoder) error {
	return enc.FlushPendingValues10()
}
