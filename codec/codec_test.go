package codec_test

import (
	"testing"

	"github.com/glacio/corerpc/codec"
	"github.com/glacio/corerpc/ierr"
	"github.com/glacio/corerpc/model"
	"github.com/glacio/corerpc/wire"
)

func TestPrimitivesRoundtrip(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	enc.WriteBool(true)
	enc.WriteByte(0x7f)
	enc.WriteInt16(-1234)
	enc.WriteInt32(-123456789)
	enc.WriteInt64(-123456789012345)
	enc.WriteFloat32(3.5)
	enc.WriteFloat64(2.71828)
	enc.WriteString("hello, world")

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	if b, err := dec.ReadBool(); err != nil || !b {
		t.Fatalf("ReadBool: %v %v", b, err)
	}
	if b, err := dec.ReadByte(); err != nil || b != 0x7f {
		t.Fatalf("ReadByte: %v %v", b, err)
	}
	if v, err := dec.ReadInt16(); err != nil || v != -1234 {
		t.Fatalf("ReadInt16: %v %v", v, err)
	}
	if v, err := dec.ReadInt32(); err != nil || v != -123456789 {
		t.Fatalf("ReadInt32: %v %v", v, err)
	}
	if v, err := dec.ReadInt64(); err != nil || v != -123456789012345 {
		t.Fatalf("ReadInt64: %v %v", v, err)
	}
	if v, err := dec.ReadFloat32(); err != nil || v != 3.5 {
		t.Fatalf("ReadFloat32: %v %v", v, err)
	}
	if v, err := dec.ReadFloat64(); err != nil || v != 2.71828 {
		t.Fatalf("ReadFloat64: %v %v", v, err)
	}
	if s, err := dec.ReadString(); err != nil || s != "hello, world" {
		t.Fatalf("ReadString: %q %v", s, err)
	}
}

func TestSizeSentinelForm(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	enc.WriteSize(300)
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	n, err := dec.ReadSize()
	if err != nil || n != 300 {
		t.Fatalf("ReadSize: %d %v", n, err)
	}
}

func TestSequenceRejectsOversizedClaim(t *testing.T) {
	buf := wire.NewBuffer(nil)
	buf.WriteSize(1000) // claims 1000 elements, but nothing follows
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	if _, err := dec.ReadSequenceSize(8); !ierr.Is(err, ierr.UnmarshalOutOfBounds) {
		t.Fatalf("expected UnmarshalOutOfBounds, got %v", err)
	}
}

func TestContextRoundtrip(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	ctx := map[string]string{"a": "1", "b": "2"}
	enc.WriteContext(ctx)
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	got, err := dec.ReadContext()
	if err != nil {
		t.Fatalf("ReadContext: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["b"] != "2" {
		t.Fatalf("unexpected context: %+v", got)
	}
}

func TestTaggedMemberPresentAndAbsent(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	enc.WriteTag(3, codec.F4)
	enc.WriteInt32(99)
	enc.WriteOptionalTerminator()
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)

	tag, format, ok, err := dec.PeekTag()
	if err != nil || !ok || tag != 3 || format != codec.F4 {
		t.Fatalf("PeekTag: tag=%d format=%v ok=%v err=%v", tag, format, ok, err)
	}
	if _, err := dec.ReadByte(); err != nil { // consume the descriptor byte
		t.Fatal(err)
	}
	if v, err := dec.ReadInt32(); err != nil || v != 99 {
		t.Fatalf("ReadInt32: %v %v", v, err)
	}
	if err := dec.SkipOptionalTerminator(); err != nil {
		t.Fatalf("SkipOptionalTerminator: %v", err)
	}
	if _, _, ok, _ := dec.PeekTag(); ok {
		t.Fatal("expected no more tags after terminator")
	}
}

func TestTaggedMemberEscapedTag(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	enc.WriteTag(40, codec.F1)
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	tag, format, ok, err := dec.PeekTag()
	if err != nil || !ok || tag != 40 || format != codec.F1 {
		t.Fatalf("PeekTag escaped: tag=%d format=%v ok=%v err=%v", tag, format, ok, err)
	}
}

func TestEncapsulationRoundtrip(t *testing.T) {
	buf := wire.NewBuffer(nil)
	enc := codec.NewEncoder(buf, model.Encoding11)
	enc.StartEncapsulation()
	enc.WriteString("payload")
	enc.EndEncapsulation()

	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	v, err := dec.StartEncapsulation()
	if err != nil {
		t.Fatalf("StartEncapsulation: %v", err)
	}
	if v != model.Encoding11 {
		t.Fatalf("expected encoding 1.1, got %s", v)
	}
	s, err := dec.ReadString()
	if err != nil || s != "payload" {
		t.Fatalf("ReadString: %q %v", s, err)
	}
	if err := dec.EndEncapsulation(); err != nil {
		t.Fatalf("EndEncapsulation: %v", err)
	}
}

func TestEncapsulationRejectsUndersizedHeader(t *testing.T) {
	buf := wire.NewBuffer(nil)
	buf.Append([]byte{3, 0, 0, 0, 1, 1})
	buf.Seek(0)
	dec := codec.NewDecoder(buf, model.Encoding11, 0, nil, nil)
	if _, err := dec.StartEncapsulation(); !ierr.Is(err, ierr.Encapsulation) {
		t.Fatalf("expected Encapsulation error, got %v", err)
	}
}
