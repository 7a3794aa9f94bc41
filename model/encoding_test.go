package model_test

import (
	"testing"

	"github.com/glacio/corerpc/model"
)

func TestEncodingVersionSupported(t *testing.T) {
	if !model.Encoding10.Supported() {
		t.Fatal("1.0 should be supported")
	}
	if !model.Encoding11.Supported() {
		t.Fatal("1.1 should be supported")
	}
	if (model.EncodingVersion{Major: 2, Minor: 0}).Supported() {
		t.Fatal("2.0 should not be supported")
	}
}

func TestEncodingVersionString(t *testing.T) {
	if model.Encoding11.String() != "1.1" {
		t.Fatalf("expected 1.1, got %s", model.Encoding11.String())
	}
}

func TestEncodingVersionEq(t *testing.T) {
	if !model.Encoding10.Eq(model.EncodingVersion{Major: 1, Minor: 0}) {
		t.Fatal("expected equal encoding versions to compare equal")
	}
	if model.Encoding10.Eq(model.Encoding11) {
		t.Fatal("expected 1.0 != 1.1")
	}
}
