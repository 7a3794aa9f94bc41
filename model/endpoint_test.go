package model_test

import (
	"testing"

	"github.com/glacio/corerpc/model"
)

func TestParseEndpointBasic(t *testing.T) {
	ep, err := model.ParseEndpoint("tcp -h example.org -p 4061")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	if ep.Transport != "tcp" || ep.Host != "example.org" || ep.Port != 4061 {
		t.Fatalf("unexpected parse result: %+v", ep)
	}
}

func TestParseEndpointIPv6Quoted(t *testing.T) {
	ep, err := model.ParseEndpoint(`tcp -h "::1" -p 4061`)
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	if ep.Host != "::1" {
		t.Fatalf("expected unquoted ::1, got %q", ep.Host)
	}
}

func TestParseEndpointAllOptions(t *testing.T) {
	ep, err := model.ParseEndpoint("ssl -h host -p 10000 --sourceAddress 10.0.0.1 -z -t 5000 -v 1.0")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	if !ep.Compress || ep.TimeoutMs != 5000 || ep.SourceAddress != "10.0.0.1" {
		t.Fatalf("unexpected parse result: %+v", ep)
	}
	if ep.Encoding != model.Encoding10 {
		t.Fatalf("expected encoding 1.0, got %s", ep.Encoding)
	}
}

func TestEndpointStringRoundtrip(t *testing.T) {
	orig, err := model.ParseEndpoint("tcp -h example.org -p 4061 -z")
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	again, err := model.ParseEndpoint(orig.String())
	if err != nil {
		t.Fatalf("ParseEndpoint(String()): %v", err)
	}
	if again != orig {
		t.Fatalf("roundtrip mismatch: %+v vs %+v", orig, again)
	}
}

func TestParseEndpointRejectsUnknownOption(t *testing.T) {
	if _, err := model.ParseEndpoint("tcp -h host -p 1 -q"); err == nil {
		t.Fatal("expected an error for an unrecognized option")
	}
}

func TestParseEndpointRejectsUnterminatedQuote(t *testing.T) {
	if _, err := model.ParseEndpoint(`tcp -h "::1 -p 1`); err == nil {
		t.Fatal("expected an error for an unterminated quote")
	}
}
