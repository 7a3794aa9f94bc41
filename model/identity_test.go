package model_test

import (
	"testing"

	"github.com/glacio/corerpc/model"
)

func TestIdentityStringRoundtrip(t *testing.T) {
	cases := []model.Identity{
		{Name: "foo"},
		{Name: "foo", Category: "bar"},
		{Name: "foo/bar", Category: "baz qux"},
		{Name: "with\\backslash"},
	}
	for _, id := range cases {
		s := id.String()
		got, err := model.ParseIdentity(s)
		if err != nil {
			t.Fatalf("ParseIdentity(%q): %v", s, err)
		}
		if got != id {
			t.Fatalf("roundtrip mismatch: %+v -> %q -> %+v", id, s, got)
		}
	}
}

func TestIdentityIsEmpty(t *testing.T) {
	if !(model.Identity{}).IsEmpty() {
		t.Fatal("zero-value identity should be empty")
	}
	if (model.Identity{Name: "x"}).IsEmpty() {
		t.Fatal("identity with a name should not be empty")
	}
}

func TestParseIdentityRejectsTooManyParts(t *testing.T) {
	if _, err := model.ParseIdentity("a/b/c"); err == nil {
		t.Fatal("expected an error for an identity with more than one unescaped slash")
	}
}
