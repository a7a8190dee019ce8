package foundation

import "testing"

func TestOption(t *testing.T) {
	some := Some("main")
	if !some.IsSome() {
		t.Fatal("expected a value")
	}
	if v, ok := some.Get(); !ok || v != "main" {
		t.Fatalf("Get() = %q, %v", v, ok)
	}

	var empty Option[int]
	if empty.IsSome() {
		t.Fatal("zero Option must be empty")
	}
	if _, ok := empty.Get(); ok {
		t.Fatal("Get on empty Option reported a value")
	}
	if got := empty.UnwrapOr(7); got != 7 {
		t.Fatalf("UnwrapOr = %d, want 7", got)
	}
}
