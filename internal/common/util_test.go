package common

import "testing"

func TestMakeRandHexString_Length(t *testing.T) {
	t.Parallel()

	s, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if len(s) != 32 {
		t.Fatalf("unexpected length: got %d want 32", len(s))
	}
}

func TestMakeRandHexString_Distinct(t *testing.T) {
	t.Parallel()

	a, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	b, err := MakeRandHexString(16)
	if err != nil {
		t.Fatalf("MakeRandHexString error: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct values, got %q twice", a)
	}
}
