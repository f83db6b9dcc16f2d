package algostring

import "testing"

func TestParseRoundTrip(t *testing.T) {
	raw := []byte("hello, keycard")
	a := New(ED25519, raw)

	parsed, err := Parse(a.String())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !parsed.Equal(a) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", parsed, a)
	}

	decoded, err := parsed.RawData()
	if err != nil {
		t.Fatalf("RawData: %v", err)
	}
	if string(decoded) != string(raw) {
		t.Errorf("RawData = %q, want %q", decoded, raw)
	}
}

func TestParseSeededVector(t *testing.T) {
	// From spec scenario S1.
	s := "ED25519:p;XXU0XF#UO^}vKbC-wS(#5W6=OEIFmR2z`rS1j+"
	a, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if a.Prefix != ED25519 {
		t.Errorf("Prefix = %q, want %q", a.Prefix, ED25519)
	}
	if a.String() != s {
		t.Errorf("String() = %q, want %q", a.String(), s)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []string{"", "noColonHere", "ED25519:", ":data"}
	for _, tt := range tests {
		if _, err := Parse(tt); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", tt)
		}
	}
}

func TestIsValid(t *testing.T) {
	if Empty.IsValid() {
		t.Error("Empty.IsValid() = true, want false")
	}
	a := New(CURVE25519, []byte{1, 2, 3})
	if !a.IsValid() {
		t.Error("IsValid() = false for populated AlgoString")
	}
}

func TestKnownAlgorithm(t *testing.T) {
	if !(AlgoString{Prefix: ED25519, Data: "x"}).KnownAlgorithm() {
		t.Error("ED25519 should be a known algorithm")
	}
	if (AlgoString{Prefix: "ROT13", Data: "x"}).KnownAlgorithm() {
		t.Error("ROT13 should not be a known algorithm")
	}
}
