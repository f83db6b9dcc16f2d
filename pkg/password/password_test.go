package password

import (
	"testing"

	"github.com/darkwyrm/libkeycard/pkg/kcerror"
)

// TestStrengthClassification encodes spec scenario S6.
func TestStrengthClassification(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		strength Strength
	}{
		{name: "too short and weak", input: "abc", wantErr: true, strength: VeryWeak},
		{name: "short but complex enough", input: "Password1", wantErr: false, strength: Medium},
		{name: "long passphrase", input: "correct horse battery staple 9", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Set(tt.input)
			if tt.wantErr {
				if !kcerror.Is(err, kcerror.BadParameterValue) {
					t.Fatalf("Set(%q) err = %v, want BadParameterValue", tt.input, err)
				}
			} else if err != nil {
				t.Fatalf("Set(%q) unexpected error: %v", tt.input, err)
			}
			if tt.strength != "" && p.Strength != tt.strength {
				t.Errorf("Set(%q) strength = %q, want %q", tt.input, p.Strength, tt.strength)
			}
		})
	}
}

func TestSetCheckRoundTrip(t *testing.T) {
	p, err := Set("correct horse battery staple 9")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Check("correct horse battery staple 9"); err != nil {
		t.Errorf("Check with correct password failed: %v", err)
	}
	if err := p.Check("wrong password entirely"); err == nil {
		t.Error("Check with wrong password succeeded")
	}
}

func TestAssignTrustsDirectly(t *testing.T) {
	original, err := Set("correct horse battery staple 9")
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	assigned := Assign(original.HashString)
	if err := assigned.Check("correct horse battery staple 9"); err != nil {
		t.Errorf("Check on assigned password failed: %v", err)
	}
}

func TestCheckMalformedHash(t *testing.T) {
	p := Assign("not a phc string")
	if err := p.Check("anything"); !kcerror.Is(err, kcerror.BadData) {
		t.Fatalf("Check err = %v, want BadData", err)
	}
}
