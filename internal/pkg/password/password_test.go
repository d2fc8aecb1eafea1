package password

import "testing"

func TestHashAndVerify(t *testing.T) {
	UseMinCost()

	hash, err := Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"matching", "correct horse", true},
		{"wrong", "battery staple", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Verify(tt.password, hash); got != tt.want {
				t.Errorf("Verify(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("abc")
	if a != HashToken("abc") {
		t.Error("HashToken is not deterministic")
	}
	if a == HashToken("abd") {
		t.Error("HashToken collided on different input")
	}
	if len(a) != 64 {
		t.Errorf("len(HashToken) = %d, want 64", len(a))
	}
}

func TestNewTokenUnique(t *testing.T) {
	if NewToken() == NewToken() {
		t.Error("NewToken returned the same value twice")
	}
}
