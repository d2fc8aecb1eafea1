package validator

import (
	"errors"
	"testing"

	"corntrack/internal/core/domain"
)

type sample struct {
	Email     string    `json:"email" validate:"required,email"`
	BagsCount int       `json:"bags_count" validate:"gte=0"`
	Weights   []float64 `json:"bag_weights" validate:"dive,gt=0"`
	Role      string    `json:"role" validate:"omitempty,oneof=FARM_ADMIN FIELD_MANAGER"`
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name    string
		in      sample
		wantErr string
	}{
		{"valid", sample{Email: "a@b.co", BagsCount: 2, Weights: []float64{1, 2}}, ""},
		{"missing email", sample{}, "email is required"},
		{"bad email", sample{Email: "nope"}, "email must be a valid email"},
		{"negative bags", sample{Email: "a@b.co", BagsCount: -1}, "bags_count must be greater than or equal to 0"},
		{"zero weight", sample{Email: "a@b.co", Weights: []float64{1, 0}}, "bag_weights[1] must be greater than 0"},
		{"bad role", sample{Email: "a@b.co", Role: "FARMER"}, "role must be one of [FARM_ADMIN FIELD_MANAGER]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Struct() error = %v, want ValidationError", err)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("Struct() error = %q, want %q", err.Error(), tt.wantErr)
			}
		})
	}
}
