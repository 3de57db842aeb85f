package validation

import "testing"

func TestValidateGender(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid male", "male", false},
		{"valid female lower", "Female", false},
		{"padded", "  male  ", false},
		{"unknown", "nonbinary", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateGender(tt.raw)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.raw, err)
			}
		})
	}
}

func TestValidateRegion(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", "asia", false},
		{"valid mixed case", "North_America", false},
		{"unknown", "moon", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRegion(tt.raw)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.raw, err)
			}
		})
	}
}

func TestValidateLanguage(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", "en", false},
		{"valid upper", "AR", false},
		{"unknown", "fr", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateLanguage(tt.raw)
			if tt.wantErr && err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error for %q: %v", tt.raw, err)
			}
		})
	}
}
