package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
		valid bool
	}{
		{"international plus", "+966501234567", "0501234567", true},
		{"international zeros", "00966501234567", "0501234567", true},
		{"bare country code", "966501234567", "0501234567", true},
		{"local", "0501234567", "0501234567", true},
		{"no prefix", "501234567", "0501234567", true},
		{"spaces and dashes", "+966 50-123-4567", "0501234567", true},
		{"arabic digits", "٠٥٠١٢٣٤٥٦٧", "0501234567", true},
		{"too short", "05123", "", false},
		{"not mobile", "0112345678", "", false},
		{"garbage", "123", "", false},
		{"empty", "", "", false},
		{"text", "ابغى احجز", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.in)
			if ok != tt.valid || got != tt.want {
				t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.valid)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid("0512345678") {
		t.Error("Valid(0512345678) = false")
	}
	if Valid("9876") {
		t.Error("Valid(9876) = true")
	}
}
