package arabic

import "testing"

func TestNormalizeFoldsAlefVariants(t *testing.T) {
	want := Normalize("احمد")
	for _, in := range []string{"أحمد", "احمد", "إحمد", "آحمد"} {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"  أهلاً وسهلاً  ",
		"مُحَمَّد",
		"عيادة بلو ديم ٢٠٢٤",
		"دكتـــــور",
		"مؤيد على ئيس",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace trimmed", "  هلا  ", "هلا"},
		{"diacritics removed", "مُحَمَّد", "محمد"},
		{"tatweel removed", "دكتـــــور", "دكتور"},
		{"trailing yeh folded", "مستشفى", "مستشفي"},
		{"waw hamza folded", "مؤشر", "موشر"},
		{"yeh hamza folded", "طوارئ", "طواري"},
		{"arabic digits", "٠٥٠١٢٣٤٥٦٧", "0501234567"},
		{"latin lowered", "Doctor Visit", "doctor visit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanKey(t *testing.T) {
	if got := CleanKey("هلا، والله!"); got != "هلاوالله" {
		t.Errorf("CleanKey = %q", got)
	}
	if got := CleanKey("  abc 123 "); got != "abc123" {
		t.Errorf("CleanKey = %q", got)
	}
}
