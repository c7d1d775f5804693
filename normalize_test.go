package livetl

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  Book Appointment ":   "Book Appointment",
		"Book\n\t  Appointment": "Book Appointment",
		"Book Appointment":      "Book Appointment",
		"   ":                   "",
		"Case Is Kept":          "Case Is Kept",
		"no\u00a0break":         "no break",
	}

	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := " \n Hello \t  World \n"
	once := Normalize(in)
	if twice := Normalize(once); twice != once {
		t.Errorf("Normalize is not idempotent: %q vs %q", once, twice)
	}
}

func TestPreserveWhitespace(t *testing.T) {
	tests := []struct {
		original, translated, want string
	}{
		{"  Hello  ", "Bonjour", "  Bonjour  "},
		{"\n\tHome\n", " Accueil ", "\n\tAccueil\n"},
		{"Plain", "Simple", "Simple"},
		{"Trailing ", "Fin", "Fin "},
	}

	for _, tt := range tests {
		if got := preserveWhitespace(tt.original, tt.translated); got != tt.want {
			t.Errorf("preserveWhitespace(%q, %q) = %q, want %q", tt.original, tt.translated, got, tt.want)
		}
	}
}
