package livetl

import "testing"

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"th", "Thai"},
		{"tet", "Tetum"},
		{"ms_MY", "Malay"}, // base language lookup
		{"fr", "French"},
		{"unknown", "unknown"}, // fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar_SA", "rtl"},
		{"he-IL", "rtl"},
		{"ur", "rtl"},
		{"th", "ltr"},
		{"zh_CN", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestIsRTL(t *testing.T) {
	if !IsRTL("ar") {
		t.Error("IsRTL(ar) should be true")
	}
	if IsRTL("vi") {
		t.Error("IsRTL(vi) should be false")
	}
}

func TestBaseLang(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"pt_BR", "pt"},
		{"EN-us", "en"},
		{"tet", "tet"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := BaseLang(tt.input); got != tt.expected {
				t.Errorf("BaseLang(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSameLanguage(t *testing.T) {
	if !SameLanguage("en", "en_US") {
		t.Error("en and en_US should match")
	}
	if SameLanguage("en", "") {
		t.Error("empty code should never match")
	}
	if SameLanguage("zh", "ms") {
		t.Error("zh and ms should not match")
	}
}

func TestToHTMLLang(t *testing.T) {
	tests := map[string]string{
		"zh_CN": "zh-CN",
		"pt_br": "pt-BR",
		"fr":    "fr",
		"tet":   "tet",
	}
	for in, want := range tests {
		if got := ToHTMLLang(in); got != want {
			t.Errorf("ToHTMLLang(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestKnownLanguageCodes(t *testing.T) {
	codes := KnownLanguageCodes()
	if len(codes) != len(Languages)+len(LanguageNames) {
		t.Fatalf("expected %d codes, got %d", len(Languages)+len(LanguageNames), len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] > codes[i] {
			t.Fatalf("codes not sorted: %v", codes)
		}
	}
}
