package livetl

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Language is an entry of the language menu.
type Language struct {
	Code  string // Code sent to the translation service
	Label string // Name shown to users and used in prompts
}

// Languages is the menu offered to users, in display order.
var Languages = []Language{
	{Code: "id", Label: "Indonesian"},
	{Code: "ms", Label: "Malay"},
	{Code: "tl", Label: "Filipino"},
	{Code: "th", Label: "Thai"},
	{Code: "vi", Label: "Vietnamese"},
	{Code: "my", Label: "Burmese"},
	{Code: "km", Label: "Khmer"},
	{Code: "lo", Label: "Lao"},
	{Code: "tet", Label: "Tetum"},
	{Code: "zh", Label: "Chinese"},
	{Code: "ta", Label: "Tamil"},
	{Code: "en", Label: "English"},
}

// LanguageNames maps codes outside the menu to human-readable names for
// prompts.
var LanguageNames = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"he": "Hebrew",
	"hi": "Hindi",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pt": "Portuguese",
	"ru": "Russian",
	"tr": "Turkish",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	base := BaseLang(langCode)
	for _, l := range Languages {
		if l.Code == langCode || l.Code == base {
			return l.Label
		}
	}
	if name, ok := LanguageNames[base]; ok {
		return name
	}
	return langCode
}

// KnownLanguageCodes returns every code with a known name, sorted.
func KnownLanguageCodes() []string {
	codes := make([]string, 0, len(Languages)+len(LanguageNames))
	for _, l := range Languages {
		codes = append(codes, l.Code)
	}
	for code := range LanguageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[BaseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// BaseLang extracts the lower-case base language ("pt" from "pt_BR" or "pt-BR").
func BaseLang(langCode string) string {
	code := strings.ReplaceAll(langCode, "_", "-")
	return strings.ToLower(strings.Split(code, "-")[0])
}

// ToHTMLLang converts a locale code to a BCP 47 tag for the lang attribute
// ("pt_br" → "pt-BR"). Codes that do not parse are only re-separated.
func ToHTMLLang(langCode string) string {
	code := strings.ReplaceAll(langCode, "_", "-")
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}

// SameLanguage reports whether two codes share a base language.
func SameLanguage(a, b string) bool {
	return a != "" && b != "" && BaseLang(a) == BaseLang(b)
}
