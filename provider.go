package livetl

import "context"

// TranslateRequest is one batch sent to a translation service.
type TranslateRequest struct {
	Texts         []string // Source strings, in order
	TargetLang    string   // Target language code
	SourceLang    string   // Source language code
	Context       string   // Optional description of the page, for prompt-based services
	ExcludedTerms []string // Terms to keep verbatim
}

// Provider translates a batch of strings. The reply must have the same
// length and order as req.Texts.
//
// Implementations return *ProviderError for failed calls (with StatusCode set
// when the service answered), *MalformedResponseError for unreadable replies
// and *CountMismatchError for replies of the wrong length.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, req TranslateRequest) ([]string, error)

// Translate calls f.
func (f ProviderFunc) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	return f(ctx, req)
}
