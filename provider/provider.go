// Package provider implements translation services for livetl.
package provider

import "github.com/ZaguanLabs/livetl"

// Provider is an alias to the main package interface for convenience.
type Provider = livetl.Provider

// TranslateRequest is an alias to the main package type.
type TranslateRequest = livetl.TranslateRequest
