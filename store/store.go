// Package store persists small key/value preferences.
//
// The engine keeps two scopes: a local scope that survives restarts (the
// chosen language) and a session scope that ends with the session (whether
// the user opted into translation).
package store

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("store: key not found")

// KV is a string key/value store safe for concurrent use.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}
