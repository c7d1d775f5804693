package livetl

import (
	"fmt"

	"github.com/ZaguanLabs/livetl/store"
)

// Session holds the persisted language choice and the per-session opt-in.
//
// The language lives in the local store and survives restarts. The opt-in
// flag lives in the session store: content changes are translated
// automatically only after the user picked a language in this session.
type Session struct {
	local      store.KV
	session    store.KV
	sourceLang string
}

func newSession(local, session store.KV, sourceLang string) *Session {
	if local == nil {
		local = store.NewMemoryStore()
	}
	if session == nil {
		session = store.NewMemoryStore()
	}
	return &Session{local: local, session: session, sourceLang: sourceLang}
}

// Language returns the last chosen language, or the source language.
func (s *Session) Language() string {
	lang, err := s.local.Get(LangKey)
	if err != nil || lang == "" {
		return s.sourceLang
	}
	return lang
}

// Choose records lang as chosen and opts the session in.
func (s *Session) Choose(lang string) error {
	if err := s.local.Set(LangKey, lang); err != nil {
		return fmt.Errorf("saving language: %w", err)
	}
	if err := s.session.Set(SessionKey, "1"); err != nil {
		return fmt.Errorf("activating session: %w", err)
	}
	return nil
}

// Active reports whether the user opted in during this session.
func (s *Session) Active() bool {
	v, err := s.session.Get(SessionKey)
	return err == nil && v == "1"
}
