package livetl

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ZaguanLabs/livetl/dom"
)

// changeWatcher observes the document body and asks for a Run when content
// appears or changes, unless the engine caused the change itself.
type changeWatcher struct {
	doc     *dom.Document
	sup     *suppressor
	session *Session
	notify  func()
	logger  *zap.Logger

	mu         sync.Mutex
	disconnect func()
}

// start begins observing. Calling it again is a no-op.
func (w *changeWatcher) start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disconnect != nil {
		return
	}

	body := w.doc.Body()
	if body == nil {
		w.logger.Warn("document has no body, change watcher not started")
		return
	}
	w.disconnect = w.doc.Observe(body, dom.ObserveOptions{
		ChildList:     true,
		CharacterData: true,
		Subtree:       true,
	}, w.onMutation)
}

func (w *changeWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.disconnect != nil {
		w.disconnect()
		w.disconnect = nil
	}
}

func (w *changeWatcher) onMutation(records []dom.Mutation) {
	if w.sup.Suppressed() || !w.session.Active() {
		return
	}
	w.logger.Debug("content changed", zap.Int("records", len(records)))
	w.notify()
}
