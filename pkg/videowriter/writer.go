package videowriter

import (
	"sync"

	"github.com/user/mem2vid/pkg/ports"
)

// Writer holds at most one active Session. Share one Writer to allow only
// one video at a time across a process.
type Writer struct {
	backend ports.MediaBackend
	log     ports.Logger

	mu      sync.Mutex
	session *Session
}

// NewWriter creates a Writer that opens sessions on backend.
func NewWriter(backend ports.MediaBackend, log ports.Logger) *Writer {
	return &Writer{
		backend: backend,
		log:     log.WithComponent("videowriter"),
	}
}

// Start opens <name>.mp4. It fails without side effects while a session is
// active.
func (w *Writer) Start(name string, p Params) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session != nil {
		w.log.Error("Video already started")
		return ErrAlreadyStarted
	}

	s, err := StartSession(w.backend, w.log, name, p)
	if err != nil {
		return err
	}
	w.session = s
	return nil
}

// SubmitFrame encodes one packed RGB24 frame into the active session.
func (w *Writer) SubmitFrame(rgb []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		w.log.Error("Video is not started")
		return ErrNotStarted
	}
	return w.session.Submit(rgb)
}

// Finish finalizes the active session. The writer is inactive afterwards
// whatever the result; the returned error is the file close failure, if any.
func (w *Writer) Finish() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		w.log.Error("Video is not started")
		return ErrNotStarted
	}

	err := w.session.Finish()
	w.session = nil
	return err
}

// Active reports whether a session is open.
func (w *Writer) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session != nil
}

// Stats returns the active session counters. ok is false when inactive.
func (w *Writer) Stats() (stats Stats, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return Stats{}, false
	}
	return w.session.Stats(), true
}
