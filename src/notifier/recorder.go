package notifier

import (
	"context"
	"sync"
)

// Recorder keeps every message it is sent. Used by tests and dry runs.
type Recorder struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

// FailWith makes subsequent sends record the message and return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.err = err
}

func (r *Recorder) Send(_ context.Context, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msg)
	return r.err
}

func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.messages...)
}
