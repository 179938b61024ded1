package composer

import (
	"bytes"
	"errors"
	"sync"
)

const (
	RecordingName        = "recording.mp3"
	RecordingContentType = "audio/mp3"
)

var ErrRecordingStopped = errors.New("recording already stopped")

// Recording collects audio chunks for a single recording session.
type Recording struct {
	mu      sync.Mutex
	buf       bytes.Buffer
	stopped   bool
	discarded bool
}

func (r *Recording) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return 0, ErrRecordingStopped
	}
	return r.buf.Write(p)
}

func (r *Recording) finish() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return append([]byte{}, r.buf.Bytes()...)
}

func (r *Recording) discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	r.discarded = true
	r.buf.Reset()
}

// Discarded reports whether the draft was thrown away while recording.
func (r *Recording) Discarded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discarded
}

// StartRecording opens a recording session. Only one can be active; starting
// while one is running returns the active session and false.
func (c *Composer) StartRecording() (*Recording, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recording != nil {
		return c.recording, false
	}
	c.recording = &Recording{}
	return c.recording, true
}

func (c *Composer) IsRecording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recording != nil
}

// StopRecording finalizes the active recording into a single recording.mp3
// attachment. It is a no-op when nothing is recording. The attachment goes
// through the same limits as any other file.
func (c *Composer) StopRecording() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recording == nil {
		return nil
	}
	data := c.recording.finish()
	c.recording = nil
	return c.addLocked([]Attachment{{
		Name:        RecordingName,
		ContentType: RecordingContentType,
		Data:        data,
	}})
}
