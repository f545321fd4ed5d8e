// Package inject delivers final text into whatever application has input
// focus, using a clipboard swap: save the current clipboard, place the text,
// send a synthetic paste keystroke, then restore the previous contents.
package inject

import (
	"fmt"
	"time"

	"murmur/clipboard"
)

// Injector delivers text to the focused application.
type Injector interface {
	Deliver(text string) error
}

// PasteError reports that the text reached the clipboard but the synthetic
// paste keystroke failed. The transcript is not lost: it stays on the
// clipboard and the previous contents are not restored.
type PasteError struct {
	Err error
}

func (e *PasteError) Error() string {
	return fmt.Sprintf("paste keystroke failed (text left on clipboard): %v", e.Err)
}

func (e *PasteError) Unwrap() error { return e.Err }

const (
	// settleDelay lets the clipboard update propagate before the paste
	// keystroke reads it.
	settleDelay = 50 * time.Millisecond
	// restoreDelay gives the focused app time to read the clipboard
	// before the previous contents come back.
	restoreDelay = 600 * time.Millisecond
)

type ClipboardInjector struct{}

func NewClipboard() *ClipboardInjector {
	return &ClipboardInjector{}
}

func (ci *ClipboardInjector) Deliver(text string) error {
	prev, _ := clipboard.Read()

	if err := clipboard.Copy(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	time.Sleep(settleDelay)

	if err := sendPaste(); err != nil {
		return &PasteError{Err: err}
	}

	if prev != "" && prev != text {
		go func() {
			time.Sleep(restoreDelay)
			clipboard.Copy(prev)
		}()
	}
	return nil
}
