//go:build !linux

package hotkey

import (
	"fmt"
	"sync"
	"time"

	xhotkey "golang.design/x/hotkey"
)

// DefaultCombo is the platform default push-to-talk binding.
func DefaultCombo() Combo {
	return Combo{Ctrl: true, Shift: true, Key: "space"}
}

var xKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace,
	"a":     xhotkey.KeyA, "b": xhotkey.KeyB, "c": xhotkey.KeyC,
	"d": xhotkey.KeyD, "e": xhotkey.KeyE, "f": xhotkey.KeyF,
	"g": xhotkey.KeyG, "h": xhotkey.KeyH, "i": xhotkey.KeyI,
	"j": xhotkey.KeyJ, "k": xhotkey.KeyK, "l": xhotkey.KeyL,
	"m": xhotkey.KeyM, "n": xhotkey.KeyN, "o": xhotkey.KeyO,
	"p": xhotkey.KeyP, "q": xhotkey.KeyQ, "r": xhotkey.KeyR,
	"s": xhotkey.KeyS, "t": xhotkey.KeyT, "u": xhotkey.KeyU,
	"v": xhotkey.KeyV, "w": xhotkey.KeyW, "x": xhotkey.KeyX,
	"y": xhotkey.KeyY, "z": xhotkey.KeyZ,
}

// xWatcher backs the watcher with golang.design/x/hotkey. Only ctrl and
// shift modifiers are portable across the non-linux platforms it covers.
type xWatcher struct {
	mu     sync.Mutex
	hk     *xhotkey.Hotkey
	events chan Event
	stop   chan struct{}
}

func New(c Combo) Watcher {
	w := &xWatcher{
		events: make(chan Event, 4),
	}
	w.hk = newXHotkey(c)
	return w
}

func newXHotkey(c Combo) *xhotkey.Hotkey {
	var mods []xhotkey.Modifier
	if c.Ctrl {
		mods = append(mods, xhotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, xhotkey.ModShift)
	}
	key, ok := xKeys[c.Key]
	if !ok {
		key = xhotkey.KeySpace
	}
	return xhotkey.New(mods, key)
}

func (w *xWatcher) Register() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.hk.Register(); err != nil {
		return fmt.Errorf("registering hotkey: %w", err)
	}
	w.stop = make(chan struct{})
	go w.forward(w.hk, w.stop)
	return nil
}

func (w *xWatcher) forward(hk *xhotkey.Hotkey, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-hk.Keydown():
			w.emit(Press)
		case <-hk.Keyup():
			w.emit(Release)
		}
	}
}

func (w *xWatcher) emit(kind Kind) {
	select {
	case w.events <- Event{Kind: kind, At: time.Now()}:
	default:
	}
}

func (w *xWatcher) Rebind(c Combo) error {
	if _, ok := xKeys[c.Key]; !ok {
		return fmt.Errorf("unsupported key %q", c.Key)
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	old := w.hk
	oldStop := w.stop
	replacement := newXHotkey(c)
	if err := replacement.Register(); err != nil {
		return fmt.Errorf("registering hotkey: %w", err)
	}
	if oldStop != nil {
		close(oldStop)
	}
	old.Unregister()

	w.hk = replacement
	w.stop = make(chan struct{})
	go w.forward(replacement, w.stop)
	return nil
}

func (w *xWatcher) Unregister() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stop != nil {
		close(w.stop)
		w.stop = nil
	}
	w.hk.Unregister()
}

func (w *xWatcher) Events() <-chan Event {
	return w.events
}
