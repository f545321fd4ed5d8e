//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// evdev constants from linux/input-event-codes.h
const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	keyLCtrl  = 29
	keyRCtrl  = 97
	keyLShift = 42
	keyRShift = 54
	keyLAlt   = 56
	keyRAlt   = 100
	keyLMeta  = 125
	keyRMeta  = 126
	keyEsc    = 1
)

const inputEventSize = 24

var keyCodes = map[string]uint16{
	"space": 57,
	"q":     16, "w": 17, "e": 18, "r": 19, "t": 20, "y": 21, "u": 22,
	"i": 23, "o": 24, "p": 25,
	"a": 30, "s": 31, "d": 32, "f": 33, "g": 34, "h": 35, "j": 36,
	"k": 37, "l": 38,
	"z": 44, "x": 45, "c": 46, "v": 47, "b": 48, "n": 49, "m": 50,
}

// DefaultCombo is the platform default push-to-talk binding.
func DefaultCombo() Combo {
	return Combo{Ctrl: true, Shift: true, Key: "space"}
}

// linuxWatcher reads raw evdev key events from every keyboard device. This
// works on both X11 and Wayland but requires membership in the input group.
type linuxWatcher struct {
	combo  atomic.Pointer[Combo]
	events chan Event
	files  []*os.File
	stop   chan struct{}
	once   sync.Once
}

func New(c Combo) Watcher {
	w := &linuxWatcher{
		events: make(chan Event, 4),
	}
	w.combo.Store(&c)
	return w
}

func (w *linuxWatcher) Register() error {
	if _, ok := keyCodes[w.combo.Load().Key]; !ok {
		return fmt.Errorf("no evdev code for key %q", w.combo.Load().Key)
	}

	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	w.stop = make(chan struct{})

	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		w.files = append(w.files, f)
		go w.readEvents(f)
	}

	if len(w.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}

	return nil
}

func (w *linuxWatcher) Rebind(c Combo) error {
	if _, ok := keyCodes[c.Key]; !ok {
		return fmt.Errorf("no evdev code for key %q", c.Key)
	}
	w.combo.Store(&c)
	return nil
}

func (w *linuxWatcher) emit(kind Kind) {
	select {
	case w.events <- Event{Kind: kind, At: time.Now()}:
	default:
	}
}

func (w *linuxWatcher) readEvents(f *os.File) {
	buf := make([]byte, inputEventSize*16)
	var ctrl, shift, alt, super, mainHeld bool

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}

			// evValue 2 is hardware key-repeat; treating it as neither
			// press nor release debounces a held key into one edge pair.
			pressed := evValue == keyPress
			released := evValue == keyRelease

			switch evCode {
			case keyLCtrl, keyRCtrl:
				ctrl = pressed || (!released && ctrl)
				continue
			case keyLShift, keyRShift:
				shift = pressed || (!released && shift)
				continue
			case keyLAlt, keyRAlt:
				alt = pressed || (!released && alt)
				continue
			case keyLMeta, keyRMeta:
				super = pressed || (!released && super)
				continue
			case keyEsc:
				if pressed {
					w.emit(Cancel)
				}
				continue
			}

			combo := w.combo.Load()
			if evCode != keyCodes[combo.Key] {
				continue
			}

			modsMatch := ctrl == combo.Ctrl && shift == combo.Shift &&
				alt == combo.Alt && super == combo.Super

			if pressed && !mainHeld && modsMatch {
				mainHeld = true
				w.emit(Press)
			} else if released && mainHeld {
				// Release fires regardless of modifier state so a Press
				// is always paired even if modifiers were let go first.
				mainHeld = false
				w.emit(Release)
			}
		}
	}
}

func (w *linuxWatcher) Unregister() {
	w.once.Do(func() {
		if w.stop != nil {
			close(w.stop)
		}
		for _, f := range w.files {
			f.Close()
		}
	})
}

func (w *linuxWatcher) Events() <-chan Event {
	return w.events
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}
