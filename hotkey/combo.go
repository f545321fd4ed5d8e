package hotkey

import (
	"fmt"
	"sort"
	"strings"
)

// Combo is a modifier set plus one main key, e.g. ctrl+shift+space.
type Combo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
	Key   string // "space" or a single letter a-z
}

// ParseCombo parses strings like "ctrl+shift+space" or "alt+r".
func ParseCombo(s string) (Combo, error) {
	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch p {
		case "ctrl", "control":
			c.Ctrl = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		case "super", "cmd", "meta", "win":
			c.Super = true
		case "":
			return Combo{}, fmt.Errorf("empty component in hotkey %q", s)
		default:
			if c.Key != "" {
				return Combo{}, fmt.Errorf("hotkey %q has more than one main key", s)
			}
			if !validKey(p) {
				return Combo{}, fmt.Errorf("unsupported key %q in hotkey %q", p, s)
			}
			c.Key = p
		}
	}
	if c.Key == "" {
		return Combo{}, fmt.Errorf("hotkey %q has no main key", s)
	}
	if !c.Ctrl && !c.Shift && !c.Alt && !c.Super {
		return Combo{}, fmt.Errorf("hotkey %q needs at least one modifier", s)
	}
	return c, nil
}

func validKey(k string) bool {
	if k == "space" {
		return true
	}
	return len(k) == 1 && k[0] >= 'a' && k[0] <= 'z'
}

func (c Combo) String() string {
	var mods []string
	if c.Ctrl {
		mods = append(mods, "ctrl")
	}
	if c.Shift {
		mods = append(mods, "shift")
	}
	if c.Alt {
		mods = append(mods, "alt")
	}
	if c.Super {
		mods = append(mods, "super")
	}
	sort.Strings(mods)
	return strings.Join(append(mods, c.Key), "+")
}
