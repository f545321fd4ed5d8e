package hotkey

import "testing"

func TestParseCombo(t *testing.T) {
	for _, tt := range []struct {
		input string
		want  Combo
	}{
		{"ctrl+shift+space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"Ctrl+Shift+Space", Combo{Ctrl: true, Shift: true, Key: "space"}},
		{"alt+r", Combo{Alt: true, Key: "r"}},
		{"super+shift+v", Combo{Super: true, Shift: true, Key: "v"}},
		{"cmd+space", Combo{Super: true, Key: "space"}},
		{" ctrl + shift + space ", Combo{Ctrl: true, Shift: true, Key: "space"}},
	} {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCombo(tt.input)
			if err != nil {
				t.Fatalf("ParseCombo(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseComboErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"ctrl+shift",      // no main key
		"space",           // no modifier
		"ctrl+space+a",    // two main keys
		"ctrl+f13",        // unsupported key
		"ctrl++space",     // empty component
	} {
		t.Run(input, func(t *testing.T) {
			if _, err := ParseCombo(input); err == nil {
				t.Errorf("ParseCombo(%q) succeeded, want error", input)
			}
		})
	}
}

func TestComboString(t *testing.T) {
	c := Combo{Ctrl: true, Shift: true, Key: "space"}
	if got := c.String(); got != "ctrl+shift+space" {
		t.Errorf("String() = %q", got)
	}
}

func TestComboRoundTrip(t *testing.T) {
	for _, s := range []string{"ctrl+shift+space", "alt+shift+r", "ctrl+super+v"} {
		c, err := ParseCombo(s)
		if err != nil {
			t.Fatalf("ParseCombo(%q): %v", s, err)
		}
		back, err := ParseCombo(c.String())
		if err != nil {
			t.Fatalf("re-parse %q: %v", c.String(), err)
		}
		if back != c {
			t.Errorf("round trip changed combo: %+v vs %+v", c, back)
		}
	}
}
