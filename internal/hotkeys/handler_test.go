package hotkeys

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

func TestParseKeySequence(t *testing.T) {
	cases := []struct {
		seq       string
		wantMods  uint16
		wantKey   string
		wantError bool
	}{
		{"control-shift-z", xproto.ModMaskControl | xproto.ModMaskShift, "z", false},
		{"F1", 0, "F1", false},
		{"alt-F2", xproto.ModMask1, "F2", false},
		{"bogus-F2", 0, "", true},
		{"", 0, "", true},
	}
	for _, c := range cases {
		mods, keysym, err := parseKeySequence(c.seq)
		if c.wantError {
			if err == nil {
				t.Errorf("parseKeySequence(%q): expected error", c.seq)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseKeySequence(%q): %v", c.seq, err)
		}
		if mods != c.wantMods || keysym != c.wantKey {
			t.Errorf("parseKeySequence(%q) = (%v, %q), want (%v, %q)", c.seq, mods, keysym, c.wantMods, c.wantKey)
		}
	}
}

func TestIgnoreCombinationsCoversEverySubset(t *testing.T) {
	combos := ignoreCombinations([]uint16{1, 2, 4})
	if len(combos) != 8 {
		t.Fatalf("got %d combinations, want 8", len(combos))
	}
	seen := map[uint16]bool{}
	for _, c := range combos {
		seen[c] = true
	}
	for _, want := range []uint16{0, 1, 2, 3, 4, 5, 6, 7} {
		if !seen[want] {
			t.Errorf("missing combination %d", want)
		}
	}
}
