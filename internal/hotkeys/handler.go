// Package hotkeys grabs the global key combinations that let the user
// open the menu without a real paste request in flight: Ctrl+Shift+Z
// always in daemon mode, plus F1/F2/F5 when their -k enable was given
// (spec §4.7). Grabs are dispatched through the caller's own event loop
// rather than xgbutil's callback registry (Dispatch), so a hotkey press
// on the root window is seen in the same strict arrival order as every
// other X event the ICCCM state machine reasons about (spec §5).
package hotkeys

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
)

var ignoreModsOnce sync.Once

// grab records one GrabKey registration to match against inbound
// KeyPress events (spec §5: matching, not xevent's callback dispatch).
type grab struct {
	keycode  xproto.Keycode
	mods     uint16
	callback func()
}

// Handler grabs global key sequences on the root window and matches
// KeyPress events against them.
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	logger *slog.Logger

	lockMods []uint16 // Num_Lock/Scroll_Lock/CapsLock masks, ignored when matching
	grabs    []grab
}

// New creates a hotkey handler bound to the root window of xu.
func New(xu *xgbutil.XUtil, root xproto.Window, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ignoreModsOnce.Do(func() {
		keybind.Initialize(xu)
	})
	h := &Handler{xu: xu, root: root, logger: logger}
	h.lockMods = lockModMasks(xu)
	return h
}

// Grab binds keySequence ("control-shift-z", "F1", ...) to callback,
// invoked from Dispatch whenever a matching KeyPress arrives on the
// root window. Grabs every combination of the ignorable lock modifiers
// so the hotkey fires regardless of Caps/Num/Scroll Lock state (spec
// §4.7). Returns an error (logged by the caller, per spec §7
// GrabFailed) only if no combination at all could be grabbed.
func (h *Handler) Grab(keySequence string, callback func()) error {
	mods, keysym, err := parseKeySequence(keySequence)
	if err != nil {
		return fmt.Errorf("parsing hotkey %q: %w", keySequence, err)
	}

	keycodes := keybind.StrToKeycodes(h.xu, keysym)
	if len(keycodes) == 0 {
		return fmt.Errorf("no keycode maps to keysym %q", keysym)
	}
	keycode := keycodes[0]

	grabbed := 0
	for _, ignoreMask := range ignoreCombinations(h.lockMods) {
		err := xproto.GrabKeyChecked(
			h.xu.Conn(), true, h.root, mods|ignoreMask, keycode,
			xproto.GrabModeAsync, xproto.GrabModeAsync,
		).Check()
		if err != nil {
			h.logger.Debug("grabbing hotkey combination failed", "sequence", keySequence, "ignoreMask", ignoreMask, "error", err)
			continue
		}
		grabbed++
	}
	if grabbed == 0 {
		return fmt.Errorf("grabbing hotkey %q: no modifier combination succeeded", keySequence)
	}

	h.grabs = append(h.grabs, grab{keycode: keycode, mods: mods, callback: callback})
	return nil
}

// Dispatch matches ev against every registered grab and invokes the
// first match's callback. Returns whether ev was a hotkey press so the
// caller can skip further processing of it.
func (h *Handler) Dispatch(ev xproto.KeyPressEvent) bool {
	if ev.Event != h.root {
		return false
	}
	state := ev.State
	for _, lm := range h.lockMods {
		state &^= lm
	}
	for _, g := range h.grabs {
		if g.keycode == ev.Detail && g.mods == state {
			g.callback()
			return true
		}
	}
	return false
}

// lockModMasks returns the modifier masks bound to CapsLock, Num_Lock
// and Scroll_Lock, so hotkey matching can ignore them.
func lockModMasks(xu *xgbutil.XUtil) []uint16 {
	caps := uint16(xproto.ModMaskLock)
	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	masks := []uint16{caps}
	if numLock != 0 && numLock != caps {
		masks = append(masks, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		masks = append(masks, scrollLock)
	}
	return masks
}

// ignoreCombinations enumerates every subset of lockMods, including the
// empty subset, as the additional modifier bits a grab must also cover.
func ignoreCombinations(lockMods []uint16) []uint16 {
	combos := make([]uint16, 1<<len(lockMods))
	for subset := range combos {
		var mask uint16
		for bit, m := range lockMods {
			if subset&(1<<bit) != 0 {
				mask |= m
			}
		}
		combos[subset] = mask
	}
	return combos
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}

// parseKeySequence splits a dash-separated key sequence into its
// modifier mask and trailing keysym name ("control-shift-z" ->
// ControlMask|ShiftMask, "z"; "F1" -> 0, "F1").
func parseKeySequence(seq string) (mods uint16, keysym string, err error) {
	parts := strings.Split(seq, "-")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return 0, "", fmt.Errorf("empty key sequence")
	}
	keysym = parts[len(parts)-1]
	for _, name := range parts[:len(parts)-1] {
		mask, ok := modifierMask(name)
		if !ok {
			return 0, "", fmt.Errorf("unknown modifier %q", name)
		}
		mods |= mask
	}
	return mods, keysym, nil
}

func modifierMask(name string) (uint16, bool) {
	switch strings.ToLower(name) {
	case "shift":
		return xproto.ModMaskShift, true
	case "lock":
		return xproto.ModMaskLock, true
	case "control", "ctrl":
		return xproto.ModMaskControl, true
	case "mod1", "alt":
		return xproto.ModMask1, true
	case "mod2":
		return xproto.ModMask2, true
	case "mod3":
		return xproto.ModMask3, true
	case "mod4", "super":
		return xproto.ModMask4, true
	case "mod5":
		return xproto.ModMask5, true
	default:
		return 0, false
	}
}
