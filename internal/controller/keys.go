package controller

import (
	"github.com/BurntSushi/xgb/xproto"
)

// X keysym values for the keys menu navigation cares about (spec §4.3).
// Digits and lowercase letters share their ASCII code point with the
// corresponding keysym, so no table is needed for those.
const (
	keysymUp        = 0xff52
	keysymDown      = 0xff54
	keysymReturn    = 0xff0d
	keysymKPEnter   = 0xff8d
	keysymBackSpace = 0xff08
	keysymDelete    = 0xffff
	keysymF1        = 0xffbe
	keysymF2        = 0xffbf
	keysymF3        = 0xffc0
	keysymF4        = 0xffc1
	keysymF5        = 0xffc2
)

// OnKeyPress implements x11.Handler. Root-window hotkeys are matched
// first; anything else is only meaningful while the menu has focus
// (spec §4.3).
func (c *Controller) OnKeyPress(ev xproto.KeyPressEvent) {
	if c.hotkeys != nil && c.hotkeys.Dispatch(ev) {
		return
	}

	menuWin, _ := c.render.MenuWindow()
	if ev.Event != menuWin || !c.render.MenuMapped() {
		return
	}

	keysym := c.keysymOf(ev)
	switch {
	case keysym >= '1' && keysym <= '9':
		c.pickOrInvalid(int(keysym - '1'))

	case keysym >= 'a' && keysym <= 'z':
		c.pickOrInvalid(9 + int(keysym-'a'))

	case keysym == keysymUp:
		c.moveCursor(-1)

	case keysym == keysymDown:
		c.moveCursor(1)

	case keysym == keysymReturn || keysym == keysymKPEnter:
		if cur := c.list.Cursor(); cur >= 0 {
			c.pick(cur)
		}

	case keysym == 'z' || keysym == keysymF2:
		c.onCaptureHotkeyOrKey()

	case keysym == keysymBackSpace || keysym == keysymDelete:
		c.removeAtCursor()

	case keysym == 's' || keysym == keysymF3:
		c.removeLast()

	case keysym == 'd' || keysym == keysymF4:
		c.clearList()

	case keysym == 'q' || keysym == keysymF5:
		c.quit()

	default:
		c.pick(-1)
	}
}

// pickOrInvalid handles digit/letter keys: a valid category whose index
// happens to fall outside the current list is treated the same as an
// unrecognized key (spec §9, open question 1: a..z reaching 20..34 is
// never in range since MAX=20).
func (c *Controller) pickOrInvalid(index int) {
	if index < 0 || index >= c.list.Len() {
		c.pick(-1)
		return
	}
	c.pick(index)
}

func (c *Controller) moveCursor(delta int) {
	c.list.MoveCursor(delta)
	if c.flags.Immediate {
		if cur := c.list.Cursor(); cur >= 0 {
			c.pick(cur)
			return
		}
	}
	c.redrawMenu()
}

// Quit is the hotkey entry point for F5 when enabled by -k (spec §4.7),
// equivalent to pressing 'q'/F5 inside an already-open menu.
func (c *Controller) Quit() {
	c.quit()
}

func (c *Controller) onCaptureHotkeyOrKey() {
	c.captureOnce()
}

func (c *Controller) removeAtCursor() {
	c.list.RemoveAt(c.list.Cursor())
	c.afterListMutation()
	c.showChangeFlash()
	if c.list.Len() == 0 && !c.flags.Daemon {
		c.exitnext = true
		c.pick(-1)
		return
	}
	c.redrawMenu()
}

func (c *Controller) removeLast() {
	c.list.RemoveLast()
	c.afterListMutation()
	c.showChangeFlash()
	c.redrawMenu()
}

func (c *Controller) clearList() {
	c.list.Clear()
	c.afterListMutation()
	c.showChangeFlash()
	c.redrawMenu()
}

func (c *Controller) quit() {
	c.list.Clear()
	c.afterListMutation()
	if !c.flags.Daemon {
		c.exitnext = true
	}
	c.pick(-1)
}

// afterListMutation implements SPEC_FULL.md §C's retain-at-one-entry
// nuance: disown PRIMARY only when the list became empty, never merely
// short, so a list that drops from 2 to 1 does not orphan the
// selection.
func (c *Controller) afterListMutation() {
	if c.list.Len() == 0 {
		c.disownPrimary()
	}
}
