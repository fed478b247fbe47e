package controller

import (
	"time"
)

// showFlash briefly shows the non-interactive confirmation window (spec
// §4.3). The content itself is painted by OnExpose once the window is
// actually mapped, not here: CreateOverlay's windows carry no backing
// store, so anything drawn before the window is mapped is never
// retained by the X server and the map would show a blank rectangle.
// The sleep is synchronous by design: the flash window is a modal
// confirmation, not an interactive element, and the whole program is a
// single cooperative event loop (spec §5).
func (c *Controller) showFlash(message string, hide time.Duration) {
	c.flashMessage = message

	x, y := c.menuX, c.menuY
	if x == 0 && y == 0 {
		if px, py, err := c.conn.QueryPointer(); err == nil {
			x, y = px, py
		}
	}
	if err := c.render.MapFlash(x, y); err != nil {
		c.logger.Warn("mapping flash window failed", "error", err)
		return
	}

	time.Sleep(hide)

	if err := c.render.UnmapFlash(); err != nil {
		c.logger.Warn("unmapping flash window failed", "error", err)
	}
}

// ShowStartupFlash is called once by bootstrap right after the initial
// list is populated (spec §4.3, "shown on startup").
func (c *Controller) ShowStartupFlash() {
	c.showFlash(c.startupMessage(), c.flash.Startup)
}

func (c *Controller) startupMessage() string {
	n := c.list.Len()
	if n == 1 {
		return "multiselect: 1 entry"
	}
	return "multiselect: entries ready"
}

// showChangeFlash is shown whenever the list changes (spec §4.3).
func (c *Controller) showChangeFlash() {
	c.showFlash("multiselect: list updated", c.flash.Change)
}

// showErrorFlash is shown when an add attempt finds no PRIMARY owner
// (spec §4.3, §7 NoOwnerToCapture).
func (c *Controller) showErrorFlash(message string) {
	c.showFlash(message, c.flash.Message)
}
