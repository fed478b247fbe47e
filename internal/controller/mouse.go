package controller

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/render"
)

// OnButtonPress implements x11.Handler: clicking a menu row picks it;
// clicking the "V" icon captures the current PRIMARY owner's value;
// clicking the "X" icon marks exitnext (spec §4.3).
func (c *Controller) OnButtonPress(ev xproto.ButtonPressEvent) {
	menuWin, _ := c.render.MenuWindow()
	if ev.Event != menuWin || !c.render.MenuMapped() {
		return
	}

	width, _ := c.render.MenuSize()
	if row := render.RowAt(ev.EventY, c.list.Len()); row >= 0 {
		c.pick(row)
		return
	}

	switch render.IconAt(ev.EventX, width) {
	case "capture":
		c.captureOnce()
	case "close":
		c.exitnext = true
		c.pick(-1)
	}
}
