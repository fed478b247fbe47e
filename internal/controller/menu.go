package controller

import (
	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/render"
	"github.com/sgerwk/multiselect/internal/selection"
)

// OpenMenu is the hotkey entry point for opening the menu with no
// pasting client involved (Ctrl+Shift+Z always, F1 when enabled by -k,
// spec §4.7): it synthesizes the ShowWindow pseudo-event of spec §4.3.
func (c *Controller) OpenMenu() {
	c.openMenu()
}

// openMenu implements the "open menu" half of the request handler /
// controller split of spec §9: ProtocolEngine returns ActionOpenMenu,
// Controller interprets it. Also invoked directly for the synthesized
// ShowWindow pseudo-event (spec §4.3) when a hotkey fires with no
// request pending.
func (c *Controller) openMenu() {
	if c.render.MenuMapped() {
		return
	}

	px, py, err := c.conn.QueryPointer()
	if err != nil {
		c.logger.Warn("querying pointer failed, defaulting menu position", "error", err)
		px, py = 0, 0
	}
	c.menuX, c.menuY = px, py

	if focus, err := c.conn.InputFocus(); err == nil {
		c.savedFocus = focus
	}
	c.savedPointerX, c.savedPointerY = px, py

	if err := c.render.DrawMenu(render.MenuView{Entries: c.list.All(), Cursor: c.list.Cursor()}, px, py); err != nil {
		c.logger.Warn("drawing menu failed", "error", err)
		return
	}
	win, err := c.render.MenuWindow()
	if err != nil {
		c.logger.Warn("creating menu window failed", "error", err)
		return
	}
	if err := c.render.MapMenu(px, py); err != nil {
		c.logger.Warn("mapping menu window failed", "error", err)
		return
	}
	c.engine.SetMenuVisible(true)
	c.logger.Debug("menu opened", "window", win, "x", px, "y", py)
}

// redrawMenu re-renders the menu in place after a navigation-only change
// (cursor move, add, remove) that does not close it.
func (c *Controller) redrawMenu() {
	if !c.render.MenuMapped() {
		return
	}
	if err := c.render.DrawMenu(render.MenuView{Entries: c.list.All(), Cursor: c.list.Cursor()}, c.menuX, c.menuY); err != nil {
		c.logger.Warn("redrawing menu failed", "error", err)
	}
}

// closeMenu unmaps the menu without resolving any pending request itself;
// pick calls it after it has answered (or handed off) that request.
func (c *Controller) closeMenu() {
	if err := c.render.UnmapMenu(); err != nil {
		c.logger.Warn("unmapping menu failed", "error", err)
	}
	c.engine.SetMenuVisible(false)
	if c.pointerGrabbed {
		c.conn.UngrabPointer()
		c.pointerGrabbed = false
	}
}

// OnExpose implements x11.Handler: redraw on Expose, and grab the
// pointer on the menu's first Expose after mapping (SPEC_FULL.md §C,
// "pointer grab while the menu is mapped") so the requestor cannot fire
// further selection requests while the user is choosing.
func (c *Controller) OnExpose(ev xproto.ExposeEvent) {
	menuWin, _ := c.render.MenuWindow()
	flashWin, _ := c.render.FlashWindow()

	switch ev.Window {
	case menuWin:
		c.redrawMenu()
		if !c.pointerGrabbed {
			if err := c.conn.GrabPointerIn(menuWin); err != nil {
				c.logger.Debug("grabbing pointer over menu failed", "error", err)
			} else {
				c.pointerGrabbed = true
			}
		}
	case flashWin:
		if err := c.render.DrawFlash(render.FlashView{Message: c.flashMessage}); err != nil {
			c.logger.Warn("drawing flash window failed", "error", err)
		}
	}
}

// OnUnmapNotify implements x11.Handler: release the pointer grab taken
// on Expose once the menu is hidden.
func (c *Controller) OnUnmapNotify(ev xproto.UnmapNotifyEvent) {
	menuWin, _ := c.render.MenuWindow()
	if ev.Window == menuWin && c.pointerGrabbed {
		c.conn.UngrabPointer()
		c.pointerGrabbed = false
	}
}

// pick finalizes the interaction for key (an entry index, or -1 to
// refuse/cancel) per spec §4.3-§4.4 and SPEC_FULL.md §C.
func (c *Controller) pick(key int) {
	_, hasPending := c.engine.Pending()

	switch {
	case hasPending && c.flags.Click:
		c.engine.SetChoice(key)
		c.closeMenu()
		c.restoreFocusAndWarp()
		if err := c.conn.FakeMiddleClick(); err != nil {
			c.logger.Warn("synthetic middle click failed, falling back to direct send", "error", err)
			c.performAll(c.engine.Answer(key, c.resolvePayload))
		}

	case hasPending:
		c.performAll(c.engine.Answer(key, c.resolvePayload))
		c.closeMenu()

	case c.flags.Force:
		fabricated := selection.RequestFor(selection.Window(c.savedFocus), c.conn.PrimaryAtom(), c.conn.StringAtom())
		c.performAll(c.engine.AnswerDirect(fabricated, key, c.resolvePayload))
		c.closeMenu()
		if c.flags.Click {
			c.restoreFocusAndWarp()
		}

	default:
		c.closeMenu()
	}

	c.afterTransaction()
}

func (c *Controller) restoreFocusAndWarp() {
	if c.savedFocus != 0 {
		if err := c.conn.SetInputFocus(c.savedFocus); err != nil {
			c.logger.Debug("restoring focus failed", "error", err)
		}
	}
	if err := c.conn.WarpPointer(c.savedPointerX, c.savedPointerY); err != nil {
		c.logger.Debug("warping pointer back failed", "error", err)
	}
}

// afterTransaction applies exitnext / exitOnClear once a pending
// request has actually been resolved (spec §5, "cooperative request to
// terminate after the current logical transaction").
func (c *Controller) afterTransaction() {
	if c.exitOnClear {
		c.exitOnClear = false
		c.exitnext = true
	}
}
