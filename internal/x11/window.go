package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// WindowGeometry positions and sizes an override-redirect window.
type WindowGeometry struct {
	X, Y          int16
	Width, Height uint16
}

// CreateOverlay creates an override-redirect window (bypassing the
// window manager, as the menu and flash windows must) with the given
// background pixel, selecting the event masks the caller needs.
func (c *Conn) CreateOverlay(geom WindowGeometry, backgroundPixel uint32, eventMask uint32) (xproto.Window, error) {
	win, err := xproto.NewWindowId(c.XUtil.Conn())
	if err != nil {
		return 0, fmt.Errorf("allocating window id: %w", err)
	}

	screen := c.XUtil.Screen()
	err = xproto.CreateWindowChecked(
		c.XUtil.Conn(), screen.RootDepth, win, c.Root,
		geom.X, geom.Y, geom.Width, geom.Height, 1,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwOverrideRedirect|xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{1, backgroundPixel, eventMask},
	).Check()
	if err != nil {
		return 0, fmt.Errorf("creating overlay window: %w", err)
	}
	return win, nil
}

// Map, Unmap and Destroy are thin wrappers kept separate so callers can
// log or sequence them without repeating the Checked().Check() idiom.
func (c *Conn) Map(win xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), win).Check()
}

func (c *Conn) Unmap(win xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), win).Check()
}

func (c *Conn) Destroy(win xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), win).Check()
}

// Reposition moves and/or resizes a mapped window, used when the menu
// must grow or shrink with the number of entries.
func (c *Conn) Reposition(win xproto.Window, geom WindowGeometry) error {
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(), win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(geom.X)), uint32(int32(geom.Y)), uint32(geom.Width), uint32(geom.Height)},
	).Check()
}

// WarpPointer moves the pointer to an absolute screen position, used to
// put the pointer back where it was when the menu opened, so the
// synthetic middle click lands on the original paste location.
func (c *Conn) WarpPointer(x, y int16) error {
	return xproto.WarpPointerChecked(c.XUtil.Conn(), 0, c.Root, 0, 0, 0, 0, x, y).Check()
}

// QueryPointer returns the pointer's current root-relative position.
func (c *Conn) QueryPointer() (x, y int16, err error) {
	reply, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, fmt.Errorf("querying pointer: %w", err)
	}
	return reply.RootX, reply.RootY, nil
}

// GrabPointerIn actively grabs the pointer confined to win, used while
// the menu is visible so a click outside it still resolves deterministically.
func (c *Conn) GrabPointerIn(win xproto.Window) error {
	_, err := xproto.GrabPointer(
		c.XUtil.Conn(), false, win,
		xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
		xproto.GrabModeAsync, xproto.GrabModeAsync, win, 0, xproto.TimeCurrentTime,
	).Reply()
	if err != nil {
		return fmt.Errorf("grabbing pointer: %w", err)
	}
	return nil
}

// UngrabPointer releases a pointer grab taken by GrabPointerIn.
func (c *Conn) UngrabPointer() error {
	return xproto.UngrabPointerChecked(c.XUtil.Conn(), xproto.TimeCurrentTime).Check()
}

// InputFocus returns the window currently holding the input focus,
// saved before the menu steals it and restored on pick (spec §4.4).
func (c *Conn) InputFocus() (xproto.Window, error) {
	reply, err := xproto.GetInputFocus(c.XUtil.Conn()).Reply()
	if err != nil {
		return 0, fmt.Errorf("querying input focus: %w", err)
	}
	return reply.Focus, nil
}

// SetInputFocus restores the input focus to win.
func (c *Conn) SetInputFocus(win xproto.Window) error {
	return xproto.SetInputFocusChecked(
		c.XUtil.Conn(), xproto.InputFocusPointerRoot, win, xproto.TimeCurrentTime,
	).Check()
}
