package controller

import (
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/render"
	"github.com/sgerwk/multiselect/internal/selection"
	"github.com/sgerwk/multiselect/internal/x11"
)

// xConn abstracts the X11 connection so Controller is unit testable
// without a live display, the same way internal/singleton's Tree
// abstracts the root-window scan. *x11.Conn satisfies it unmodified.
type xConn interface {
	Run(h x11.Handler, stop func() bool) error
	Perform(act selection.Action) error

	PrimaryOwner() (xproto.Window, error)
	AcquirePrimary(win xproto.Window, since selection.Timestamp) error
	DisownPrimary(win xproto.Window) error
	CaptureOwnerSelection(win xproto.Window, timeout time.Duration) (string, error)
	Now(win xproto.Window) (selection.Timestamp, error)
	WakeUp(win xproto.Window) error

	QueryPointer() (x, y int16, err error)
	InputFocus() (xproto.Window, error)
	SetInputFocus(win xproto.Window) error
	WarpPointer(x, y int16) error
	GrabPointerIn(win xproto.Window) error
	UngrabPointer() error
	FakeMiddleClick() error

	Keysym(detail xproto.Keycode) uint32
	PrimaryAtom() selection.Atom
	StringAtom() selection.Atom
}

// menuRenderer abstracts the menu/flash windows so Controller's event
// handlers can be driven without a live display.
type menuRenderer interface {
	MenuWindow() (xproto.Window, error)
	FlashWindow() (xproto.Window, error)
	MenuMapped() bool
	MenuSize() (width, height uint16)
	DrawMenu(vm render.MenuView, px, py int16) error
	MapMenu(x, y int16) error
	UnmapMenu() error
	DrawFlash(vm render.FlashView) error
	MapFlash(x, y int16) error
	UnmapFlash() error
}
