package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// RootTree adapts Conn to singleton.Tree: it scans the root window's
// immediate children (not the EWMH client list, which window managers
// populate only for managed windows — an override-redirect window like
// our own never appears there, spec §4.6).
type RootTree struct {
	conn *Conn
}

// NewRootTree wraps conn for singleton scanning.
func NewRootTree(conn *Conn) RootTree {
	return RootTree{conn: conn}
}

// Children implements singleton.Tree.
func (t RootTree) Children() ([]xproto.Window, error) {
	reply, err := xproto.QueryTree(t.conn.XUtil.Conn(), t.conn.Root).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Children, nil
}

// WindowName implements singleton.Tree, reading WM_NAME (type STRING,
// format 8) and returning "" on any failure rather than propagating an
// error — a window with no readable name just never matches a sentinel.
func (t RootTree) WindowName(win xproto.Window) string {
	reply, err := xproto.GetProperty(
		t.conn.XUtil.Conn(), false, win, xproto.AtomWmName, xproto.AtomString, 0, 256,
	).Reply()
	if err != nil || reply.Format == 0 {
		return ""
	}
	return string(reply.Value)
}

// SetWindowName sets WM_NAME on win to one of the sentinels of spec §4.6.
func (c *Conn) SetWindowName(win xproto.Window, name string) error {
	return xproto.ChangePropertyChecked(
		c.XUtil.Conn(), xproto.PropModeReplace, win, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(name)), []byte(name),
	).Check()
}
