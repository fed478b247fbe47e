// Package x11 wraps the raw xgb/xgbutil calls multiselect needs: atom
// interning, selection ownership, property read/write, override-redirect
// window creation and the XTEST synthetic click used in click mode.
package x11

import (
	"fmt"
	"log/slog"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/sgerwk/multiselect/internal/selection"
)

// Conn is a thin wrapper over an xgbutil connection plus the interned
// atoms and XTEST capability multiselect needs throughout its lifetime.
type Conn struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	Atoms   selection.AtomSet
	Primary selection.Atom

	hasXTest bool
	logger   *slog.Logger
}

// Connect opens the X11 display, initializes the keybind module and
// interns every atom multiselect ever references.
func Connect(logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("opening X11 display: %w", err)
	}
	keybind.Initialize(xu)

	c := &Conn{XUtil: xu, Root: xu.RootWin(), logger: logger}

	if err := c.internAtoms(); err != nil {
		xu.Conn().Close()
		return nil, err
	}

	if err := xtest.Init(xu.Conn()); err != nil {
		logger.Warn("XTEST extension unavailable, click mode will require -p pointer use", "error", err)
		c.hasXTest = false
	} else {
		c.hasXTest = true
	}

	return c, nil
}

// Close releases the X11 connection.
func (c *Conn) Close() {
	c.XUtil.Conn().Close()
}

// HasXTest reports whether XTestFakeInput is available for the
// synthetic middle-click of click mode.
func (c *Conn) HasXTest() bool {
	return c.hasXTest
}

func (c *Conn) internAtoms() error {
	names := []struct {
		dst  *selection.Atom
		name string
	}{
		{&c.Atoms.String, "STRING"},
		{&c.Atoms.UTF8String, "UTF8_STRING"},
		{&c.Atoms.Targets, "TARGETS"},
		{&c.Atoms.FirefoxMoz, "text/x-moz-text-internal"},
		{&c.Atoms.XtSelection1, "_XT_SELECTION_1"},
		{&c.Atoms.CutBuffer0, "CUT_BUFFER0"},
		{&c.Primary, "PRIMARY"},
	}

	for _, n := range names {
		reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(n.name)), n.name).Reply()
		if err != nil {
			return fmt.Errorf("interning atom %s: %w", n.name, err)
		}
		*n.dst = selection.Atom(reply.Atom)
	}
	c.Atoms.None = 0

	return nil
}

// AtomName resolves an atom back to its string form, for logging.
func (c *Conn) AtomName(a selection.Atom) string {
	reply, err := xproto.GetAtomName(c.XUtil.Conn(), xproto.Atom(a)).Reply()
	if err != nil {
		return fmt.Sprintf("atom(%d)", a)
	}
	return string(reply.Name)
}

// Keysym resolves a KeyPress event's keycode to its plain (unshifted)
// keysym, wrapping keybind so callers never need the XUtil handle itself.
func (c *Conn) Keysym(detail xproto.Keycode) uint32 {
	return uint32(keybind.KeysymGet(c.XUtil, detail, 0))
}

// PrimaryAtom returns the interned PRIMARY atom.
func (c *Conn) PrimaryAtom() selection.Atom {
	return c.Primary
}

// StringAtom returns the interned STRING atom.
func (c *Conn) StringAtom() selection.Atom {
	return c.Atoms.String
}
