package controller

import (
	"testing"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/render"
	"github.com/sgerwk/multiselect/internal/selection"
	"github.com/sgerwk/multiselect/internal/x11"
)

// fakeConn is a minimal xConn double: it records every Perform call so
// tests can assert a pending request was actually resolved (the
// SelectionNotify reply obligation of spec §8), not just that the menu
// closed.
type fakeConn struct {
	performed []selection.Action
	ungrabs   int
}

func (f *fakeConn) Run(h x11.Handler, stop func() bool) error { return nil }
func (f *fakeConn) Perform(act selection.Action) error {
	f.performed = append(f.performed, act)
	return nil
}
func (f *fakeConn) PrimaryOwner() (xproto.Window, error)                    { return 0, nil }
func (f *fakeConn) AcquirePrimary(xproto.Window, selection.Timestamp) error { return nil }
func (f *fakeConn) DisownPrimary(xproto.Window) error                       { return nil }
func (f *fakeConn) CaptureOwnerSelection(xproto.Window, time.Duration) (string, error) {
	return "", nil
}
func (f *fakeConn) Now(xproto.Window) (selection.Timestamp, error) { return 0, nil }
func (f *fakeConn) WakeUp(xproto.Window) error                     { return nil }
func (f *fakeConn) QueryPointer() (int16, int16, error)            { return 0, 0, nil }
func (f *fakeConn) InputFocus() (xproto.Window, error)             { return 0, nil }
func (f *fakeConn) SetInputFocus(xproto.Window) error              { return nil }
func (f *fakeConn) WarpPointer(int16, int16) error                 { return nil }
func (f *fakeConn) GrabPointerIn(xproto.Window) error              { return nil }
func (f *fakeConn) UngrabPointer() error                           { f.ungrabs++; return nil }
func (f *fakeConn) FakeMiddleClick() error                         { return nil }
func (f *fakeConn) Keysym(xproto.Keycode) uint32                   { return 0 }
func (f *fakeConn) PrimaryAtom() selection.Atom                    { return 100 }
func (f *fakeConn) StringAtom() selection.Atom                     { return 1 }

// fakeRenderer is a minimal menuRenderer double: a mapped flag is enough
// to drive closeMenu/pick without a live display.
type fakeRenderer struct {
	mapped bool
	draws  int
}

func (f *fakeRenderer) MenuWindow() (xproto.Window, error)  { return 1, nil }
func (f *fakeRenderer) FlashWindow() (xproto.Window, error) { return 2, nil }
func (f *fakeRenderer) MenuMapped() bool                    { return f.mapped }
func (f *fakeRenderer) MenuSize() (uint16, uint16)          { return 0, 0 }
func (f *fakeRenderer) DrawMenu(render.MenuView, int16, int16) error {
	f.draws++
	return nil
}
func (f *fakeRenderer) MapMenu(int16, int16) error       { f.mapped = true; return nil }
func (f *fakeRenderer) UnmapMenu() error                 { f.mapped = false; return nil }
func (f *fakeRenderer) DrawFlash(render.FlashView) error { return nil }
func (f *fakeRenderer) MapFlash(int16, int16) error      { return nil }
func (f *fakeRenderer) UnmapFlash() error                { return nil }

func testAtoms() selection.AtomSet {
	return selection.AtomSet{String: 1, UTF8String: 2, Targets: 3, FirefoxMoz: 4, XtSelection1: 5, CutBuffer0: 6}
}

// newPendingController wires a Controller to the fakes above, with the
// menu already open and a live pending request from requestor 42 — the
// state both quit() and removeAtCursor() must resolve before tearing
// anything down.
func newPendingController(daemon bool) (*Controller, *fakeConn, *fakeRenderer) {
	engine := selection.New(selection.Config{Atoms: testAtoms(), SelfMenuWindow: 999})
	engine.SetOwnership(1)

	list := selection.NewList(0)
	list.Add("foo")
	list.Add("bar")

	resolve := func(key int) ([]byte, bool) {
		_, payload, ok := list.View(key)
		return []byte(payload), ok
	}
	req := selection.Request{Requestor: 42, Selection: 100, Target: testAtoms().String, Property: 200, Time: 10}
	actions := engine.HandleSelectionRequest(req, resolve)
	if len(actions) != 1 || actions[0].Kind != selection.ActionOpenMenu {
		panic("test setup: expected pending request to request menu open")
	}
	engine.SetMenuVisible(true)

	conn := &fakeConn{}
	rend := &fakeRenderer{mapped: true}

	c := New(Config{
		Conn:   nil,
		Engine: engine,
		List:   list,
		Render: nil,
		Flags:  Flags{Daemon: daemon},
	})
	c.conn = conn
	c.render = rend
	return c, conn, rend
}

// resolvedPending reports whether performed contains a reply for the
// pending requestor (send or refuse), as opposed to only OpenMenu
// actions or nothing at all.
func resolvedPending(actions []selection.Action, requestor selection.Window) bool {
	for _, act := range actions {
		if act.Kind == selection.ActionOpenMenu {
			continue
		}
		if act.Requestor == requestor {
			return true
		}
	}
	return false
}

// TestQuitResolvesPendingRequest guards against quit() tearing the menu
// down via closeMenu() directly: a live requestor's SelectionRequest
// must still get exactly one SelectionNotify reply (spec §8) even when
// the user presses q/F5 to exit.
func TestQuitResolvesPendingRequest(t *testing.T) {
	c, conn, rend := newPendingController(false)

	c.quit()

	if !resolvedPending(conn.performed, 42) {
		t.Fatalf("quit() did not resolve the pending request, performed=%+v", conn.performed)
	}
	if rend.mapped {
		t.Fatalf("quit() left the menu mapped")
	}
	if !c.exitnext {
		t.Fatalf("quit() in non-daemon mode did not set exitnext")
	}
}

// TestQuitDaemonResolvesPendingRequestButStaysRunning mirrors the above
// for daemon mode, where quit() must still answer the pending request
// but must not set exitnext.
func TestQuitDaemonResolvesPendingRequestButStaysRunning(t *testing.T) {
	c, conn, _ := newPendingController(true)

	c.quit()

	if !resolvedPending(conn.performed, 42) {
		t.Fatalf("quit() did not resolve the pending request, performed=%+v", conn.performed)
	}
	if c.exitnext {
		t.Fatalf("quit() in daemon mode should not set exitnext")
	}
}

// TestRemoveAtCursorEmptyListResolvesPendingRequest guards against the
// empty-list branch of removeAtCursor() closing the menu without
// resolving a pending request (same bug class as quit()).
func TestRemoveAtCursorEmptyListResolvesPendingRequest(t *testing.T) {
	c, conn, rend := newPendingController(false)

	c.list.RemoveAt(1)
	c.list.RemoveAt(0)
	if c.list.Len() != 0 {
		t.Fatalf("test setup: expected an empty list, got %d entries", c.list.Len())
	}

	c.removeAtCursor()

	if !resolvedPending(conn.performed, 42) {
		t.Fatalf("removeAtCursor() did not resolve the pending request, performed=%+v", conn.performed)
	}
	if rend.mapped {
		t.Fatalf("removeAtCursor() left the menu mapped")
	}
	if !c.exitnext {
		t.Fatalf("removeAtCursor() emptying the list did not set exitnext")
	}
}

// TestRemoveAtCursorEmptyListDaemonStaysOpen documents that daemon mode
// never exits on an empty list; the menu is only redrawn.
func TestRemoveAtCursorEmptyListDaemonStaysOpen(t *testing.T) {
	c, _, rend := newPendingController(true)

	c.list.RemoveAt(1)
	c.list.RemoveAt(0)

	c.removeAtCursor()

	if !rend.mapped {
		t.Fatalf("removeAtCursor() in daemon mode should leave the menu mapped")
	}
	if c.exitnext {
		t.Fatalf("removeAtCursor() in daemon mode should not set exitnext")
	}
}
