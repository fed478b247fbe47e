package x11

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/selection"
)

// Now returns a timestamp suitable for AcquirePrimary: the "time for
// now" trick of appending a zero-length change to a property on the
// owner window and reading back the PropertyNotify that the server
// stamps with its own clock (ICCCM §2.1, ground truth in
// original_source/multiselect.c's GetTimestamp). win must already be
// selecting PropertyNotify events.
func (c *Conn) Now(win xproto.Window) (selection.Timestamp, error) {
	prop := c.Atoms.CutBuffer0
	err := xproto.ChangePropertyChecked(
		c.XUtil.Conn(), xproto.PropModeAppend, win,
		xproto.Atom(prop), xproto.AtomString, 8, 0, nil,
	).Check()
	if err != nil {
		return 0, fmt.Errorf("stamping timestamp property: %w", err)
	}

	for {
		ev, xerr := c.XUtil.Conn().WaitForEvent()
		if xerr != nil {
			return 0, fmt.Errorf("waiting for timestamp PropertyNotify: %w", xerr)
		}
		pn, ok := ev.(xproto.PropertyNotifyEvent)
		if !ok || pn.Window != win || pn.Atom != xproto.Atom(prop) {
			continue
		}
		return selection.Timestamp(pn.Time), nil
	}
}

// AcquirePrimary takes ownership of PRIMARY as of since and clears the
// legacy CUT_BUFFER0 property, matching the original's AcquireSelection.
func (c *Conn) AcquirePrimary(win xproto.Window, since selection.Timestamp) error {
	err := xproto.SetSelectionOwnerChecked(
		c.XUtil.Conn(), win, xproto.Atom(c.Primary), xproto.Timestamp(since),
	).Check()
	if err != nil {
		return fmt.Errorf("acquiring PRIMARY selection: %w", err)
	}

	reply, err := xproto.GetSelectionOwner(c.XUtil.Conn(), xproto.Atom(c.Primary)).Reply()
	if err != nil || reply.Owner != win {
		return fmt.Errorf("PRIMARY ownership not confirmed by server")
	}

	_ = xproto.DeletePropertyChecked(c.XUtil.Conn(), c.Root, xproto.Atom(c.Atoms.CutBuffer0)).Check()
	return nil
}

// PrimaryOwner returns the window currently owning PRIMARY, or 0 (None)
// if nobody does.
func (c *Conn) PrimaryOwner() (xproto.Window, error) {
	reply, err := xproto.GetSelectionOwner(c.XUtil.Conn(), xproto.Atom(c.Primary)).Reply()
	if err != nil {
		return 0, fmt.Errorf("querying PRIMARY owner: %w", err)
	}
	return reply.Owner, nil
}

// DisownPrimary releases PRIMARY if win currently owns it.
func (c *Conn) DisownPrimary(win xproto.Window) error {
	reply, err := xproto.GetSelectionOwner(c.XUtil.Conn(), xproto.Atom(c.Primary)).Reply()
	if err == nil && reply.Owner != win {
		return nil
	}
	return xproto.SetSelectionOwnerChecked(
		c.XUtil.Conn(), 0, xproto.Atom(c.Primary), xproto.Timestamp(selection.TimeCurrent),
	).Check()
}

// WakeUp sends a harmless ClientMessage to win, unblocking a pending
// WaitForEvent call in Conn.Run. Used by the config-file watcher
// goroutine to notify the main loop that a new Config is waiting,
// without that goroutine itself touching the X connection state the
// main loop owns (spec §5: only the main loop mutates shared state).
func (c *Conn) WakeUp(win xproto.Window) error {
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   xproto.Atom(c.Atoms.CutBuffer0),
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{0, 0, 0, 0, 0}),
	}
	return xproto.SendEventChecked(c.XUtil.Conn(), false, win, 0, string(ev.Bytes())).Check()
}

// ReadRequest converts a raw SelectionRequestEvent into the engine's
// plain Request value.
func ReadRequest(ev xproto.SelectionRequestEvent) selection.Request {
	return selection.Request{
		Requestor: selection.Window(ev.Requestor),
		Selection: selection.Atom(ev.Selection),
		Target:    selection.Atom(ev.Target),
		Property:  selection.Atom(ev.Property),
		Time:      selection.Timestamp(ev.Time),
	}
}

// Perform carries out one engine Action: writing a reply property and
// sending SelectionNotify, or simply notifying refusal (property=None).
func (c *Conn) Perform(act selection.Action) error {
	switch act.Kind {
	case selection.ActionSendString:
		return c.sendNotify(act, func() error {
			return xproto.ChangePropertyChecked(
				c.XUtil.Conn(), xproto.PropModeReplace,
				xproto.Window(act.Requestor), xproto.Atom(act.Property),
				xproto.Atom(act.Target), 8, uint32(len(act.Payload)), act.Payload,
			).Check()
		})

	case selection.ActionSendTargets:
		return c.sendNotify(act, func() error {
			buf := make([]byte, 4*len(act.Targets))
			for i, a := range act.Targets {
				binary.LittleEndian.PutUint32(buf[i*4:], uint32(a))
			}
			return xproto.ChangePropertyChecked(
				c.XUtil.Conn(), xproto.PropModeReplace,
				xproto.Window(act.Requestor), xproto.Atom(act.Property),
				xproto.AtomAtom, 32, uint32(len(act.Targets)), buf,
			).Check()
		})

	case selection.ActionRefuse:
		return c.notify(act.Requestor, act.Selection, act.Target, 0, act.Time)

	default:
		return nil
	}
}

func (c *Conn) sendNotify(act selection.Action, writeProperty func() error) error {
	if err := writeProperty(); err != nil {
		return fmt.Errorf("writing selection reply property: %w", err)
	}
	return c.notify(act.Requestor, act.Selection, act.Target, act.Property, act.Time)
}

func (c *Conn) notify(requestor selection.Window, sel, target, prop selection.Atom, t selection.Timestamp) error {
	ev := xproto.SelectionNotifyEvent{
		Time:      xproto.Timestamp(t),
		Requestor: xproto.Window(requestor),
		Selection: xproto.Atom(sel),
		Target:    xproto.Atom(target),
		Property:  xproto.Atom(prop),
	}
	err := xproto.SendEventChecked(
		c.XUtil.Conn(), false, xproto.Window(requestor), 0, string(ev.Bytes()),
	).Check()
	if err != nil {
		return fmt.Errorf("sending SelectionNotify: %w", err)
	}
	return nil
}

// CaptureOwnerSelection performs a one-shot ConvertSelection against
// whoever currently owns PRIMARY and returns its STRING value, for the
// -c startup capture (spec §4.5). Requests PRIMARY itself back as the
// destination property, matching the literal
// XConvertSelection(PRIMARY, STRING, PRIMARY, self, CurrentTime) call of
// spec §4.5 and original_source/multiselect.c. INCR transfers are out of
// scope: a property arriving in INCR form is reported as an error
// rather than read incrementally.
func (c *Conn) CaptureOwnerSelection(win xproto.Window, timeout time.Duration) (string, error) {
	prop := c.Primary
	err := xproto.ConvertSelectionChecked(
		c.XUtil.Conn(), win, xproto.Atom(c.Primary), xproto.Atom(c.Atoms.String),
		xproto.Atom(prop), xproto.Timestamp(selection.TimeCurrent),
	).Check()
	if err != nil {
		return "", fmt.Errorf("requesting current PRIMARY owner's selection: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ev, xerr := c.XUtil.Conn().PollForEvent()
		if xerr != nil {
			return "", fmt.Errorf("waiting for SelectionNotify: %w", xerr)
		}
		if ev == nil {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		sn, ok := ev.(xproto.SelectionNotifyEvent)
		if !ok || sn.Requestor != win {
			continue
		}
		if sn.Property == 0 {
			return "", fmt.Errorf("selection owner refused conversion")
		}
		return c.readStringProperty(win, xproto.Atom(sn.Property))
	}
	return "", fmt.Errorf("timed out waiting for SelectionNotify")
}

func (c *Conn) readStringProperty(win xproto.Window, prop xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(
		c.XUtil.Conn(), false, win, prop, xproto.AtomAny, 0, ^uint32(0)/4,
	).Reply()
	if err != nil {
		return "", fmt.Errorf("reading selection reply property: %w", err)
	}
	if reply.Type == xproto.AtomAny {
		return "", fmt.Errorf("selection reply property missing")
	}
	if incr, ierr := xproto.InternAtom(c.XUtil.Conn(), true, 4, "INCR").Reply(); ierr == nil && incr.Atom != 0 && reply.Type == incr.Atom {
		return "", fmt.Errorf("selection reply uses INCR, which is not supported")
	}
	_ = xproto.DeletePropertyChecked(c.XUtil.Conn(), win, prop).Check()
	return string(reply.Value), nil
}
