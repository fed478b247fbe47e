package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
)

// Handler receives the raw event types InteractionController cares
// about. multiselect runs a cooperative, single-threaded loop (spec §9
// design note: no goroutines touching shared state) rather than
// xgbutil's callback-registry event loop, since the ICCCM dance needs
// to see events in exact arrival order to reason about staleness and
// repeats.
type Handler interface {
	OnSelectionRequest(xproto.SelectionRequestEvent)
	OnSelectionClear(xproto.SelectionClearEvent)
	OnPropertyNotify(xproto.PropertyNotifyEvent)
	OnKeyPress(xproto.KeyPressEvent)
	OnButtonPress(xproto.ButtonPressEvent)
	OnExpose(xproto.ExposeEvent)
	OnUnmapNotify(xproto.UnmapNotifyEvent)
	OnClientMessage(xproto.ClientMessageEvent)
}

// Run blocks dispatching events to h until the connection errors out or
// stop returns true for the event just dispatched.
func (c *Conn) Run(h Handler, stop func() bool) error {
	for {
		ev, err := c.XUtil.Conn().WaitForEvent()
		if err != nil {
			return fmt.Errorf("reading X11 event: %w", err)
		}
		if ev == nil {
			return fmt.Errorf("reading X11 event: connection closed")
		}

		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			h.OnSelectionRequest(e)
		case xproto.SelectionClearEvent:
			h.OnSelectionClear(e)
		case xproto.PropertyNotifyEvent:
			h.OnPropertyNotify(e)
		case xproto.KeyPressEvent:
			h.OnKeyPress(e)
		case xproto.ButtonPressEvent:
			h.OnButtonPress(e)
		case xproto.ExposeEvent:
			h.OnExpose(e)
		case xproto.UnmapNotifyEvent:
			h.OnUnmapNotify(e)
		case xproto.ClientMessageEvent:
			h.OnClientMessage(e)
		}

		if stop != nil && stop() {
			return nil
		}
	}
}
