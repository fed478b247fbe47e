package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
)

// FakeMiddleClick synthesizes a middle mouse button press/release at the
// pointer's current location via XTEST, provoking the SelectionRequest
// a real paste would send (spec §4.4, click mode). Returns an error if
// XTEST was unavailable at Connect time; the caller then falls back to
// answering the pending request directly, as in -p mode.
func (c *Conn) FakeMiddleClick() error {
	if !c.hasXTest {
		return fmt.Errorf("XTEST extension unavailable, cannot synthesize click")
	}

	const buttonMiddle = 2
	if err := xtest.FakeInputChecked(
		c.XUtil.Conn(), xproto.ButtonPress, buttonMiddle, xproto.TimeCurrentTime, c.Root, 0, 0, 0,
	).Check(); err != nil {
		return fmt.Errorf("synthesizing button press: %w", err)
	}
	if err := xtest.FakeInputChecked(
		c.XUtil.Conn(), xproto.ButtonRelease, buttonMiddle, xproto.TimeCurrentTime, c.Root, 0, 0, 0,
	).Check(); err != nil {
		return fmt.Errorf("synthesizing button release: %w", err)
	}
	return nil
}
