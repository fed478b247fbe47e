package controller

import "strings"

// acquirePrimary takes ownership of PRIMARY as of "now" (spec §4.2.4,
// acquire()), logging rather than failing: by the time this runs we are
// already up and running, so a failed re-acquisition is not fatal the
// way the initial one (Controller.Start) is.
func (c *Controller) acquirePrimary() {
	if err := c.acquireOrFail(); err != nil {
		c.logger.Warn("acquiring PRIMARY failed", "error", err)
		return
	}
	c.logger.Debug("acquired PRIMARY ownership")
}

// disownPrimary releases PRIMARY once the list has become empty (spec
// §4.2.4, SPEC_FULL.md §C retain-at-one-entry nuance).
func (c *Controller) disownPrimary() {
	if err := c.conn.DisownPrimary(c.selfMenuWindow); err != nil {
		c.logger.Debug("disowning PRIMARY failed", "error", err)
	}
	c.engine.ClearOwnership()
}

// CaptureOnce is the hotkey entry point for F2 when enabled by -k (spec
// §4.7), equivalent to pressing 'z'/F2 inside an already-open menu.
func (c *Controller) CaptureOnce() {
	c.captureOnce()
}

// captureOnce implements the "capture the current PRIMARY owner's value"
// action (spec §4.5): the F2/z key, the icon-bar click, and -c's
// continuous-mode re-arm all funnel through here. The -c startup capture
// is done separately by Start.
func (c *Controller) captureOnce() {
	if c.list.Full() {
		c.showErrorFlash("multiselect: list is full")
		return
	}

	owner, err := c.conn.PrimaryOwner()
	if err != nil {
		c.logger.Warn("querying PRIMARY owner failed", "error", err)
		return
	}
	if owner == 0 {
		c.showErrorFlash("multiselect: nothing selected")
		return
	}
	if owner == c.selfMenuWindow {
		// We already own it ourselves; nothing new to capture.
		return
	}

	raw, err := c.conn.CaptureOwnerSelection(c.selfMenuWindow, c.captureTimeout)
	if err != nil {
		c.logger.Debug("capturing selection failed, dropping silently", "error", err)
		return
	}
	raw = strings.TrimRight(raw, "\x00")
	if raw == "" {
		return
	}

	if !c.list.Add(raw) {
		c.showErrorFlash("multiselect: list is full")
		return
	}

	if c.list.Len() >= 2 || c.flags.Continuous {
		c.acquirePrimary()
	}

	c.showChangeFlash()
	c.redrawMenu()
}
