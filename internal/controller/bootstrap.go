package controller

import "strings"

// Start performs the initial PRIMARY ownership acquisition of spec
// §4.2.4: acquire immediately, unless continuous (-c) was requested, in
// which case the current owner's value is borrowed first and we only
// take ownership ourselves once two entries are held, preserving the
// prior owner's ability to answer pastes while only one string exists.
// With an empty list (nothing given, nothing captured) ownership is
// taken right away.
func (c *Controller) Start() error {
	if !c.flags.Continuous {
		return c.acquireOrFail()
	}

	owner, err := c.conn.PrimaryOwner()
	if err != nil {
		return err
	}
	if owner != 0 && owner != c.selfMenuWindow {
		raw, err := c.conn.CaptureOwnerSelection(c.selfMenuWindow, c.captureTimeout)
		if err != nil {
			c.logger.Warn("initial capture failed, starting with whatever was already listed", "error", err)
		} else if raw = strings.TrimRight(raw, "\x00"); raw != "" {
			c.list.Add(raw)
		}
	}

	if c.list.Len() >= 2 || c.list.Len() == 0 {
		return c.acquireOrFail()
	}
	return nil
}

func (c *Controller) acquireOrFail() error {
	win := c.selfMenuWindow
	since, err := c.conn.Now(win)
	if err != nil {
		return err
	}
	if err := c.conn.AcquirePrimary(win, since); err != nil {
		return err
	}
	c.engine.SetOwnership(since)
	return nil
}
