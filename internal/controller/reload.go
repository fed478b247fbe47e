package controller

import "github.com/sgerwk/multiselect/internal/config"

// ApplyConfig updates the running engine, list and flash durations from a
// reloaded config file (SPEC_FULL.md §A.3). The helper program path is
// deliberately left alone: a changed -e target takes effect on the next
// invocation, not retroactively on one already in flight.
func (c *Controller) ApplyConfig(cfg config.Config) {
	c.list.SetSeparator(cfg.SeparatorByte())
	c.engine.SetShortInterval(cfg.ShortInterval)
	c.flash = FlashDurations{
		Startup: cfg.FlashStartup,
		Change:  cfg.FlashChange,
		Message: cfg.FlashMessage,
	}
	c.logger.Debug("applied reloaded configuration")
}

// NotifyConfigReload is called from the config watcher's own goroutine
// (daemon mode only). It stashes cfg and wakes the main loop rather than
// applying it here directly, keeping every mutation of engine/list state
// on the single cooperative loop (spec §5).
func (c *Controller) NotifyConfigReload(cfg config.Config) {
	c.configMu.Lock()
	c.pendingConfig = &cfg
	c.configMu.Unlock()

	win, err := c.render.MenuWindow()
	if err != nil {
		c.logger.Warn("waking main loop for config reload failed", "error", err)
		return
	}
	if err := c.conn.WakeUp(win); err != nil {
		c.logger.Warn("sending config-reload wakeup failed", "error", err)
	}
}

// takePendingConfig atomically returns and clears a config reload queued
// by NotifyConfigReload, or nil if none is waiting.
func (c *Controller) takePendingConfig() *config.Config {
	c.configMu.Lock()
	defer c.configMu.Unlock()
	cfg := c.pendingConfig
	c.pendingConfig = nil
	return cfg
}
