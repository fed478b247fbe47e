// Package controller implements InteractionController (spec §4.3): the
// top-level coordinator that maps X events and user input into
// ProtocolEngine transitions and Renderer draws. It is the only
// component that touches all the others — XConn, SelectionList,
// ProtocolEngine, Renderer, ExternalHelper and the hotkey grabs.
package controller

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/sgerwk/multiselect/internal/config"
	"github.com/sgerwk/multiselect/internal/helper"
	"github.com/sgerwk/multiselect/internal/hotkeys"
	"github.com/sgerwk/multiselect/internal/render"
	"github.com/sgerwk/multiselect/internal/selection"
	"github.com/sgerwk/multiselect/internal/x11"
)

// Flags are the fixed-at-startup mode booleans of spec §3 (ModeFlags).
type Flags struct {
	Daemon     bool
	Continuous bool
	Immediate  bool
	Click      bool
	Force      bool
	EnableF1   bool
	EnableF2   bool
	EnableF5   bool
}

// FlashDurations are the three "hide" delays of spec §4.3.
type FlashDurations struct {
	Startup time.Duration
	Change  time.Duration
	Message time.Duration
}

// Config wires together everything Controller needs.
type Config struct {
	Conn    *x11.Conn
	Engine  *selection.Engine
	List    *selection.List
	Render  *render.Renderer
	Helper  *helper.Helper
	Hotkeys *hotkeys.Handler
	Logger  *slog.Logger

	SelfMenuWindow  xproto.Window
	CaptureTimeout  time.Duration
	Flash           FlashDurations
	Flags           Flags
}

// Controller is InteractionController. It implements x11.Handler.
type Controller struct {
	conn    xConn
	engine  *selection.Engine
	list    *selection.List
	render  menuRenderer
	helper  *helper.Helper
	hotkeys *hotkeys.Handler
	logger  *slog.Logger

	selfMenuWindow xproto.Window
	captureTimeout time.Duration
	flash          FlashDurations
	flags          Flags

	exitnext       bool
	exitOnClear    bool // non-daemon, non-continuous: exit once the current transaction settles
	savedFocus     xproto.Window
	savedPointerX  int16
	savedPointerY  int16
	pointerGrabbed bool
	menuX, menuY   int16
	flashMessage   string // painted by OnExpose once the flash window is actually mapped

	configMu      sync.Mutex
	pendingConfig *config.Config
}

// New creates a Controller. The caller must still call Start to acquire
// PRIMARY and ShowStartupFlash to show the initial flash window.
func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		conn:           cfg.Conn,
		engine:         cfg.Engine,
		list:           cfg.List,
		render:         cfg.Render,
		helper:         cfg.Helper,
		hotkeys:        cfg.Hotkeys,
		logger:         logger,
		selfMenuWindow: cfg.SelfMenuWindow,
		captureTimeout: cfg.CaptureTimeout,
		flash:          cfg.Flash,
		flags:          cfg.Flags,
	}
}

// Run dispatches X events until the controller decides to exit.
func (c *Controller) Run() error {
	return c.conn.Run(c, c.shouldStop)
}

func (c *Controller) shouldStop() bool {
	return c.exitnext
}

// ExitRequested reports whether the controller has decided to terminate
// (for callers that need to know post-Run whether it was a clean exit).
func (c *Controller) ExitRequested() bool {
	return c.exitnext
}

// resolvePayload adapts SelectionList to the engine's PayloadFunc (spec
// §4.1: view(i) -> (display, payload)).
func (c *Controller) resolvePayload(key int) ([]byte, bool) {
	_, payload, ok := c.list.View(key)
	if !ok {
		return nil, false
	}
	return []byte(payload), true
}

func (c *Controller) perform(act selection.Action) {
	switch act.Kind {
	case selection.ActionOpenMenu:
		c.openMenu()

	case selection.ActionSendString:
		if c.helper != nil && c.helper.Enabled() {
			requestorHex := helper.FormatRequestor(uint32(act.Requestor))
			if c.helper.Handle(requestorHex, act.Payload) {
				c.logger.Debug("paste delegated to external helper", "requestor", requestorHex)
				return
			}
		}
		if err := c.conn.Perform(act); err != nil {
			c.logger.Warn("performing selection action failed", "kind", act.Kind, "error", err)
		}

	default:
		if err := c.conn.Perform(act); err != nil {
			c.logger.Warn("performing selection action failed", "kind", act.Kind, "error", err)
		}
	}
}

func (c *Controller) performAll(actions []selection.Action) {
	for _, act := range actions {
		c.perform(act)
	}
}

// OnSelectionRequest implements x11.Handler (spec §4.2.2).
func (c *Controller) OnSelectionRequest(ev xproto.SelectionRequestEvent) {
	req := x11.ReadRequest(ev)
	c.logger.Debug("selection request", "requestor", req.Requestor, "target", req.Target)
	c.performAll(c.engine.HandleSelectionRequest(req, c.resolvePayload))
}

// OnSelectionClear implements x11.Handler (spec §4.2.5).
func (c *Controller) OnSelectionClear(ev xproto.SelectionClearEvent) {
	c.logger.Info("lost PRIMARY ownership")
	c.engine.ClearOwnership()

	switch {
	case c.flags.Continuous:
		// Open question 2: continuous always re-requests and stays
		// alive, ignoring the usual exit-on-clear rule, until q/F5.
		c.captureOnce()
	case c.flags.Daemon:
		// remain alive, no further action
	default:
		if _, pending := c.engine.Pending(); pending {
			c.exitOnClear = true
		} else {
			c.exitnext = true
		}
	}
}

// OnPropertyNotify implements x11.Handler. The timestamp-for-now trick
// and capture property reads consume their own PropertyNotify inline
// (x11.Conn.Now / CaptureOwnerSelection), both only ever called before
// the main loop starts or synchronously from within an event handler,
// so there is nothing left for the main dispatch loop to do here.
func (c *Controller) OnPropertyNotify(ev xproto.PropertyNotifyEvent) {}

// OnClientMessage implements x11.Handler. multiselect's windows are
// override-redirect and never managed by a window manager, so the only
// ClientMessages we ever receive are the ones we sent ourselves, to wake
// the loop on a config-file reload (x11.Conn.WakeUp).
func (c *Controller) OnClientMessage(ev xproto.ClientMessageEvent) {
	if cfg := c.takePendingConfig(); cfg != nil {
		c.ApplyConfig(*cfg)
	}
}

func (c *Controller) keysymOf(ev xproto.KeyPressEvent) uint32 {
	return c.conn.Keysym(ev.Detail)
}
