// Command multiselect owns the PRIMARY selection and offers a menu of
// previously captured strings instead of a single paste value.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sgerwk/multiselect/internal/config"
	"github.com/sgerwk/multiselect/internal/controller"
	"github.com/sgerwk/multiselect/internal/helper"
	"github.com/sgerwk/multiselect/internal/hotkeys"
	"github.com/sgerwk/multiselect/internal/multierr"
	"github.com/sgerwk/multiselect/internal/render"
	"github.com/sgerwk/multiselect/internal/selection"
	"github.com/sgerwk/multiselect/internal/singleton"
	"github.com/sgerwk/multiselect/internal/x11"
)

// maxStdinLineBytes bounds a single stdin line read with "-" (spec §6.1).
const maxStdinLineBytes = 500

// captureTimeout bounds how long CaptureOwnerSelection waits for the
// other owner's SelectionNotify before giving up (spec §4.5 has no
// explicit bound; a bounded wait keeps the single event loop from
// stalling forever on an unresponsive or malicious owner).
const captureTimeout = 2 * time.Second

func main() {
	os.Exit(run())
}

type keyFlags []string

func (k *keyFlags) String() string { return strings.Join(*k, ",") }
func (k *keyFlags) Set(v string) error {
	*k = append(*k, v)
	return nil
}

func run() int {
	var (
		daemon     bool
		continuous bool
		immediate  bool
		force      bool
		paste      bool
		separator  string
		helperProg string
		verbose    bool
	)
	var keys keyFlags

	fs := flag.NewFlagSet("multiselect", flag.ContinueOnError)
	fs.BoolVar(&daemon, "d", false, "stay running after the first paste (daemon mode)")
	fs.Var(&keys, "k", "enable a global hotkey (F1, F2 or F5); implies -d")
	fs.BoolVar(&force, "f", false, "fabricate a paste request on hotkey open, without a real requestor (implies -d -k F1)")
	fs.BoolVar(&continuous, "c", false, "continuously capture whoever else owns PRIMARY (implies -d)")
	fs.BoolVar(&immediate, "i", false, "paste immediately as the cursor moves, without pressing Enter")
	fs.StringVar(&separator, "t", "", "display/payload separator byte")
	fs.BoolVar(&paste, "p", false, "paste directly on pick, without a synthetic middle click")
	fs.StringVar(&helperProg, "e", "", "external helper program invoked before a normal X send")
	fs.BoolVar(&verbose, "v", false, "enable debug logging")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: multiselect [-d] [-k F1|F2|F5] [-f] [-c] [-i] [-t SEP] [-p] [-e PROG] [-v] (- | STRING ...)")
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	flags := controller.Flags{
		Daemon:     daemon || force || continuous,
		Continuous: continuous,
		Immediate:  immediate,
		Click:      !paste,
		Force:      force,
	}
	for _, k := range keys {
		switch strings.ToUpper(k) {
		case "F1":
			flags.EnableF1 = true
			flags.Daemon = true
		case "F2":
			flags.EnableF2 = true
			flags.Daemon = true
		case "F5":
			flags.EnableF5 = true
			flags.Daemon = true
		default:
			fmt.Fprintf(os.Stderr, "multiselect: unknown hotkey %q (want F1, F2 or F5)\n", k)
			return 2
		}
	}
	if force {
		flags.EnableF1 = true
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	strs, err := ingestStrings(fs.Args(), os.Stdin)
	if err != nil {
		logger.Error("reading initial strings failed", "error", err)
		return 2
	}

	cfgPath, err := config.DefaultPath()
	if err != nil {
		logger.Warn("resolving config path failed, using built-in defaults", "error", err)
	}
	fileCfg := config.Defaults()
	if cfgPath != "" {
		fileCfg, err = config.Load(cfgPath)
		if err != nil {
			logger.Warn("loading config file failed, using built-in defaults", "error", err)
			fileCfg = config.Defaults()
		}
	}
	if separator != "" {
		fileCfg.Separator = separator
	}
	if helperProg != "" {
		fileCfg.Helper = helperProg
	}

	conn, err := x11.Connect(logger)
	if err != nil {
		logger.Error("opening X11 display failed", "error", multierr.Wrap(multierr.DisplayOpen, "connect", err))
		return 1
	}
	defer conn.Close()

	lock, err := singleton.Lock()
	if err != nil {
		logger.Error("another instance is starting up", "error", err)
		return 1
	}
	defer singleton.Unlock(lock)

	already, err := singleton.AlreadyRunning(x11.NewRootTree(conn), flags.Daemon)
	if err != nil {
		logger.Error("checking for a running instance failed", "error", err)
		return 1
	}
	if already {
		logger.Error("multiselect is already running", "error", multierr.Sentinel(multierr.SingletonClash))
		return 1
	}

	list := selection.NewList(fileCfg.SeparatorByte())
	for _, s := range strs {
		if !list.Add(s) {
			break
		}
	}

	rnd := render.New(conn, logger)
	selfWindow, err := rnd.MenuWindow()
	if err != nil {
		logger.Error("creating menu window failed", "error", err)
		return 1
	}
	sentinelName := singleton.NameMenu
	if flags.Daemon {
		sentinelName = singleton.NameDaemon
	}
	if err := conn.SetWindowName(selfWindow, sentinelName); err != nil {
		logger.Warn("naming self window failed", "error", err)
	}

	engine := selection.New(selection.Config{
		Atoms:          conn.Atoms,
		SelfMenuWindow: selection.Window(selfWindow),
		ClickMode:      flags.Click,
		Logger:         logger,
	})
	engine.SetShortInterval(fileCfg.ShortInterval)

	hk := hotkeys.New(conn.XUtil, conn.Root, logger)

	ctl := controller.New(controller.Config{
		Conn:           conn,
		Engine:         engine,
		List:           list,
		Render:         rnd,
		Helper:         helper.New(fileCfg.Helper, logger),
		Hotkeys:        hk,
		Logger:         logger,
		SelfMenuWindow: selfWindow,
		CaptureTimeout: captureTimeout,
		Flash: controller.FlashDurations{
			Startup: fileCfg.FlashStartup,
			Change:  fileCfg.FlashChange,
			Message: fileCfg.FlashMessage,
		},
		Flags: flags,
	})
	defer rnd.Close()

	if flags.Daemon {
		if err := hk.Grab("control-shift-z", ctl.OpenMenu); err != nil {
			logger.Warn("grabbing Ctrl+Shift+Z failed", "error", multierr.Wrap(multierr.GrabFailed, "control-shift-z", err))
		}
	}
	if flags.EnableF1 {
		if err := hk.Grab("F1", ctl.OpenMenu); err != nil {
			logger.Warn("grabbing F1 failed", "error", multierr.Wrap(multierr.GrabFailed, "F1", err))
		}
	}
	if flags.EnableF2 {
		if err := hk.Grab("F2", ctl.CaptureOnce); err != nil {
			logger.Warn("grabbing F2 failed", "error", multierr.Wrap(multierr.GrabFailed, "F2", err))
		}
	}
	if flags.EnableF5 {
		if err := hk.Grab("F5", ctl.Quit); err != nil {
			logger.Warn("grabbing F5 failed", "error", multierr.Wrap(multierr.GrabFailed, "F5", err))
		}
	}

	if err := ctl.Start(); err != nil {
		logger.Error("acquiring PRIMARY ownership failed", "error", multierr.Wrap(multierr.OwnershipDenied, "startup", err))
		return 1
	}

	if flags.Daemon && cfgPath != "" {
		watcher, err := config.NewWatcher(cfgPath, logger)
		if err != nil {
			logger.Warn("watching config file failed, live reload disabled", "error", err)
		} else {
			defer watcher.Close()
			go func() {
				for cfg := range watcher.Changes {
					if separator != "" {
						cfg.Separator = separator
					}
					ctl.NotifyConfigReload(cfg)
				}
			}()
		}
	}

	ctl.ShowStartupFlash()

	if err := ctl.Run(); err != nil {
		logger.Error("event loop exited with an error", "error", err)
		return 1
	}
	return 0
}

// ingestStrings implements the positional-argument contract of spec
// §6.1: either "-" (stdin, line by line, capped) or up to MAX literal
// strings.
func ingestStrings(args []string, stdin io.Reader) ([]string, error) {
	if len(args) == 1 && args[0] == "-" {
		var out []string
		scanner := bufio.NewScanner(stdin)
		scanner.Buffer(make([]byte, 0, maxStdinLineBytes+1), bufio.MaxScanTokenSize)
		for scanner.Scan() && len(out) < selection.MaxEntries {
			line := scanner.Text()
			if len(line) > maxStdinLineBytes {
				line = line[:maxStdinLineBytes]
			}
			out = append(out, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return out, nil
	}
	if len(args) > selection.MaxEntries {
		args = args[:selection.MaxEntries]
	}
	return args, nil
}

