// Package singleton implements the well-known-window-name sentinel scan
// of spec §4.6 plus the advisory file lock that closes the TOCTOU race
// between two processes both passing that scan (SPEC_FULL.md §B).
package singleton

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/gofrs/flock"
)

// Names are the two well-known WM_NAME values multiselect and
// multiselectd carry on their top window (spec §4.6).
const (
	NameMenu   = "multiselect"
	NameDaemon = "multiselectd"
)

// Tree abstracts the X11 root-window scan so this package is unit
// testable without a live display.
type Tree interface {
	// Children returns the immediate children of the root window.
	Children() ([]xproto.Window, error)
	// WindowName returns a window's WM_NAME, or "" if unset/unreadable.
	WindowName(xproto.Window) string
}

// AlreadyRunning scans root's children for a window already carrying
// the NameMenu sentinel (or, in daemon mode, the NameDaemon sentinel too)
// and reports whether one exists.
func AlreadyRunning(tree Tree, daemon bool) (bool, error) {
	children, err := tree.Children()
	if err != nil {
		return false, fmt.Errorf("querying root window tree: %w", err)
	}
	for _, win := range children {
		name := tree.WindowName(win)
		if name == NameMenu {
			return true, nil
		}
		if daemon && name == NameDaemon {
			return true, nil
		}
	}
	return false, nil
}

// LockPath returns the well-known advisory lock file path under the
// user's runtime directory.
func LockPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "multiselect.lock")
}

// Lock takes the advisory startup lock, serializing concurrent
// multiselect startups so the window-tree scan in AlreadyRunning (the
// authoritative check) is not racing another process's own scan+create.
// The caller must hold the returned lock until its own window has been
// created and named.
func Lock() (*flock.Flock, error) {
	lock := flock.New(LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring startup lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another multiselect instance is starting up")
	}
	return lock, nil
}

// Unlock releases a lock obtained from Lock.
func Unlock(lock *flock.Flock) {
	if lock != nil {
		lock.Unlock()
	}
}
