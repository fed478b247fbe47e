package singleton

import (
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

type fakeTree struct {
	children []xproto.Window
	names    map[xproto.Window]string
}

func (f fakeTree) Children() ([]xproto.Window, error) { return f.children, nil }
func (f fakeTree) WindowName(w xproto.Window) string   { return f.names[w] }

func TestAlreadyRunningNoMatch(t *testing.T) {
	tree := fakeTree{children: []xproto.Window{1, 2}, names: map[xproto.Window]string{1: "xterm", 2: "firefox"}}
	got, err := AlreadyRunning(tree, false)
	if err != nil {
		t.Fatalf("AlreadyRunning: %v", err)
	}
	if got {
		t.Fatal("expected no match")
	}
}

func TestAlreadyRunningMenuSentinel(t *testing.T) {
	tree := fakeTree{children: []xproto.Window{1, 2}, names: map[xproto.Window]string{2: NameMenu}}
	got, err := AlreadyRunning(tree, false)
	if err != nil {
		t.Fatalf("AlreadyRunning: %v", err)
	}
	if !got {
		t.Fatal("expected a match on the menu sentinel")
	}
}

func TestAlreadyRunningDaemonSentinelOnlyInDaemonMode(t *testing.T) {
	tree := fakeTree{children: []xproto.Window{1}, names: map[xproto.Window]string{1: NameDaemon}}

	got, err := AlreadyRunning(tree, false)
	if err != nil {
		t.Fatalf("AlreadyRunning: %v", err)
	}
	if got {
		t.Fatal("daemon sentinel should not match a non-daemon scan")
	}

	got, err = AlreadyRunning(tree, true)
	if err != nil {
		t.Fatalf("AlreadyRunning: %v", err)
	}
	if !got {
		t.Fatal("daemon sentinel should match a daemon-mode scan")
	}
}
