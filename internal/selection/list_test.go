package selection

import "testing"

func TestEntryPayloadSplit(t *testing.T) {
	cases := []struct {
		raw  string
		sep  byte
		want string
	}{
		{"k: v", ':', " v"},
		{"nosplit", ':', "nosplit"},
		{"nosplit", 0, "nosplit"},
		{"a:b:c", ':', "b:c"},
	}
	for _, c := range cases {
		got := Entry{Raw: c.raw}.Payload(c.sep)
		if got != c.want {
			t.Errorf("Entry{%q}.Payload(%q) = %q, want %q", c.raw, c.sep, got, c.want)
		}
	}
}

func TestListAddAndClamp(t *testing.T) {
	l := NewList(0)
	for i := 0; i < MaxEntries; i++ {
		if !l.Add("x") {
			t.Fatalf("Add failed before reaching MaxEntries at i=%d", i)
		}
	}
	if l.Add("overflow") {
		t.Fatalf("Add succeeded past MaxEntries")
	}
	if l.Len() != MaxEntries {
		t.Fatalf("Len() = %d, want %d", l.Len(), MaxEntries)
	}
}

func TestListCursorClampOnRemove(t *testing.T) {
	l := NewList(0)
	l.Add("a")
	l.Add("b")
	l.Add("c")
	l.SetCursor(2)
	l.RemoveAt(2)
	if l.Cursor() != 1 {
		t.Fatalf("Cursor() = %d, want 1 after removing last of 3", l.Cursor())
	}
	l.RemoveAt(1)
	if l.Cursor() != 0 {
		t.Fatalf("Cursor() = %d, want 0", l.Cursor())
	}
	l.RemoveAt(0)
	if l.Cursor() != -1 {
		t.Fatalf("Cursor() = %d, want -1 (none) on empty list", l.Cursor())
	}
}

func TestListMoveCursorWraps(t *testing.T) {
	l := NewList(0)
	l.Add("a")
	l.Add("b")
	l.Add("c")
	l.SetCursor(0)
	l.MoveCursor(-1)
	if l.Cursor() != 2 {
		t.Fatalf("Cursor() = %d, want 2 after wrapping down from 0", l.Cursor())
	}
	l.MoveCursor(1)
	if l.Cursor() != 0 {
		t.Fatalf("Cursor() = %d, want 0 after wrapping up from 2", l.Cursor())
	}
}

func TestListViewOutOfRange(t *testing.T) {
	l := NewList(0)
	l.Add("only")
	if _, _, ok := l.View(5); ok {
		t.Fatalf("View(5) ok=true on a 1-entry list")
	}
	display, payload, ok := l.View(0)
	if !ok || display != "only" || payload != "only" {
		t.Fatalf("View(0) = (%q, %q, %v), want (\"only\", \"only\", true)", display, payload, ok)
	}
}

func TestListNeverOutOfRangeInvariant(t *testing.T) {
	l := NewList(0)
	for _, raw := range []string{"a", "b", "c", "d"} {
		l.Add(raw)
	}
	l.SetCursor(3)
	for l.Len() > 0 {
		l.RemoveLast()
		c := l.Cursor()
		if c < -1 || c >= l.Len() {
			t.Fatalf("cursor %d out of range for len %d", c, l.Len())
		}
	}
}
