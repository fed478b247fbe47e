// Package selection implements the data model and ICCCM selection-owner
// state machine described by the multiselect specification: the ordered
// list of captured strings (Entry, SelectionList) and the protocol engine
// that decides how to answer an incoming X SelectionRequest.
package selection

// MaxEntries is the hard cap on the number of captured strings (spec §3,
// MAX=20).
const MaxEntries = 20

// Entry is one user-visible captured string.
type Entry struct {
	// Raw is the exact bytes the user supplied (or that were captured
	// from another selection owner). Always displayed.
	Raw string
}

// Payload returns the substring transmitted to a requestor: everything
// after the first occurrence of sep in Raw, or Raw itself if sep is 0
// (unset) or absent from Raw.
func (e Entry) Payload(sep byte) string {
	if sep == 0 {
		return e.Raw
	}
	for i := 0; i < len(e.Raw); i++ {
		if e.Raw[i] == sep {
			return e.Raw[i+1:]
		}
	}
	return e.Raw
}

// List is the ordered, mutable sequence of captured strings plus the
// menu's current cursor position.
type List struct {
	entries   []Entry
	cursor    int // index into entries, or -1 for "none"
	separator byte
}

// NewList creates an empty list with the given display/payload separator
// (0 means "no separator configured").
func NewList(separator byte) *List {
	return &List{cursor: -1, separator: separator}
}

// SetSeparator updates the separator used by View; does not affect
// already-stored Raw values.
func (l *List) SetSeparator(sep byte) {
	l.separator = sep
}

// Len returns the number of entries.
func (l *List) Len() int {
	return len(l.entries)
}

// Full reports whether the list has reached MaxEntries.
func (l *List) Full() bool {
	return len(l.entries) >= MaxEntries
}

// Cursor returns the current cursor index, or -1 if none.
func (l *List) Cursor() int {
	return l.cursor
}

// SetCursor moves the cursor, clamping into [0, len) or -1 if empty.
func (l *List) SetCursor(i int) {
	l.cursor = l.clamp(i)
}

// MoveCursor shifts the cursor by delta, wrapping modulo len (spec §4.3,
// Up/Down). No-op on an empty list.
func (l *List) MoveCursor(delta int) {
	n := len(l.entries)
	if n == 0 {
		l.cursor = -1
		return
	}
	if l.cursor < 0 {
		l.cursor = 0
		return
	}
	l.cursor = ((l.cursor+delta)%n + n) % n
}

// Add appends a new entry. Returns false without modifying the list if
// it is already full (spec §7, ListFull).
func (l *List) Add(raw string) bool {
	if l.Full() {
		return false
	}
	l.entries = append(l.entries, Entry{Raw: raw})
	l.cursor = l.clamp(l.cursor)
	return true
}

// RemoveAt deletes the entry at index i, if any, and clamps the cursor.
func (l *List) RemoveAt(i int) {
	if i < 0 || i >= len(l.entries) {
		return
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	l.cursor = l.clamp(l.cursor)
}

// RemoveLast deletes the most recently added entry, if any.
func (l *List) RemoveLast() {
	if len(l.entries) == 0 {
		return
	}
	l.RemoveAt(len(l.entries) - 1)
}

// Clear empties the list.
func (l *List) Clear() {
	l.entries = nil
	l.cursor = -1
}

// View returns the display string and the payload for entry i. ok is
// false for an out-of-range index.
func (l *List) View(i int) (display, payload string, ok bool) {
	if i < 0 || i >= len(l.entries) {
		return "", "", false
	}
	e := l.entries[i]
	return e.Raw, e.Payload(l.separator), true
}

// All returns the display strings of every entry, in order, for
// rendering the menu.
func (l *List) All() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Raw
	}
	return out
}

func (l *List) clamp(i int) int {
	n := len(l.entries)
	if n == 0 {
		return -1
	}
	if i < 0 {
		return -1
	}
	if i >= n {
		return n - 1
	}
	return i
}
