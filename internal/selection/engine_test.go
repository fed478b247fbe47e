package selection

import (
	"testing"
	"time"
)

func testAtoms() AtomSet {
	return AtomSet{
		String:       1,
		UTF8String:   2,
		Targets:      3,
		FirefoxMoz:   4,
		XtSelection1: 5,
		CutBuffer0:   6,
		None:         0,
	}
}

// fakeClock lets tests move "now" forward deterministically.
type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestEngine(clickMode bool) (*Engine, *fakeClock) {
	e := New(Config{Atoms: testAtoms(), SelfMenuWindow: 999, ClickMode: clickMode})
	fc := &fakeClock{t: time.Unix(1000, 0)}
	e.clock = fc
	e.SetOwnership(1) // since=1, strictly before any request.Time used below
	return e, fc
}

func resolverFor(payloads map[int]string) PayloadFunc {
	return func(key int) ([]byte, bool) {
		s, ok := payloads[key]
		if !ok {
			return nil, false
		}
		return []byte(s), true
	}
}

// Scenario 1: `multiselect foo bar`; middle-click; press '2'. Requestor
// receives SelectionNotify with property containing "bar".
func TestScenario_PickSecondEntry(t *testing.T) {
	e, _ := newTestEngine(false)
	resolve := resolverFor(map[int]string{0: "foo", 1: "bar"})

	req := Request{Requestor: 42, Selection: 100, Target: e.atoms.String, Property: 200, Time: 10}
	actions := e.HandleSelectionRequest(req, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionOpenMenu {
		t.Fatalf("expected a single OpenMenu action, got %+v", actions)
	}
	e.SetMenuVisible(true)

	e.SetMenuVisible(false)
	actions = e.Answer(1, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionSendString {
		t.Fatalf("expected ActionSendString, got %+v", actions)
	}
	if string(actions[0].Payload) != "bar" {
		t.Fatalf("payload = %q, want %q", actions[0].Payload, "bar")
	}
	if actions[0].Requestor != 42 || actions[0].Property != 200 {
		t.Fatalf("reply routed to wrong requestor/property: %+v", actions[0])
	}
}

// Scenario 2: invalid key refuses; a duplicate request within 80ms gets
// the same refusal.
func TestScenario_InvalidKeyThenDuplicateWithinShortInterval(t *testing.T) {
	e, fc := newTestEngine(false)
	resolve := resolverFor(map[int]string{0: "foo"})

	req := Request{Requestor: 42, Selection: 100, Target: e.atoms.String, Property: 200, Time: 10}
	e.HandleSelectionRequest(req, resolve)

	actions := e.Answer(-1, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected refusal for invalid key, got %+v", actions)
	}

	fc.advance(10 * time.Millisecond)
	dup := Request{Requestor: 42, Selection: 100, Target: e.atoms.String, Property: 201, Time: 11}
	actions = e.HandleSelectionRequest(dup, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected duplicate refusal within short interval, got %+v", actions)
	}
}

// Scenario 3: separator splits display vs payload.
func TestScenario_SeparatorSplitsPayload(t *testing.T) {
	l := NewList(':')
	l.Add("k: v")
	display, payload, ok := l.View(0)
	if !ok {
		t.Fatal("View(0) not ok")
	}
	if display != "k: v" {
		t.Fatalf("display = %q, want %q", display, "k: v")
	}
	if payload != " v" {
		t.Fatalf("payload = %q, want %q", payload, " v")
	}
}

// Scenario 4: firefox sentinel latches, gets refused itself; the
// following STRING request is answered with the previously chosen
// payload and clears the latch.
func TestScenario_FirefoxLatch(t *testing.T) {
	e, _ := newTestEngine(false)
	resolve := resolverFor(map[int]string{0: "chosen"})

	// Prime a previously-served answer.
	req1 := Request{Requestor: 42, Selection: 100, Target: e.atoms.String, Property: 200, Time: 10}
	e.HandleSelectionRequest(req1, resolve)
	e.Answer(0, resolve)

	// Push last-served out of the short-interval window.
	e.lastServedAt = e.lastServedAt.Add(-time.Second)

	sentinel := Request{Requestor: 42, Selection: 100, Target: e.atoms.FirefoxMoz, Property: 202, Time: 12}
	actions := e.HandleSelectionRequest(sentinel, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected sentinel request refused, got %+v", actions)
	}
	if !e.firefox {
		t.Fatal("expected firefox latch set")
	}

	real := Request{Requestor: 42, Selection: 100, Target: e.atoms.String, Property: 203, Time: 13}
	actions = e.HandleSelectionRequest(real, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionSendString {
		t.Fatalf("expected send of previously chosen payload, got %+v", actions)
	}
	if string(actions[0].Payload) != "chosen" {
		t.Fatalf("payload = %q, want %q", actions[0].Payload, "chosen")
	}
	if e.firefox {
		t.Fatal("expected firefox latch cleared after second request")
	}
}

// Scenario: TARGETS always answered with STRING,UTF8_STRING, format 32,
// never property=None.
func TestScenario_TargetsRoundtrip(t *testing.T) {
	e, _ := newTestEngine(false)
	req := Request{Requestor: 42, Selection: 100, Target: e.atoms.Targets, Property: 200, Time: 10}
	actions := e.HandleSelectionRequest(req, nil)
	if len(actions) != 1 || actions[0].Kind != ActionSendTargets {
		t.Fatalf("expected ActionSendTargets, got %+v", actions)
	}
	if len(actions[0].Targets) != 2 || actions[0].Targets[0] != e.atoms.String || actions[0].Targets[1] != e.atoms.UTF8String {
		t.Fatalf("targets = %+v, want [STRING, UTF8_STRING]", actions[0].Targets)
	}
	if actions[0].Property == e.atoms.None {
		t.Fatal("TARGETS reply must not use property=None")
	}
}

// A request while the menu is already visible is refused, not queued.
func TestMenuVisibleRefusesConcurrentRequest(t *testing.T) {
	e, _ := newTestEngine(false)
	resolve := resolverFor(map[int]string{0: "x"})

	first := Request{Requestor: 1, Selection: 100, Target: e.atoms.String, Property: 1, Time: 10}
	e.HandleSelectionRequest(first, resolve)
	e.SetMenuVisible(true)

	second := Request{Requestor: 2, Selection: 100, Target: e.atoms.String, Property: 2, Time: 11}
	actions := e.HandleSelectionRequest(second, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected refusal while menu visible, got %+v", actions)
	}
	if _, ok := e.Pending(); !ok {
		t.Fatal("expected original pending request to remain")
	}
}

// A request from the menu window itself is always refused.
func TestSelfRequestAlwaysRefused(t *testing.T) {
	e, _ := newTestEngine(false)
	req := Request{Requestor: e.selfMenuWindow, Selection: 100, Target: e.atoms.String, Property: 1, Time: 10}
	actions := e.HandleSelectionRequest(req, nil)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected refusal for self-request, got %+v", actions)
	}
}

// Unsupported targets are refused.
func TestUnsupportedTargetRefused(t *testing.T) {
	e, _ := newTestEngine(false)
	req := Request{Requestor: 1, Selection: 100, Target: 999, Property: 1, Time: 10}
	actions := e.HandleSelectionRequest(req, nil)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected refusal for unsupported target, got %+v", actions)
	}
}

// A request whose time predates ownership is refused even though the
// index resolves to a valid entry.
func TestStaleTimestampRefused(t *testing.T) {
	e, _ := newTestEngine(false)
	e.SetOwnership(100)
	resolve := resolverFor(map[int]string{0: "x"})

	req := Request{Requestor: 1, Selection: 100, Target: e.atoms.String, Property: 1, Time: 5}
	e.HandleSelectionRequest(req, resolve)
	actions := e.Answer(0, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionRefuse {
		t.Fatalf("expected refusal for stale request time, got %+v", actions)
	}
}

// CurrentTime (0) is always treated as valid, even before any ownership
// (spec §9, open question 3 — used by the -f fabricated request).
func TestCurrentTimeNeverStale(t *testing.T) {
	e, _ := newTestEngine(false)
	e.SetOwnership(1000)
	resolve := resolverFor(map[int]string{0: "x"})

	req := Request{Requestor: 1, Selection: 100, Target: e.atoms.String, Property: 1, Time: TimeCurrent}
	actions := e.AnswerDirect(req, 0, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionSendString {
		t.Fatalf("expected send for CurrentTime request, got %+v", actions)
	}
}

// Click mode: the first real request is refused immediately and the
// menu is opened; once the user picks, a fresh request (as provoked by
// the synthetic middle click) is answered from ChoiceState.
func TestClickModeFlow(t *testing.T) {
	e, _ := newTestEngine(true)
	resolve := resolverFor(map[int]string{0: "picked"})

	req := Request{Requestor: 7, Selection: 100, Target: e.atoms.String, Property: 1, Time: 10}
	actions := e.HandleSelectionRequest(req, resolve)
	if len(actions) != 2 || actions[0].Kind != ActionRefuse || actions[1].Kind != ActionOpenMenu {
		t.Fatalf("expected [refuse, openMenu] in click mode, got %+v", actions)
	}

	e.SetChoice(0)
	fresh := Request{Requestor: 7, Selection: 100, Target: e.atoms.String, Property: 2, Time: 11}
	actions = e.HandleSelectionRequest(fresh, resolve)
	if len(actions) != 1 || actions[0].Kind != ActionSendString || string(actions[0].Payload) != "picked" {
		t.Fatalf("expected send of picked payload, got %+v", actions)
	}
	if _, ok := e.Pending(); ok {
		t.Fatal("expected pending cleared after click-mode answer")
	}
}

// LastServedAt never decreases across a sequence of served requests.
func TestLastServedAtMonotonic(t *testing.T) {
	e, fc := newTestEngine(false)
	resolve := resolverFor(map[int]string{0: "x"})

	prev := e.LastServedAt()
	for i := 0; i < 5; i++ {
		req := Request{Requestor: 1, Selection: 100, Target: e.atoms.String, Property: 1, Time: 10}
		e.HandleSelectionRequest(req, resolve)
		e.Answer(0, resolve)
		if e.LastServedAt().Before(prev) {
			t.Fatalf("LastServedAt went backwards: %v before %v", e.LastServedAt(), prev)
		}
		prev = e.LastServedAt()
		fc.advance(200 * time.Millisecond)
	}
}
