package selection

import "time"

// Window stands in for xproto.Window: an opaque X11 resource id. Kept as
// a plain integer so the engine has no xgb import and can be driven by
// tests with fabricated windows.
type Window uint32

// Timestamp stands in for xproto.Timestamp (an X server time in
// milliseconds). TimeCurrent stands in for X11's CurrentTime (0), which
// is never compared against ownership time (spec §9, open question 3).
type Timestamp uint32

const TimeCurrent Timestamp = 0

// Request is the engine's copy of an inbound SelectionRequest. The
// engine keeps a value, not a pointer, so the caller's X event buffer
// can be reused freely (spec §9 design note).
type Request struct {
	Requestor Window
	Selection Atom
	Target    Atom
	Property  Atom // None if the requestor left it unset
	Time      Timestamp
}

// ActionKind tags the variant stored in an Action.
type ActionKind int

const (
	ActionRefuse ActionKind = iota
	ActionSendString
	ActionSendTargets
	ActionOpenMenu
)

// Action is one effect the engine wants performed: a reply to send, a
// property to write, or a request to open the menu. The engine never
// performs I/O itself; InteractionController and XConn turn these into
// real X calls.
type Action struct {
	Kind ActionKind

	// Populated for ActionRefuse, ActionSendString, ActionSendTargets.
	Requestor Window
	Selection Atom
	Target    Atom
	Property  Atom // destination property chosen per spec §4.2.3; None on refusal
	Time      Timestamp

	// Populated for ActionSendString.
	Payload []byte

	// Populated for ActionSendTargets.
	Targets []Atom
}

// RequestFor builds the fabricated SelectionRequest used by -f (spec
// §4.4): requestor is the saved focus window, target is STRING,
// property is None, and time is CurrentTime so the engine's
// predates-ownership check never refuses it (spec §9, open question 3).
func RequestFor(requestor Window, sel Atom, target Atom) Request {
	return Request{
		Requestor: requestor,
		Selection: sel,
		Target:    target,
		Property:  0,
		Time:      TimeCurrent,
	}
}

func refuse(r Request) Action {
	return Action{
		Kind:      ActionRefuse,
		Requestor: r.Requestor,
		Selection: r.Selection,
		Target:    r.Target,
		Property:  0, // None
		Time:      r.Time,
	}
}

// destinationProperty implements spec §4.2.3's property fallback chain:
// the requestor's chosen property, else the target atom, else the
// obsolete-Xt fallback atom.
func destinationProperty(r Request, atoms AtomSet) Atom {
	if r.Property != atoms.None {
		return r.Property
	}
	if r.Target != atoms.None {
		return r.Target
	}
	return atoms.XtSelection1
}

func sendString(r Request, atoms AtomSet, payload []byte) Action {
	return Action{
		Kind:      ActionSendString,
		Requestor: r.Requestor,
		Selection: r.Selection,
		Target:    r.Target,
		Property:  destinationProperty(r, atoms),
		Time:      r.Time,
		Payload:   payload,
	}
}

func sendTargets(r Request, atoms AtomSet) Action {
	return Action{
		Kind:      ActionSendTargets,
		Requestor: r.Requestor,
		Selection: r.Selection,
		Target:    r.Target,
		Property:  destinationProperty(r, atoms),
		Time:      r.Time,
		Targets:   []Atom{atoms.String, atoms.UTF8String},
	}
}

func openMenu() Action {
	return Action{Kind: ActionOpenMenu}
}

// lastAnswer records enough of a served (or refused) request to repeat it
// verbatim within SHORT_INTERVAL (spec §4.2.2 rule 8) or answer a second
// firefox request (rule 6).
type lastAnswer struct {
	valid     bool
	refused   bool
	requestor Window
	selection Atom
	target    Atom
	payload   []byte
	key       int
}

// clock lets tests substitute a fake "now" without sleeping.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
