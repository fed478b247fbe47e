package selection

import (
	"log/slog"
	"time"
)

// ShortInterval is the grace period within which a repeated selection
// request gets the same answer as its predecessor (spec §4.2.2 rule 8).
// The original C source used 50ms in earlier revisions; 80ms is current.
const ShortInterval = 80 * time.Millisecond

// Ownership mirrors spec §3's OwnershipState.
type Ownership struct {
	Owned bool
	Since Timestamp
}

// PayloadFunc resolves an entry index to the bytes that should be sent
// for it. The engine never holds the SelectionList itself (spec §9); the
// caller supplies this so HandleSelectionRequest can still return a
// fully-formed Action with payload bytes in one pass. ok is false when
// the index is out of range (e.g. list mutated, or no choice ever made).
type PayloadFunc func(key int) (payload []byte, ok bool)

// Engine is the ICCCM selection-owner state machine of spec §4.2. It
// holds OwnershipState, PendingRequest, LastServedAt, ChoiceState and the
// firefox latch, and consumes one event at a time without blocking.
type Engine struct {
	atoms          AtomSet
	selfMenuWindow Window
	clickMode      bool
	clock          clock
	shortInterval  time.Duration
	logger         *slog.Logger

	ownership Ownership
	pending   *Request

	lastServedAt time.Time
	lastAnswer   lastAnswer

	choiceKey int // -1 = ChoiceState is None
	firefox   bool

	menuVisible bool
}

// Config configures a new Engine.
type Config struct {
	Atoms          AtomSet
	SelfMenuWindow Window
	ClickMode      bool
	Logger         *slog.Logger
}

// New creates an Engine starting out NotOwner, with no pending request.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		atoms:          cfg.Atoms,
		selfMenuWindow: cfg.SelfMenuWindow,
		clickMode:      cfg.ClickMode,
		clock:          realClock{},
		shortInterval:  ShortInterval,
		logger:         logger,
		choiceKey:      -1,
	}
}

// SetOwnership records that we now own the selection as of since (spec
// §4.2.4, acquire()). The actual X calls (SetSelectionOwner, the
// time-for-now trick, clearing CUT_BUFFER0) are XConn's job; this just
// updates the state the engine reasons about.
func (e *Engine) SetOwnership(since Timestamp) {
	e.ownership = Ownership{Owned: true, Since: since}
}

// ClearOwnership records loss of ownership (disown-by-API or
// SelectionClear, spec §3).
func (e *Engine) ClearOwnership() {
	e.ownership = Ownership{}
}

// Ownership returns the current ownership state.
func (e *Engine) Ownership() Ownership {
	return e.ownership
}

// Pending returns the currently stored request, if any.
func (e *Engine) Pending() (Request, bool) {
	if e.pending == nil {
		return Request{}, false
	}
	return *e.pending, true
}

// SetShortInterval updates the repeat-detection window (SPEC_FULL.md
// §A.3: the running engine picks up a changed config value without
// restart).
func (e *Engine) SetShortInterval(d time.Duration) {
	e.shortInterval = d
}

// SetMenuVisible updates whether the menu window is currently mapped;
// InteractionController calls this whenever it maps or unmaps the menu.
func (e *Engine) SetMenuVisible(visible bool) {
	e.menuVisible = visible
}

// SetChoice records a user pick in click mode (ChoiceState = Chosen{key},
// spec §3). Consumed by the next inbound SelectionRequest (rule 7).
func (e *Engine) SetChoice(key int) {
	e.choiceKey = key
}

// ClearChoice resets ChoiceState to None.
func (e *Engine) ClearChoice() {
	e.choiceKey = -1
}

// CancelPending drops the stored PendingRequest without answering it
// (used when the controller tears down without a clean pick/refuse, e.g.
// process exit). Not part of the ICCCM reply obligation by itself —
// callers that truly abandon a request should prefer Answer(-1).
func (e *Engine) CancelPending() {
	e.pending = nil
}

// HandleSelectionRequest runs an inbound SelectionRequest through the
// decision tree of spec §4.2.2 and returns the actions to perform.
// resolve supplies payload bytes for a chosen/repeated entry index.
func (e *Engine) HandleSelectionRequest(r Request, resolve PayloadFunc) []Action {
	// 1: never serve ourselves.
	if r.Requestor == e.selfMenuWindow {
		e.logger.Debug("selection request from self, refusing")
		return []Action{refuse(r)}
	}

	kind := e.atoms.Classify(r.Target)

	// 2: TARGETS is always answered immediately, without touching
	// LastServedAt.
	if kind == TargetTargets {
		return []Action{sendTargets(r, e.atoms)}
	}

	// 3: firefox sentinel detection (only outside click mode).
	if !e.clickMode && kind == TargetFirefoxSentinel {
		e.firefox = true
		e.logger.Debug("firefox sentinel request observed")
	}

	// 4: anything that isn't STRING or UTF8_STRING is unsupported (the
	// firefox sentinel itself included — it is refused here just like
	// the original implementation refuses it after latching the flag).
	if kind != TargetString && kind != TargetUTF8String {
		return []Action{refuse(r)}
	}

	// 5: a previous request is still being decided by the user.
	if e.menuVisible {
		e.logger.Debug("menu visible, refusing concurrent request")
		return []Action{refuse(r)}
	}

	// 6: second firefox request answers with the previously chosen
	// payload and clears the latch.
	if e.firefox {
		e.firefox = false
		return e.answerRepeat(r, resolve)
	}

	// 7: click mode has a pending user choice waiting to be delivered.
	if e.clickMode && e.choiceKey >= 0 {
		key := e.choiceKey
		e.choiceKey = -1
		e.pending = nil
		return e.answerKey(r, key, resolve)
	}

	// 8: repeat-within-window answers identically to the previous
	// request, whatever that was (send or refusal).
	if e.lastAnswer.valid && e.clock.Now().Sub(e.lastServedAt) <= e.shortInterval {
		e.logger.Debug("short interval, repeating previous answer")
		return e.answerRepeat(r, resolve)
	}

	// 9: nothing else applies — store the request and ask the
	// controller to open the menu. In click mode we also refuse this
	// instance immediately; the real answer will ride a fresh request
	// provoked by the synthetic middle click (spec §4.4).
	req := r
	e.pending = &req
	if e.clickMode {
		return []Action{refuse(r), openMenu()}
	}
	return []Action{openMenu()}
}

// Answer is called by the controller once the user has made a choice (or
// declined, key == -1) for the currently PendingRequest, in non-click
// mode or when click mode's synthetic middle click fails. It answers the
// stored request directly instead of waiting for a fresh one.
func (e *Engine) Answer(key int, resolve PayloadFunc) []Action {
	req := e.pending
	if req == nil {
		return nil
	}
	r := *req
	e.pending = nil
	return e.answerKey(r, key, resolve)
}

// AnswerDirect answers a request that never went through
// HandleSelectionRequest at all — used for the -f fabricated request of
// spec §4.4, where the menu was opened by a hotkey rather than a real
// pasting client.
func (e *Engine) AnswerDirect(r Request, key int, resolve PayloadFunc) []Action {
	return e.answerKey(r, key, resolve)
}

func (e *Engine) answerKey(r Request, key int, resolve PayloadFunc) []Action {
	if key < 0 {
		e.recordAnswer(lastAnswer{valid: true, refused: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, key: -1})
		return []Action{refuse(r)}
	}

	payload, ok := resolve(key)
	if !ok {
		e.recordAnswer(lastAnswer{valid: true, refused: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, key: -1})
		return []Action{refuse(r)}
	}

	if act, ok := e.staleOrSend(r, payload); ok {
		e.recordAnswer(lastAnswer{valid: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, payload: payload, key: key})
		return []Action{act}
	}
	e.recordAnswer(lastAnswer{valid: true, refused: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, key: -1})
	return []Action{refuse(r)}
}

// answerRepeat re-sends whatever the previous answer was (send or
// refusal) for a new request r, used by rules 6 and 8.
func (e *Engine) answerRepeat(r Request, resolve PayloadFunc) []Action {
	if !e.lastAnswer.valid || e.lastAnswer.refused {
		e.recordAnswer(lastAnswer{valid: true, refused: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, key: -1})
		return []Action{refuse(r)}
	}

	payload := e.lastAnswer.payload
	if act, ok := e.staleOrSend(r, payload); ok {
		e.recordAnswer(lastAnswer{valid: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, payload: payload, key: e.lastAnswer.key})
		return []Action{act}
	}
	e.recordAnswer(lastAnswer{valid: true, refused: true, requestor: r.Requestor, selection: r.Selection, target: r.Target, key: -1})
	return []Action{refuse(r)}
}

// staleOrSend builds a send action unless r's timestamp predates our
// ownership (spec §4.2.3); returns ok=false on staleness.
func (e *Engine) staleOrSend(r Request, payload []byte) (Action, bool) {
	if e.stale(r) {
		e.logger.Debug("request predates ownership, refusing", "time", r.Time, "since", e.ownership.Since)
		return Action{}, false
	}
	return sendString(r, e.atoms, payload), true
}

// stale implements spec §4.2.3: "If R.time != CurrentTime and R.time <
// OwnershipState.since, refuse instead." CurrentTime is always valid
// (spec §9, open question 3) — this matters for the -f fabricated
// request, whose time is never set.
func (e *Engine) stale(r Request) bool {
	return r.Time != TimeCurrent && r.Time < e.ownership.Since
}

func (e *Engine) recordAnswer(a lastAnswer) {
	e.lastAnswer = a
	e.lastServedAt = e.clock.Now()
}

// LastServedAt exposes the monotonic bookkeeping timestamp for tests
// asserting the "monotonically non-decreasing" invariant of spec §8.
func (e *Engine) LastServedAt() time.Time {
	return e.lastServedAt
}
