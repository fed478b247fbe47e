// Package helper invokes the optional external paste helper configured
// with -e PROG (spec §6.3): a probe call that decides whether the
// helper wants to handle this paste, followed by the actual action call.
package helper

import (
	"fmt"
	"log/slog"
	"os/exec"
)

// Helper wraps the configured external program, or is a no-op when prog
// is empty (the -e flag was not given).
type Helper struct {
	prog   string
	logger *slog.Logger
}

// New returns a Helper for prog. An empty prog makes every call to
// Handle a no-op, per spec §6.3 ("If probe returns non-zero, normal X
// send proceeds").
func New(prog string, logger *slog.Logger) *Helper {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Helper{prog: prog, logger: logger}
}

// Enabled reports whether an external helper was configured at all.
func (h *Helper) Enabled() bool {
	return h.prog != ""
}

// Handle runs `PROG test REQUESTOR_HEX PAYLOAD`; if that exits 0, it
// then runs `PROG paste REQUESTOR_HEX PAYLOAD` and reports handled=true
// so the caller skips the normal X send path. Any probe failure —
// nonzero exit, program not found — means handled=false and the caller
// proceeds with the ordinary SelectionNotify reply.
func (h *Helper) Handle(requestorHex string, payload []byte) (handled bool) {
	if !h.Enabled() {
		return false
	}

	probe := exec.Command(h.prog, "test", requestorHex, string(payload))
	if err := probe.Run(); err != nil {
		h.logger.Debug("external helper declined paste", "requestor", requestorHex, "error", err)
		return false
	}

	action := exec.Command(h.prog, "paste", requestorHex, string(payload))
	if out, err := action.CombinedOutput(); err != nil {
		h.logger.Warn("external helper paste action failed", "requestor", requestorHex, "error", err, "output", string(out))
		return false
	}

	h.logger.Debug("external helper handled paste", "requestor", requestorHex)
	return true
}

// FormatRequestor formats an X window id the way the helper contract
// expects (spec §6.3, REQUESTOR_HEX).
func FormatRequestor(requestor uint32) string {
	return fmt.Sprintf("0x%x", requestor)
}
