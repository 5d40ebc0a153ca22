package app

import (
	"log/slog"

	"github.com/coreos/go-systemd/v22/daemon"
)

// sdNotify reports a state change to systemd. Outside a notify-type unit
// NOTIFY_SOCKET is unset and this is a no-op.
func sdNotify(logger *slog.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logger.Warn("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		logger.Debug("sd_notify sent", "state", state)
	}
}
