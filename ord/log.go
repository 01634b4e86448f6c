package ord

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger. It is a no-op sink until
// the caller installs a real backend with UseLogger, following the
// convention used throughout the btcsuite ecosystem.
var log = btclog.Disabled

// UseLogger sets the subsystem logger used by the ord package. No code
// in the package writes to log, so the planner emits no log output
// whichever logger is installed.
func UseLogger(logger btclog.Logger) {
	log = logger
}
