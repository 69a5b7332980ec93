package uthread

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// Logger is the package-level structured logger. Scheduler start-up (with
// the selected policy) and shutdown are logged at Info; thread creation and
// exit, context switches and applied preemptions are logged at Debug;
// detected invariant corruption is logged at Error, with its message,
// immediately before the library panics.
var Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05.000"}).
	With().Timestamp().Logger().
	Level(zerolog.InfoLevel)

// SetLogLevel adjusts the package logger's verbosity. Tests and callers
// that want to see scheduling decisions set zerolog.DebugLevel or
// zerolog.TraceLevel.
func SetLogLevel(level zerolog.Level) {
	Logger = Logger.Level(level)
}

// invariant logs a corruption at Error and panics; used only for states
// the design treats as impossible (double-free, corrupt queue linkage),
// matching spec §7's "assertion failures abort the process."
func invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	Logger.Error().Msg(msg)
	panic(msg)
}
