package report

import (
	"sync"
	"time"
)

// reporter is the global state used to display compiler output.
type reporter struct {
	// The log level the reporter displays at.
	logLevel int

	// Whether any errors have been reported.
	isErr bool

	// The number of warnings that have been reported.
	warnCount int

	// The mutex used to synchronize output.
	m *sync.Mutex

	// The time at which the reporter was initialized.
	startTime time.Time
}

// rep is the global reporter.  It starts out silent so that the compiler can
// be used as a library without producing console output.
var rep = reporter{logLevel: LogLevelSilent, m: &sync.Mutex{}, startTime: time.Now()}

// Enumeration of the different log levels.
const (
	LogLevelSilent  = iota // no output at all
	LogLevelError          // only errors
	LogLevelWarn           // errors and warnings
	LogLevelVerbose        // errors, warnings, phases, dumps
)

// InitReporter initializes the global reporter with the provided log level.
func InitReporter(logLevel int) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.logLevel = logLevel
	rep.isErr = false
	rep.warnCount = 0
	rep.startTime = time.Now()
}

// LogLevelFromName converts a log level name into its log level.  The boolean
// indicates whether the name was valid.
func LogLevelFromName(name string) (int, bool) {
	switch name {
	case "silent":
		return LogLevelSilent, true
	case "error":
		return LogLevelError, true
	case "warn", "warning":
		return LogLevelWarn, true
	case "verbose":
		return LogLevelVerbose, true
	}

	return LogLevelVerbose, false
}

// LogLevel returns the current log level.
func LogLevel() int {
	return rep.logLevel
}
