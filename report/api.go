package report

import (
	"fmt"
	"os"
	"time"
)

// AnyErrors returns whether or not any errors were reported.
func AnyErrors() bool {
	return rep.isErr
}

// -----------------------------------------------------------------------------
// NOTE: All report functions will only display if the appropriate log level is
// set.  Most report functions will simply fail silently if below their
// appropriate log level.

// ReportError reports an error returned by the compiler.  Compile errors are
// displayed with their kind and the offending construct.
func ReportError(err error) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.isErr = true

	if rep.logLevel > LogLevelSilent {
		displayEndPhase(false)
		displayError(err)
	}
}

// ReportWarning reports a warning message.
func ReportWarning(message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	rep.warnCount++

	if rep.logLevel >= LogLevelWarn {
		displayWarning(fmt.Sprintf(message, args...))
	}
}

// ReportInfo reports an informational message.  It is only displayed at the
// verbose log level.
func ReportInfo(tag, message string, args ...interface{}) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayInfo(tag, fmt.Sprintf(message, args...))
	}
}

// ReportDump displays a dump of an intermediate artifact such as the printed IR
// of a function or its LLVM module.
func ReportDump(title, content string) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayDump(title, content)
	}
}

// ReportICE reports an internal compiler error.  These are errors that result
// from a bug in the compiler: they are not intended to ever happen.  These
// errors are always displayed regardless of log level.
func ReportICE(message string, args ...interface{}) {
	rep.m.Lock()
	defer rep.m.Unlock()

	displayEndPhase(false)
	displayICE(fmt.Sprintf(message, args...))
}

// ReportFatal reports a fatal error and exits the program.  These are expected
// errors that generally result from invalid configuration: missing tools, bad
// arguments, unreadable files.
func ReportFatal(message string, args ...interface{}) {
	if rep.logLevel > LogLevelSilent {
		rep.m.Lock()
		displayEndPhase(false)
		displayFatal(fmt.Sprintf(message, args...))
		rep.m.Unlock()
	}

	os.Exit(1)
}

// -----------------------------------------------------------------------------
// Below are the progress reporting functions which only run at the verbose log
// level.

// BeginPhase reports the beginning of a compilation phase.
func BeginPhase(phase string) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayBeginPhase(phase)
	}
}

// EndPhase reports the end of the current compilation phase.
func EndPhase(success bool) {
	if rep.logLevel == LogLevelVerbose {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayEndPhase(success)
	}
}

// ReportFinished reports the concluding message for a command.
func ReportFinished() {
	if rep.logLevel >= LogLevelError {
		rep.m.Lock()
		defer rep.m.Unlock()

		displayFinished(!rep.isErr, rep.warnCount, time.Since(rep.startTime))
	}
}
