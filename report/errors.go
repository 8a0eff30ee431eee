package report

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a compiler error.  A caller uses the kind to tell a
// program bug (check, backend) from an environment or runtime condition (jit,
// marshal) from a misuse of the compilation API (lifecycle).
type ErrorKind int

// Enumeration of error kinds.
const (
	CheckError ErrorKind = iota
	BackendError
	JITError
	MarshalError
	LifecycleError
)

func (k ErrorKind) String() string {
	switch k {
	case CheckError:
		return "check"
	case BackendError:
		return "backend"
	case JITError:
		return "jit"
	case MarshalError:
		return "marshal"
	default:
		return "lifecycle"
	}
}

// -----------------------------------------------------------------------------

// CompileError is the typed failure returned by every stage of the compiler.
type CompileError struct {
	// The classification of the error.
	Kind ErrorKind

	// The name of the function the error occurred in.  This may be empty if
	// the error is not associated with a function.
	Unit string

	// The offending construct rendered as source text.  May be empty.
	Construct string

	// The error message.
	Message string

	// The underlying error if this error wraps one.
	cause error
}

func (ce *CompileError) Error() string {
	var msg string
	if ce.Unit == "" {
		msg = fmt.Sprintf("%s error: %s", ce.Kind, ce.Message)
	} else {
		msg = fmt.Sprintf("%s error in %s: %s", ce.Kind, ce.Unit, ce.Message)
	}

	if ce.Construct != "" {
		msg += fmt.Sprintf(" (at `%s`)", ce.Construct)
	}

	if ce.cause != nil {
		msg += ": " + ce.cause.Error()
	}

	return msg
}

// Unwrap returns the wrapped error, if any.
func (ce *CompileError) Unwrap() error {
	return ce.cause
}

// Raise creates a new compile error of the given kind.  The construct is the
// rendered text of the offending node and may be empty.
func Raise(kind ErrorKind, construct string, msg string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Construct: construct, Message: fmt.Sprintf(msg, args...)}
}

// Wrap creates a compile error of the given kind around an underlying error.
func Wrap(kind ErrorKind, cause error, msg string, args ...interface{}) *CompileError {
	return &CompileError{Kind: kind, Message: fmt.Sprintf(msg, args...), cause: cause}
}

// InUnit attaches a unit name to err if it is a compile error without one.
// Other errors are wrapped with the unit name as context.
func InUnit(err error, unit string) error {
	if err == nil {
		return nil
	}

	var ce *CompileError
	if errors.As(err, &ce) {
		if ce.Unit == "" {
			ce.Unit = unit
		}

		return err
	}

	return errors.WithMessagef(err, "in %s", unit)
}

// KindOf returns the kind of the first compile error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}

	return 0, false
}

// IsKind returns whether err is (or wraps) a compile error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// -----------------------------------------------------------------------------

// CatchErrors converts a compile error thrown by `panic` during a stage of
// compilation into a returned error stored in errp.  Any other panic value is
// an internal compiler error and continues to unwind.
// NB: This function must ALWAYS be deferred.
func CatchErrors(errp *error) {
	if x := recover(); x != nil {
		if cerr, ok := x.(*CompileError); ok {
			*errp = cerr
			return
		}

		ReportICE("%v", x)
		panic(x)
	}
}
