// =============================================================================
// ecvt-build - Error Taxonomy
// =============================================================================
//
// Every fatal condition of a build run is one of four kinds:
//
//   Configuration : build settings or parameter file missing, unreadable,
//                   malformed, or failing validation
//   ToolNotFound  : no OpenSCAD executable could be launched
//   Filesystem    : the build tree could not be removed or created
//   BuildUnit     : OpenSCAD failed for a (parameter set, part) pair
//
// Only the tool locator recovers from errors (a candidate that cannot be
// launched is skipped). Everything else propagates to the CLI, which prints
// the message and exits with the kind's exit code.
//
// =============================================================================

package builderr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a fatal build error.
type Kind string

const (
	KindConfiguration Kind = "CONFIGURATION"
	KindToolNotFound  Kind = "TOOL_NOT_FOUND"
	KindFilesystem    Kind = "FILESYSTEM"
	KindBuildUnit     Kind = "BUILD_UNIT"
)

// exitCodes maps each kind to the process exit status used by the CLI.
var exitCodes = map[Kind]int{
	KindConfiguration: 2,
	KindToolNotFound:  3,
	KindFilesystem:    4,
	KindBuildUnit:     5,
}

// Error is a classified build error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Context map[string]any
}

// New creates an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap classifies err. It returns nil when err is nil.
func Wrap(err error, kind Kind, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// WithContext attaches a key/value pair that is rendered after the message.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, e.Context[k])
		}
		sb.WriteString(")")
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err,
// &Error{Kind: KindBuildUnit}) works as a kind check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// ExitCode returns the process exit status for err: 0 for nil, the kind's
// code for classified errors, and 1 for anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[KindOf(err)]; ok {
		return code
	}
	return 1
}
