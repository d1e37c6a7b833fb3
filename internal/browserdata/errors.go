package browserdata

import "fmt"

// Error is a configuration problem reported to users as is: a malformed
// query, an unknown browser, version, region or environment, or a config or
// stats file that cannot be read.
type Error struct {
	Message string
	Err     error
}

func newError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
