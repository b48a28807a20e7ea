package override

// Code is a machine-readable failure reason.
type Code string

const (
	CodeClassification     Code = "classification"
	CodeInvalidPerspective Code = "invalid_perspective"
	CodeInvalidPath        Code = "invalid_path"
	CodeInvalidSubject     Code = "invalid_subject"
)

// Error is returned by every registry mutation that was rejected.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so callers can test against the sentinels below.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	ErrClassification     = &Error{Code: CodeClassification, Message: "clip could not be classified"}
	ErrInvalidPerspective = &Error{Code: CodeInvalidPerspective, Message: "first person overrides are limited to the primary subject"}
	ErrInvalidPath        = &Error{Code: CodeInvalidPath, Message: "invalid clip path"}
	ErrInvalidSubject     = &Error{Code: CodeInvalidSubject, Message: "invalid subject"}
)

func newError(code Code, message string, metadata map[string]string, cause error) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata, Cause: cause}
}
