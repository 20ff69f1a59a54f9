package errors

import (
	stderrors "errors"
	"fmt"
)

// fundamental is an error with a message and a stack, but no cause.
type fundamental struct {
	msg string
	*stack
}

func (f *fundamental) Error() string { return f.msg }

type withMessage struct {
	cause error
	msg   string
	*stack
}

func (w *withMessage) Error() string { return w.msg + ": " + w.cause.Error() }
func (w *withMessage) Unwrap() error { return w.cause }

type withStack struct {
	cause error
	*stack
}

func (w *withStack) Error() string { return w.cause.Error() }
func (w *withStack) Unwrap() error { return w.cause }

// New returns an error with the supplied message, annotated with the
// stack at the point New was called.
func New(message string) error {
	return &fundamental{msg: message, stack: callers()}
}

// Errorf formats according to a format specifier and returns the string
// as an error annotated with a stack.
func Errorf(format string, args ...interface{}) error {
	return &fundamental{msg: fmt.Sprintf(format, args...), stack: callers()}
}

// Wrap returns an error annotating err with a stack and the supplied
// message. Returns nil when err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &withMessage{cause: err, msg: message, stack: callers()}
}

// Wrapf works as Wrap with a format specifier.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &withMessage{cause: err, msg: fmt.Sprintf(format, args...), stack: callers()}
}

// WithStack annotates err with a stack at the point WithStack was called.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &withStack{cause: err, stack: callers()}
}

// NewWithReport builds the error as New does and sends it to the
// registered reporters.
func NewWithReport(message string) error {
	err := &fundamental{msg: message, stack: callers()}
	report(err)
	return err
}

// ErrorfAndReport builds the error as Errorf does and sends it to the
// registered reporters.
func ErrorfAndReport(format string, args ...interface{}) error {
	err := &fundamental{msg: fmt.Sprintf(format, args...), stack: callers()}
	report(err)
	return err
}

// WrapAndReport wraps err and sends the wrapped error to the registered
// reporters. Returns nil when err is nil.
func WrapAndReport(err error, message string) error {
	if err == nil {
		return nil
	}
	wrapped := &withMessage{cause: err, msg: message, stack: callers()}
	report(wrapped)
	return wrapped
}

// WrapfAndReport works as WrapAndReport with a format specifier.
func WrapfAndReport(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	wrapped := &withMessage{cause: err, msg: fmt.Sprintf(format, args...), stack: callers()}
	report(wrapped)
	return wrapped
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// Unwrap returns the result of calling the Unwrap method on err.
func Unwrap(err error) error { return stderrors.Unwrap(err) }
