package errs

import (
	"errors"
	"fmt"
	"strings"
)

// CustomError carries a message, optional key/value arguments and a wrapped
// cause. Formats as "{msg: <message>, args: <args>, wrappedError: {...}}".
type CustomError struct {
	message string
	args    map[string]interface{}
	wrapped error
}

func New(message string) *CustomError {
	return &CustomError{
		message: message,
		args:    make(map[string]interface{}),
	}
}

func (e *CustomError) Error() string {
	return e.fullErrorString()
}

// Arg attaches a key/value pair to the error.
func (e *CustomError) Arg(key string, value interface{}) *CustomError {
	e.args[key] = value
	return e
}

// Wrap records err as the cause.
func (e *CustomError) Wrap(err error) *CustomError {
	if err != nil {
		e.wrapped = err
	}
	return e
}

func (e *CustomError) Unwrap() error {
	return e.wrapped
}

func (e *CustomError) fullErrorString() string {
	var builder strings.Builder

	builder.WriteString("{msg: ")
	builder.WriteString(e.message)

	if len(e.args) > 0 {
		builder.WriteString(fmt.Sprintf(", args: %v", e.args))
	}

	if e.wrapped != nil {
		wrappedErr := &CustomError{}
		if errors.As(e.wrapped, &wrappedErr) {
			builder.WriteString(fmt.Sprintf(", wrappedError: %s", wrappedErr.fullErrorString()))
		} else {
			builder.WriteString(fmt.Sprintf(", wrappedError: {%v}", e.wrapped.Error()))
		}
	}

	builder.WriteString("}")

	return builder.String()
}
