package errors

import (
	"fmt"
	"runtime"
	"strings"
)

type stack []uintptr

func callers() *stack {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	var st stack = pcs[0:n]
	return &st
}

// fullStack renders every frame as "file:line funcname", innermost first.
func (s *stack) fullStack() []string {
	frames := runtime.CallersFrames(*s)
	var lines []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			lines = append(lines, fmt.Sprintf("%v:%v %v", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return lines
}

// StackTrace returns the call stack captured with err, or nil when the
// error carries none.
func StackTrace(err error) []string {
	for err != nil {
		if tracer, ok := err.(interface{ fullStack() []string }); ok {
			return tracer.fullStack()
		}
		err = Unwrap(err)
	}
	return nil
}
