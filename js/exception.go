package js

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/grafana/sobek"
)

// stackFrameRe matches one line of a sobek stack trace. Frames come in two
// shapes:
//
//	at funcName (file:line:col(sp))
//	at file:line:col(sp)
//
// sobek doesn't expose an exception's frames as structured data, so this is
// recovered from the rendered stack; anything that doesn't parse is simply
// skipped.
var stackFrameRe = regexp.MustCompile(`^\s*at (?:(.*?) \()?(.*?):(\d+):\d+(?:\(\d+\))?\)?\s*$`)

func parseStackFrames(stack string) []StackFrame {
	var frames []StackFrame
	for _, line := range strings.Split(stack, "\n") {
		m := stackFrameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		function := m[1]
		if function == "" {
			function = "<top>"
		}
		frames = append(frames, StackFrame{
			Function: function,
			File:     m[2],
			Line:     lineNo,
		})
	}
	return frames
}

// reportError reports err to the delegate as an uncaught script error,
// recovering the original thrown value when err carries one.
func (h *Host) reportError(err error) {
	var se *scriptError
	if errors.As(err, &se) {
		h.reportThrown(se.value)
		return
	}
	var ex *sobek.Exception
	if errors.As(err, &ex) {
		h.reportThrown(ex.Value())
		return
	}
	h.delegate.OnJavascriptException(err.Error(), nil)
}

// reportThrown reports a thrown JavaScript value to the delegate, with any
// stack frames recoverable from its "stack" property.
func (h *Host) reportThrown(value sobek.Value) {
	if value == nil {
		h.delegate.OnJavascriptException("undefined", nil)
		return
	}

	var frames []StackFrame
	if obj, ok := value.(*sobek.Object); ok {
		if stack := obj.Get("stack"); stack != nil && !sobek.IsUndefined(stack) {
			frames = parseStackFrames(stack.String())
		}
	}
	h.delegate.OnJavascriptException(renderValue(value), frames)
}
