package js

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStackFrames(t *testing.T) {
	t.Parallel()
	stack := "Error: boom\n" +
		"\tat fail (/scripts/util.js:4:9(3))\n" +
		"\tat run (/scripts/util.js:8:2(7))\n" +
		"\tat /scripts/main.js:2:1(5)\n"

	frames := parseStackFrames(stack)
	require.Equal(t, []StackFrame{
		{Function: "fail", File: "/scripts/util.js", Line: 4},
		{Function: "run", File: "/scripts/util.js", Line: 8},
		{Function: "<top>", File: "/scripts/main.js", Line: 2},
	}, frames)
}

func TestParseStackFramesSkipsUnparseableLines(t *testing.T) {
	t.Parallel()
	require.Nil(t, parseStackFrames("TypeError: nope"))
	require.Nil(t, parseStackFrames(""))

	frames := parseStackFrames("Error\n\tat f (/a.js:1:1)\ngarbage line\n")
	require.Equal(t, []StackFrame{{Function: "f", File: "/a.js", Line: 1}}, frames)
}

func TestUncaughtExceptionCarriesFrames(t *testing.T) {
	t.Parallel()
	th := newTestHost(t, map[string]string{
		"/scripts/main.js": `
			function boom() { throw new Error("kaput"); }
			boom();
		`,
	})
	th.host.LoadMainModule("main.js")

	require.Len(t, th.delegate.exceptions, 1)
	require.Contains(t, th.delegate.exceptions[0], "kaput")
	require.Len(t, th.delegate.frames, 1)
	require.NotEmpty(t, th.delegate.frames[0])

	frame := th.delegate.frames[0][0]
	require.Equal(t, "boom", frame.Function)
	require.Contains(t, frame.File, "main.js")
}
