package js

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadTraceAnnotate(t *testing.T) {
	t.Parallel()
	trace := &loadTrace{base: "/scripts"}
	trace.push("/scripts/main.js")
	trace.push("/scripts/sub/a.js")
	trace.push("/scripts/missing.js")

	cause := errors.New("open /scripts/missing.js: file does not exist")
	err := trace.annotate(cause)

	require.Equal(t,
		"open /scripts/missing.js: file does not exist\n"+
			"    loading missing.js\n"+
			"       from sub/a.js\n"+
			"       from main.js\n",
		err.Error())
	require.ErrorIs(t, err, cause)
}

func TestLoadTracePop(t *testing.T) {
	t.Parallel()
	trace := &loadTrace{base: "/scripts"}
	trace.push("/scripts/main.js")
	trace.push("/scripts/a.js")
	trace.pop()
	trace.push("/scripts/b.js")

	err := trace.annotate(errors.New("x"))
	require.Equal(t, "x\n    loading b.js\n       from main.js\n", err.Error())
}

func TestLoadTraceKeepsForeignPaths(t *testing.T) {
	t.Parallel()
	trace := &loadTrace{base: "/scripts"}
	trace.push("--console")

	err := trace.annotate(errors.New("x"))
	require.Equal(t, "x\n    loading --console\n", err.Error())
}

func TestLoadTraceEmptyChain(t *testing.T) {
	t.Parallel()
	trace := &loadTrace{base: "/scripts"}
	cause := errors.New("x")
	require.Same(t, cause, trace.annotate(cause))
}
