package cmd

import (
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"
)

// ExitCode is an error that also carries the process exit code.
type ExitCode struct {
	error
	Code int
}

// Panic if the given error is not nil.
func must(err error) {
	if err != nil {
		panic(err)
	}
}

func getNullBool(flags *pflag.FlagSet, key string) null.Bool {
	if flags.Lookup(key) == nil {
		return null.Bool{}
	}
	v, err := flags.GetBool(key)
	if err != nil {
		panic(err)
	}
	return null.NewBool(v, flags.Changed(key))
}

func getNullString(flags *pflag.FlagSet, key string) null.String {
	if flags.Lookup(key) == nil {
		return null.String{}
	}
	v, err := flags.GetString(key)
	if err != nil {
		panic(err)
	}
	return null.NewString(v, flags.Changed(key))
}
