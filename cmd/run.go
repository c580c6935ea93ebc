package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/grafana/sobek"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/olilarkin/windowjs/js"
	"github.com/olilarkin/windowjs/js/eventloop"
)

//nolint:gochecknoglobals
var errorColor = color.New(color.FgRed, color.Bold)

func (c *rootCommand) getRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <module>",
		Short: "Run a module",
		Long: `Run loads the given module, together with everything it imports,
and evaluates it. The module name is resolved against the base directory.

The embedded bundles can be run by name, behind a flag terminator:

  windowjs run -- --welcome`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := getConsolidatedConfig(afero.NewOsFs(), cmd.Flags(), c.configFilePath)
			if err != nil {
				return err
			}
			return runMainModule(c.logger, conf, args[0])
		},
	}
	runCmd.Flags().String("base-dir", ".", "directory module names are resolved against")
	return runCmd
}

func runMainModule(logger *logrus.Logger, conf Config, name string) error {
	baseDir, err := filepath.Abs(conf.BaseDir.String)
	if err != nil {
		return err
	}

	rt := sobek.New()
	loop := eventloop.New(rt)
	delegate := &cliDelegate{logger: logger}

	host, err := js.New(js.Config{
		Runtime:  rt,
		Delegate: delegate,
		BaseDir:  filepath.ToSlash(baseDir),
		FS:       afero.NewOsFs(),
		Tasks:    loopTasks{loop: loop},
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	err = loop.Start(func() error {
		host.LoadMainModule(name)
		return nil
	})
	loop.WaitOnRegistered()
	if err != nil {
		return ExitCode{error: err, Code: 1}
	}

	if n := delegate.exceptions; n > 0 {
		return ExitCode{
			error: fmt.Errorf("%d uncaught script error(s), see the output above", n),
			Code:  1,
		}
	}
	return nil
}

// loopTasks posts host tasks as event loop callbacks: a registered callback
// keeps the loop alive exactly as long as a deferred load is outstanding.
type loopTasks struct {
	loop *eventloop.EventLoop
}

func (lt loopTasks) Post(task func()) {
	enqueue := lt.loop.RegisterCallback()
	enqueue(func() error {
		task()
		return nil
	})
}

// cliDelegate renders host notifications for a terminal session.
type cliDelegate struct {
	logger     logrus.FieldLogger
	exceptions int
}

func (d *cliDelegate) OnMainModuleLoaded() {
	d.logger.Debug("main module loaded")
}

func (d *cliDelegate) OnJavascriptException(msg string, frames []js.StackFrame) {
	d.exceptions++
	errorColor.Fprintln(os.Stderr, msg)
	for _, frame := range frames {
		fmt.Fprintf(os.Stderr, "    at %s (%s:%d)\n", frame.Function, frame.File, frame.Line)
	}
}

var _ js.Delegate = (*cliDelegate)(nil)
