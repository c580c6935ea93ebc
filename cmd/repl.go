package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/grafana/sobek"
	"github.com/mstoykov/k6-taskqueue-lib/taskqueue"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/olilarkin/windowjs/js"
	"github.com/olilarkin/windowjs/js/eventloop"
	"github.com/olilarkin/windowjs/loader"
)

//nolint:gochecknoglobals
var resultColor = color.New(color.FgCyan)

func (c *rootCommand) getReplCmd() *cobra.Command {
	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive console",
		Long: `Repl starts an interactive console on the current terminal.
Every line is evaluated as a script; modules can still be pulled in
with dynamic import().`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := getConsolidatedConfig(afero.NewOsFs(), cmd.Flags(), c.configFilePath)
			if err != nil {
				return err
			}
			return runRepl(c.logger, conf)
		},
	}
	replCmd.Flags().String("base-dir", ".", "directory dynamic imports are resolved against")
	replCmd.Flags().String("history-file", "", "`path` of the console history file")
	replCmd.Flags().Bool("welcome", true, "print the welcome banner on startup")
	return replCmd
}

func runRepl(logger *logrus.Logger, conf Config) error {
	baseDir, err := filepath.Abs(conf.BaseDir.String)
	if err != nil {
		return err
	}
	historyFile := conf.HistoryFile.String
	if historyFile == "" {
		historyFile = filepath.Join(os.TempDir(), "windowjs_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	rt := sobek.New()
	loop := eventloop.New(rt)
	tq := taskqueue.New(loop.RegisterCallback)
	delegate := &cliDelegate{logger: logger}

	host, err := js.New(js.Config{
		Runtime:  rt,
		Delegate: delegate,
		BaseDir:  filepath.ToSlash(baseDir),
		FS:       afero.NewOsFs(),
		Tasks:    queueTasks{tq: tq},
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	// The readline goroutine only talks to the host through the task queue;
	// closing the queue is what lets the loop finish.
	go func() {
		defer tq.Close()
		for {
			line, err := rl.Readline()
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return
				}
				continue
			}
			if err != nil { // io.EOF
				return
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			tq.Queue(func() error {
				if result, ok := host.ExecuteScript(line); ok {
					resultColor.Fprintln(rl.Stdout(), result)
				}
				return nil
			})
		}
	}()

	return loop.Start(func() error {
		if conf.Welcome.Bool {
			host.LoadMainModule(loader.BundleWelcome)
		}
		return nil
	})
}

// queueTasks posts host tasks through a taskqueue, so that deferred loads
// triggered from console scripts run interleaved with console input.
type queueTasks struct {
	tq *taskqueue.TaskQueue
}

func (qt queueTasks) Post(task func()) {
	qt.tq.Queue(func() error {
		task()
		return nil
	})
}
