package cmd

import (
	"fmt"
	"io"
	stdlog "log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

//nolint:gochecknoglobals
var stderrTTY = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())

// This is to keep all fields needed for the main/root windowjs command.
type rootCommand struct {
	logger         *logrus.Logger
	cmd            *cobra.Command
	verbose        bool
	noColor        bool
	logOutput      string
	logFmt         string
	configFilePath string
}

func newRootCommand(logger *logrus.Logger) *rootCommand {
	c := &rootCommand{
		logger: logger,
	}
	// the base command when called without any subcommands.
	c.cmd = &cobra.Command{
		Use:           "windowjs",
		Short:         "a scripting host for ES modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	c.cmd.PersistentFlags().AddFlagSet(c.rootCmdPersistentFlagSet())
	return c
}

func (c *rootCommand) setup(cmd *cobra.Command) error {
	if !cmd.Flags().Changed("log-output") {
		if envLogOutput, ok := os.LookupEnv("WINDOWJS_LOG_OUTPUT"); ok {
			c.logOutput = envLogOutput
		}
	}
	if c.noColor {
		color.NoColor = true
	}
	if err := c.setupLoggers(); err != nil {
		return err
	}
	stdlog.SetOutput(c.logger.Writer())
	return nil
}

func (c *rootCommand) rootCmdPersistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&c.logOutput, "log-output", "stderr",
		"change the output for logs, possible values are stderr,stdout,none")
	flags.StringVar(&c.logFmt, "logformat", "", "log output format, possible values are text,json,raw")
	flags.StringVarP(&c.configFilePath, "config", "c", os.Getenv("WINDOWJS_CONFIG"), "JSON config file")
	must(cobra.MarkFlagFilename(flags, "config"))
	return flags
}

func (c *rootCommand) setupLoggers() error {
	if c.verbose {
		c.logger.SetLevel(logrus.DebugLevel)
	}

	switch c.logOutput {
	case "stderr":
		c.logger.SetOutput(os.Stderr)
	case "stdout":
		c.logger.SetOutput(os.Stdout)
	case "none":
		c.logger.SetOutput(io.Discard)
	default:
		return fmt.Errorf("unsupported log output `%s`", c.logOutput)
	}

	switch c.logFmt {
	case "raw":
		c.logger.SetFormatter(&RawFormatter{})
		c.logger.Debug("Logger format: RAW")
	case "json":
		c.logger.SetFormatter(&logrus.JSONFormatter{})
		c.logger.Debug("Logger format: JSON")
	case "", "text":
		c.logger.SetFormatter(&logrus.TextFormatter{ForceColors: stderrTTY, DisableColors: c.noColor})
		c.logger.Debug("Logger format: TEXT")
	default:
		return fmt.Errorf("unsupported log format `%s`", c.logFmt)
	}
	return nil
}

// RawFormatter does nothing with the message, it just prints it.
type RawFormatter struct{}

// Format renders a single log entry.
func (f RawFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

// Execute adds all child commands to the root command, sets flags
// appropriately and runs it. This is called by main.main() and only needs to
// happen once.
func Execute() {
	logger := &logrus.Logger{
		Out:       os.Stderr,
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.InfoLevel,
	}

	c := newRootCommand(logger)
	c.cmd.AddCommand(
		c.getRunCmd(),
		c.getReplCmd(),
		getVersionCmd(),
	)

	if err := c.cmd.Execute(); err != nil {
		code := -1
		if e, ok := err.(ExitCode); ok { //nolint:errorlint
			code = e.Code
		}
		logger.Error(err)
		os.Exit(code)
	}
}
