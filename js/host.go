// Package js implements the ES module host: loading and compiling module
// graphs, static and dynamic import resolution, and evaluation on top of a
// sobek runtime.
package js

import (
	"errors"
	"path"
	"sync"

	"github.com/grafana/sobek"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/olilarkin/windowjs/js/compiler"
	"github.com/olilarkin/windowjs/loader"
)

// consoleResourceName is the resource name of scripts executed through
// ExecuteScript. Dynamic imports issued from such scripts resolve against
// the host's base directory.
const consoleResourceName = "<console>"

// A StackFrame is one entry of a script stack trace reported to the
// Delegate.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Delegate receives host lifecycle notifications. Notifications are
// delivered on the host's thread while it holds its internal lock, so a
// delegate must not call back into the Host.
type Delegate interface {
	// OnMainModuleLoaded is called exactly once per LoadMainModule attempt,
	// once the attempt has finished, whether or not it succeeded.
	OnMainModuleLoaded()
	// OnJavascriptException is called for every uncaught script error, with
	// a message and any stack frames that could be recovered. frames may be
	// empty.
	OnJavascriptException(msg string, frames []StackFrame)
}

// TaskQueue runs units of work at a later point, in FIFO order, on the same
// logical thread the host runs on. Deferred dynamic import loads are posted
// to it.
type TaskQueue interface {
	Post(task func())
}

// Config holds everything a Host needs. Delegate, FS and Tasks are
// mandatory.
type Config struct {
	// Runtime to run on. A new one is created when nil.
	Runtime  *sobek.Runtime
	Delegate Delegate
	// BaseDir is the directory main module names and console-issued dynamic
	// imports are resolved against. Diagnostics render paths relative to it.
	BaseDir string
	FS      afero.Fs
	Tasks   TaskQueue
	// Logger receives console output and host warnings. Defaults to the
	// standard logrus logger.
	Logger logrus.FieldLogger
}

// Host owns a sobek runtime and the graph of modules loaded into it.
//
// All exported methods serialize on an internal lock, mirroring the
// single-threaded cooperative model of the engine: exactly one of the
// initial load, a console script, or a deferred dynamic import load runs at
// a time.
type Host struct {
	mx sync.Mutex

	rt       *sobek.Runtime
	delegate Delegate
	baseDir  string
	fs       afero.Fs
	tasks    TaskQueue
	logger   logrus.FieldLogger
	compiler *compiler.Compiler

	// modules and modulePaths are the module registry: one compiled record
	// per canonical path, for the lifetime of the host, and the reverse
	// mapping used to resolve a referrer back to its path. They are only
	// ever updated together.
	modules     map[string]sobek.ModuleRecord
	modulePaths map[sobek.ModuleRecord]string

	// imports tracks in-flight dynamic imports by canonical path.
	imports map[string]*pendingImport
}

// New returns a new Host. The runtime must not be used concurrently with
// the host by anything else.
func New(cfg Config) (*Host, error) {
	switch {
	case cfg.Delegate == nil:
		return nil, errors.New("js: Config.Delegate is required")
	case cfg.FS == nil:
		return nil, errors.New("js: Config.FS is required")
	case cfg.Tasks == nil:
		return nil, errors.New("js: Config.Tasks is required")
	}

	rt := cfg.Runtime
	if rt == nil {
		rt = sobek.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	h := &Host{
		rt:          rt,
		delegate:    cfg.Delegate,
		baseDir:     path.Clean(cfg.BaseDir),
		fs:          cfg.FS,
		tasks:       cfg.Tasks,
		logger:      logger,
		compiler:    compiler.New(logger),
		modules:     make(map[string]sobek.ModuleRecord),
		modulePaths: make(map[sobek.ModuleRecord]string),
		imports:     make(map[string]*pendingImport),
	}
	h.compiler.Options.SourceMapLoader = h.loadSourceMap

	rt.SetImportModuleDynamically(h.importModuleDynamically)
	if err := h.setupConsole(); err != nil {
		return nil, err
	}
	return h, nil
}

// Runtime returns the underlying runtime. It must only be used on the
// host's thread, between host operations.
func (h *Host) Runtime() *sobek.Runtime {
	return h.rt
}

// LoadMainModule loads, instantiates and evaluates the module identified by
// name, together with everything it imports. Bundle names ("--console",
// "--welcome") bypass the filesystem; an absolute name is used as is and any
// other name is resolved against the host's base directory. The delegate is
// notified that the load attempt finished exactly once, success or failure.
func (h *Host) LoadMainModule(name string) {
	h.mx.Lock()
	defer h.mx.Unlock()

	p := name
	switch {
	case loader.IsBundle(name):
	case path.IsAbs(name):
		p = path.Clean(name)
	default:
		p = path.Join(h.baseDir, name)
	}

	if _, err := h.loadAndRun(p, true); err != nil {
		h.reportError(err)
		h.delegate.OnMainModuleLoaded()
	}
}

// ExecuteScript compiles and runs source as a classic script under the
// "<console>" resource name and returns its result rendered as a string.
// Script errors are reported to the delegate and yield ok == false.
func (h *Host) ExecuteScript(source string) (result string, ok bool) {
	h.mx.Lock()
	defer h.mx.Unlock()

	prg, err := h.compiler.CompileScript(source, consoleResourceName)
	if err != nil {
		h.reportError(err)
		return "", false
	}

	value, err := h.rt.RunProgram(prg)
	if err != nil {
		h.reportError(err)
		return "", false
	}
	return renderValue(value), true
}

// loadSourceMap reads source maps referenced by loaded modules, relative to
// the base directory when the reference isn't absolute.
func (h *Host) loadSourceMap(name string) ([]byte, error) {
	if !path.IsAbs(name) {
		name = path.Join(h.baseDir, name)
	}
	return afero.ReadFile(h.fs, name)
}

// renderValue renders a script result for the interactive console.
func renderValue(value sobek.Value) (result string) {
	if value == nil {
		return "undefined"
	}
	if obj, ok := value.(*sobek.Object); ok {
		if tag := obj.GetSymbol(sobek.SymToStringTag); tag != nil && tag.String() == "Module" {
			return "[Module]"
		}
	}
	// String() panics on values with no usable toString, e.g. objects with a
	// null prototype.
	defer func() {
		if recover() != nil {
			result = "[object]"
		}
	}()
	return value.String()
}
