// Package compiler parses JavaScript sources into sobek programs for the
// host: ES modules for the module graph and classic scripts for the console.
package compiler

import (
	"github.com/go-sourcemap/sourcemap"
	"github.com/grafana/sobek"
	"github.com/grafana/sobek/ast"
	"github.com/grafana/sobek/parser"
	"github.com/sirupsen/logrus"
)

// A Compiler parses JavaScript source code on behalf of the host.
type Compiler struct {
	logger  logrus.FieldLogger
	Options Options
}

// Options are options to the compiler.
type Options struct {
	// SourceMapLoader is used to retrieve source maps referenced by parsed
	// sources. If nil, source map support is disabled.
	SourceMapLoader func(path string) ([]byte, error)
}

// New returns a new Compiler.
func New(logger logrus.FieldLogger) *Compiler {
	return &Compiler{logger: logger}
}

// parsingState keeps the state of a single parse.
type parsingState struct {
	// set when we couldn't load an external source map so we can retry
	// parsing without one
	couldntLoadSourceMap bool
	srcMapError          error

	compiler *Compiler
	esm      bool
	loader   func(string) ([]byte, error)
}

// Parse parses src as an ES module (esm true) or classic script (esm false).
// filename becomes the program's resource name in stack traces and is the
// resource name dynamic imports see as their referrer.
func (c *Compiler) Parse(src, filename string, esm bool) (*ast.Program, error) {
	state := &parsingState{
		compiler: c,
		esm:      esm,
		loader:   c.Options.SourceMapLoader,
	}
	return state.parseImpl(src, filename)
}

// CompileScript parses and compiles src as a classic script, for the
// interactive console.
func (c *Compiler) CompileScript(src, filename string) (*sobek.Program, error) {
	prg, err := c.Parse(src, filename, false)
	if err != nil {
		return nil, err
	}
	return sobek.CompileAST(prg, true)
}

func (ps *parsingState) parseImpl(src, filename string) (*ast.Program, error) {
	var opts []parser.Option
	if ps.loader != nil {
		opts = append(opts, parser.WithSourceMapLoader(ps.sourceMapLoader))
	} else {
		opts = append(opts, parser.WithDisableSourceMaps)
	}
	if ps.esm {
		opts = append(opts, parser.IsModule)
	}

	prg, err := parser.ParseFile(nil, filename, src, 0, opts...)

	if ps.couldntLoadSourceMap {
		ps.couldntLoadSourceMap = false // reset
		// Scripts that reference a source map that can't be found shouldn't
		// abort the load, so retry with source maps disabled.
		ps.compiler.logger.WithError(ps.srcMapError).Warnf("Couldn't load source map for %s", filename)
		ps.loader = nil
		return ps.parseImpl(src, filename)
	}
	return prg, err
}

// sourceMapLoader wraps the configured loader for use with sobek's
// WithSourceMapLoader, validating what it returns and flagging failures so
// parseImpl can retry without source maps.
func (ps *parsingState) sourceMapLoader(path string) ([]byte, error) {
	srcMap, err := ps.loader(path)
	if err != nil {
		ps.couldntLoadSourceMap = true
		ps.srcMapError = err
		return nil, err
	}
	if _, err = sourcemap.Parse(path, srcMap); err != nil {
		ps.couldntLoadSourceMap = true
		ps.srcMapError = err
		return nil, err
	}
	return srcMap, nil
}
