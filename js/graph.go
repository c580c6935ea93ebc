package js

import (
	"fmt"

	"github.com/grafana/sobek"

	"github.com/olilarkin/windowjs/loader"
)

// register adds a freshly compiled module record to the registry under its
// canonical path. Compiling the same path twice would break the one-unit-
// per-path invariant everything else relies on, so that is a bug, not a
// runtime error.
func (h *Host) register(p string, mod sobek.ModuleRecord) {
	if _, ok := h.modules[p]; ok {
		panic(fmt.Sprintf("js: module %q was compiled twice", p))
	}
	if prev, ok := h.modulePaths[mod]; ok {
		panic(fmt.Sprintf("js: module record for %q was already registered as %q", p, prev))
	}
	h.modules[p] = mod
	h.modulePaths[mod] = p
}

// loadModuleTree loads and compiles the module at path p and, depth-first,
// every module it statically imports. A module is registered before its
// imports are walked, so mutually-recursive imports resolve to the
// in-progress record instead of recursing forever.
func (h *Host) loadModuleTree(p string, trace *loadTrace) (sobek.ModuleRecord, error) {
	if mod, ok := h.modules[p]; ok {
		return mod, nil
	}

	src, err := loader.ReadSource(h.fs, p)
	if err != nil {
		return nil, trace.annotate(err)
	}

	prg, err := h.compiler.Parse(string(src), p, true)
	if err != nil {
		return nil, trace.annotate(err)
	}
	mod, err := sobek.ModuleFromAST(prg, h.resolveModule)
	if err != nil {
		return nil, trace.annotate(err)
	}

	// The module is compiled but not yet instantiated. Register it first, so
	// imports discovered below that point back here find it.
	h.register(p, mod)

	dir := loader.Dir(p)
	for _, specifier := range mod.RequestedModules() {
		sub, err := loader.Resolve(dir, specifier)
		if err != nil {
			return nil, trace.annotate(err)
		}
		if _, ok := h.modules[sub]; ok {
			continue
		}
		trace.push(sub)
		_, err = h.loadModuleTree(sub, trace)
		trace.pop()
		if err != nil {
			return nil, err
		}
	}

	return mod, nil
}

// resolveModule is the engine's resolution callback for static import
// edges, invoked during instantiation and evaluation. Every edge it can be
// asked about was walked by loadModuleTree, so a referrer or target missing
// from the registry means the registry itself is corrupted.
func (h *Host) resolveModule(referrer interface{}, specifier string) (sobek.ModuleRecord, error) {
	mod, ok := referrer.(sobek.ModuleRecord)
	if !ok {
		panic(fmt.Sprintf("js: static import of %q from a non-module referrer %T", specifier, referrer))
	}
	base, ok := h.modulePaths[mod]
	if !ok {
		panic(fmt.Sprintf("js: static import of %q from a module missing from the registry", specifier))
	}

	p, err := loader.Resolve(loader.Dir(base), specifier)
	if err != nil {
		return nil, err
	}
	target, ok := h.modules[p]
	if !ok {
		panic(fmt.Sprintf("js: module %q (imported from %q) missing from the registry", p, base))
	}
	return target, nil
}
