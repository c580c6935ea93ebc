package js

import (
	"errors"
	"fmt"

	"github.com/grafana/sobek"

	"github.com/olilarkin/windowjs/loader"
)

// pendingImport tracks one in-flight dynamic import. capabilities holds the
// engine promise capability of every import() call that requested the path
// while the load was still pending: the engine creates one capability per
// call, but all of them are settled from the same single load.
type pendingImport struct {
	capabilities []interface{}
}

// importModuleDynamically is the engine's dynamic import hook. It runs on
// the host's thread, mid-evaluation, with the host lock already held, and
// must hand control back to the engine immediately: the actual load is
// posted to the task queue.
func (h *Host) importModuleDynamically(referrer interface{}, specifierValue sobek.Value, pcap interface{}) {
	specifier := specifierValue.String()

	if !loader.IsRelative(specifier) {
		err := loader.InvalidSpecifierError{Specifier: specifier}
		h.rt.FinishLoadingImportModule(referrer, specifierValue, pcap, nil, h.rt.ToValue(err.Error()))
		return
	}

	// Imports issued from console scripts have no module referrer and
	// resolve against the base directory.
	dir := h.baseDir
	if mod, ok := referrer.(sobek.ModuleRecord); ok {
		base, found := h.modulePaths[mod]
		if !found {
			panic(fmt.Sprintf("js: dynamic import of %q from a module missing from the registry", specifier))
		}
		dir = loader.Dir(base)
	}

	p, err := loader.Resolve(dir, specifier)
	if err != nil {
		h.rt.FinishLoadingImportModule(referrer, specifierValue, pcap, nil, h.rt.ToValue(err.Error()))
		return
	}

	if pending, ok := h.imports[p]; ok {
		// Already importing: share the in-flight load instead of scheduling
		// a second one.
		pending.capabilities = append(pending.capabilities, pcap)
		return
	}

	h.imports[p] = &pendingImport{capabilities: []interface{}{pcap}}
	h.tasks.Post(func() {
		h.finishDynamicImport(p)
	})
}

// finishDynamicImport runs on the task queue. It performs the deferred load
// for p and settles every import() promise that was waiting on it, exactly
// once each.
func (h *Host) finishDynamicImport(p string) {
	h.mx.Lock()
	defer h.mx.Unlock()

	pending, ok := h.imports[p]
	if !ok {
		panic(fmt.Sprintf("js: dynamic import task for %q has no pending record", p))
	}
	// The import stops being pending the moment settlement starts: an
	// import() issued from here on gets a fresh load, not a finished one.
	delete(h.imports, p)

	mod, err := h.loadAndRun(p, false)
	for _, pcap := range pending.capabilities {
		if err != nil {
			h.rt.FinishLoadingImportModule(nil, nil, pcap, nil, h.rejectionReason(err))
		} else {
			h.rt.FinishLoadingImportModule(nil, nil, pcap, mod, nil)
		}
	}
}

// rejectionReason unwraps a load failure to the value a dynamic import
// promise should be rejected with: the original thrown value when there is
// one, the Go error's message otherwise.
func (h *Host) rejectionReason(err error) interface{} {
	var se *scriptError
	if errors.As(err, &se) {
		return se.value
	}
	var ex *sobek.Exception
	if errors.As(err, &ex) {
		return ex.Value()
	}
	return h.rt.ToValue(err.Error())
}
