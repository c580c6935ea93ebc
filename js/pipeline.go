package js

import (
	"fmt"

	"github.com/grafana/sobek"
)

// scriptError carries a JavaScript error value across Go call boundaries,
// so that a dynamic import can be rejected with the original value rather
// than a stringified copy.
type scriptError struct {
	value sobek.Value
}

func (e *scriptError) Error() string {
	return renderValue(e.value)
}

// loadAndRun drives the whole pipeline for the module at canonical path p:
// load and compile the graph, instantiate it (linking every static import
// through resolveModule) and evaluate the root.
//
// The main module additionally owns the "main module loaded" notification:
// it fires immediately for a synchronously settled evaluation, and from the
// completion callbacks for one that is still pending, on success and
// failure alike — the notification means "the load attempt finished", not
// "it succeeded". Load failures themselves are left to the caller, which
// also notifies after reporting. Non-main (dynamically imported) modules
// only report evaluation failures; their import's settlement is owned by
// the dynamic import broker.
func (h *Host) loadAndRun(p string, isMain bool) (sobek.ModuleRecord, error) {
	trace := &loadTrace{base: h.baseDir}
	trace.push(p)

	mod, err := h.loadModuleTree(p, trace)
	if err != nil {
		return nil, err
	}

	if err := mod.Link(); err != nil {
		return nil, err
	}

	cyclic, ok := mod.(sobek.CyclicModuleRecord)
	if !ok {
		panic(fmt.Sprintf("js: compiled module %q is not cyclic", p))
	}

	promise := h.rt.CyclicModuleRecordEvaluate(cyclic, h.resolveModule)
	switch promise.State() {
	case sobek.PromiseStateRejected:
		return nil, &scriptError{value: promise.Result()}
	case sobek.PromiseStatePending:
		if isMain {
			h.attachHandlers(promise,
				func(sobek.Value) {
					h.delegate.OnMainModuleLoaded()
				},
				func(reason sobek.Value) {
					h.reportThrown(reason)
					h.delegate.OnMainModuleLoaded()
				})
		} else {
			h.attachHandlers(promise, nil, func(reason sobek.Value) {
				h.reportThrown(reason)
			})
		}
	default: // fulfilled
		if isMain {
			h.delegate.OnMainModuleLoaded()
		}
	}

	return mod, nil
}

// attachHandlers registers fulfillment and rejection callbacks on a pending
// evaluation promise. sobek exposes the promise to Go only as a plain
// promise object, so this goes through Promise.prototype.then.
func (h *Host) attachHandlers(promise *sobek.Promise, onFulfilled, onRejected func(sobek.Value)) {
	obj := h.rt.ToValue(promise).ToObject(h.rt)
	then, ok := sobek.AssertFunction(obj.Get("then"))
	if !ok {
		panic("js: evaluation result is not a thenable")
	}

	wrap := func(fn func(sobek.Value)) sobek.Value {
		if fn == nil {
			return sobek.Undefined()
		}
		return h.rt.ToValue(func(call sobek.FunctionCall) sobek.Value {
			fn(call.Argument(0))
			return sobek.Undefined()
		})
	}

	if _, err := then(obj, wrap(onFulfilled), wrap(onRejected)); err != nil {
		panic(fmt.Sprintf("js: attaching completion handlers failed: %v", err))
	}
}
