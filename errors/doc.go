// Package errors provides standardized error handling for EchoPlayer core services.
//
// # Overview
//
// The errors package implements a typed service error taxonomy (network,
// timeout, validation, authentication, permission, not_found, internal,
// external) combined with a two-class split between operational errors and
// configuration errors.
//
// Operational errors come from service operations at runtime: a dictionary
// lookup timing out, a bridge connection dropping. They may be transient and
// callers can decide to retry them.
//
// Configuration errors come from wiring mistakes: registering the same
// service name twice, depending on an unregistered service, introducing a
// dependency cycle. They are fatal by definition; retrying never helps and
// the registration code must change.
//
// The classification integrates with Go's standard error handling patterns,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if disposed {
//	    return errors.ErrDisposed
//	}
//
// Wrap errors with component context:
//
//	if err := store.Save(key, value); err != nil {
//	    return errors.WrapInternal(err, "Store", "Save", "setting persistence")
//	}
//
// Distinguish "fix your wiring" from "retry later":
//
//	if err := registry.InitializeAll(ctx, nil); err != nil {
//	    if errors.IsConfiguration(err) {
//	        log.Error("bootstrap wiring is broken", "error", err)
//	        os.Exit(1)
//	    }
//	    // operational failure: an individual service could not start
//	}
//
// # Error Wrapping Pattern
//
// Contextual wrapping follows the standardized format:
//
//	"component.method: action failed: <cause>"
//
// Typed wrapping via WrapTyped, WrapInternal, and WrapConfiguration produces
// a *ServiceError carrying the type, class, timestamp, and the original
// error under Details["original_error"], so the cause survives transport
// across package boundaries even when the error chain is flattened.
package errors
