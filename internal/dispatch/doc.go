// Package dispatch is the integration seam toward the CRUD side of the
// system: a thin adapter translating plain, already-validated domain change
// descriptions into broadcast router calls with the default targeting rules.
//
// It has no knowledge of storage or transport, returns nothing, and never
// raises back to the caller.
package dispatch
