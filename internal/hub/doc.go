// Package hub implements the connection registry and broadcast router using
// the actor pattern.
//
// A single goroutine owns the registry, the per-user index, subscriptions,
// rate-limit counters, and heartbeat state; all access goes through a
// command channel (no mutexes). Per-connection write goroutines with
// buffered send channels keep the dispatch path non-blocking: a slow
// consumer fills its own buffer and is evicted without stalling anyone else.
package hub
