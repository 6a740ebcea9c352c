// Package server exposes the realtime layer over HTTP: the WebSocket
// handshake with admission control (capacity, per-IP ceiling, connection
// rate, origin allowlist), plus health, stats, version, and metrics
// endpoints.
package server
