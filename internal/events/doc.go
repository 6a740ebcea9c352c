// Package events defines the fixed event taxonomy: event kinds, broadcast
// namespaces, payload shapes, and the tagged inbound/outbound message unions
// spoken over the WebSocket protocol.
package events
