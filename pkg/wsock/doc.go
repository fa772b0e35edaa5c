// Package wsock implements a raw-socket WebSocket client over the RFC 6455
// framing subset the DMX gateway speaks: single-frame text messages, close
// frames, and client-side masking with 7/16/64-bit payload lengths.
//
// It is not a general-purpose WebSocket library. There is no fragmentation,
// no TLS, no automatic ping/pong, no reconnection, and the handshake accepts
// any response whose status line contains "101" without validating the
// Sec-WebSocket-Accept digest (see Conn).
package wsock
