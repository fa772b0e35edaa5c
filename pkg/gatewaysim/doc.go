// Package gatewaysim is an in-process stand-in for a DMX gateway. It serves
// the same three surfaces the real device exposes — Modbus TCP, the REST
// API, and the WebSocket endpoint — over one shared channel universe, so the
// rest of the toolkit can be exercised end to end without hardware.
package gatewaysim
