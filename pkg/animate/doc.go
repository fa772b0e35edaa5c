// Package animate drives visible color sequences on a DMX gateway, over
// Modbus TCP or the HTTP API. It exists to verify with eyes, not counters,
// that channel writes reach the fixtures.
package animate
