// Package mbap implements a Modbus TCP client for the DMX gateway.
//
// It covers exactly the function codes the gateway's register map uses:
// read coils (0x01), read holding registers (0x03), write single coil (0x05),
// write single register (0x06), and write multiple registers (0x10). It is
// not a general-purpose Modbus library: no RTU/ASCII transports, no TLS, no
// reconnection, and no function codes beyond the list above.
//
// # Wire Format
//
// Every message is a 7-byte MBAP header followed by the PDU:
//
//	┌───────────────┬──────────────┬──────────┬──────────┬──────────────┐
//	│ TransactionID │ ProtocolID=0 │ Length   │ UnitID   │ PDU          │
//	│ (2 bytes)     │ (2 bytes)    │ (2 bytes)│ (1 byte) │ (fc + data)  │
//	└───────────────┴──────────────┴──────────┴──────────┴──────────────┘
//
// All multi-byte fields are big-endian. Length counts the unit id plus the
// PDU. The client assigns transaction ids from a wrapping 16-bit counter and
// requires the response to echo the request's id before parsing the payload.
//
// A response function code with the 0x80 bit set is an exception PDU; its
// second byte is surfaced as an ExceptionError.
package mbap
