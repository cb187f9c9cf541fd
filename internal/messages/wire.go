// Package messages defines the concrete wire message types exchanged with
// the MCB over the framed serial protocol, and the uart.Handler adapters
// that dispatch parsed messages to injected callbacks.
package messages

import (
	"encoding/binary"
	"fmt"
	"math"
)

func putF32(buf []byte, off int, v float32) {
	binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
}

func getF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func putU32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:], v)
}

func getU32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off:])
}

func putU16(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:], v)
}

func getU16(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off:])
}

func putU64(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:], v)
}

func getU64(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off:])
}

func requireLen(name string, body []byte, want int) error {
	if len(body) != want {
		return fmt.Errorf("messages: %s: want %d byte body, got %d", name, want, len(body))
	}
	return nil
}

func requireAtLeast(name string, body []byte, want int) error {
	if len(body) < want {
		return fmt.Errorf("messages: %s: want at least %d byte body, got %d", name, want, len(body))
	}
	return nil
}
