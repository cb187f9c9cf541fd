package uart

import (
	"bufio"
	"fmt"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// SerialConfig describes how to open the MCB serial link.
type SerialConfig struct {
	Port     string
	BaudRate int
	// ReadTimeout bounds how long a single Fill probe blocks waiting for
	// new bytes in non-blocking/packet-capped mode.
	ReadTimeout time.Duration
}

// ListSerialPorts enumerates the serial devices visible to the OS, for
// operator diagnostics and config validation.
func ListSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("uart: list serial ports: %w", err)
	}
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}
	return names, nil
}

// SerialSource adapts a go.bug.st/serial.Port into the ByteSource and
// io.Writer interfaces the transceiver needs.
type SerialSource struct {
	port   serial.Port
	reader *bufio.Reader
}

// OpenSerialPort opens and configures the MCB serial link.
func OpenSerialPort(cfg SerialConfig) (*SerialSource, error) {
	mode := &serial.Mode{BaudRate: cfg.BaudRate}
	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("uart: open serial port %s: %w", cfg.Port, err)
	}
	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = 20 * time.Millisecond
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("uart: set read timeout on %s: %w", cfg.Port, err)
	}
	return &SerialSource{port: port, reader: bufio.NewReaderSize(port, 4096)}, nil
}

// ReadByte satisfies ByteSource and io.ByteReader.
func (s *SerialSource) ReadByte() (byte, error) {
	return s.reader.ReadByte()
}

// Buffered reports bytes already read off the wire and sitting in the
// local buffer. It does not itself perform I/O; call Fill first to pull
// whatever is currently available on the port into the buffer.
func (s *SerialSource) Buffered() int {
	return s.reader.Buffered()
}

// Fill probes the port once (bounded by the configured read timeout) and
// pulls any available bytes into the buffer, so a subsequent Buffered
// reflects them. It is a no-op error-wise if the probe simply times out
// with no data.
func (s *SerialSource) Fill() error {
	_, err := s.reader.Peek(1)
	if err != nil {
		if err.Error() == "EOF" {
			return nil
		}
		return fmt.Errorf("uart: fill serial buffer: %w", err)
	}
	return nil
}

// Write satisfies io.Writer so SerialSource can be passed directly to
// Send.
func (s *SerialSource) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Close releases the underlying serial port.
func (s *SerialSource) Close() error {
	return s.port.Close()
}
