package uart

import (
	"errors"
	"fmt"
	"io"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/sirupsen/logrus"
)

// ErrUnhandledParse is wrapped into the error returned by ReceiveOne/Poll
// when a handler's Parse method fails on an otherwise CRC-valid frame.
var ErrUnhandledParse = errors.New("uart: body parse failed")

// State names a position in the receive state machine.
type State int

const (
	WaitingForHeader State = iota
	ReadingHeader
	ReadingBody
)

func (s State) String() string {
	switch s {
	case WaitingForHeader:
		return "WaitingForHeader"
	case ReadingHeader:
		return "ReadingHeader"
	case ReadingBody:
		return "ReadingBody"
	default:
		return "Unknown"
	}
}

const magicByte = 0xA5

// ByteSource abstracts the transport a Receiver reads from. Buffered must
// report how many bytes can be read without blocking; sources that cannot
// determine this (and are only ever used in blocking mode) may return 0.
type ByteSource interface {
	ReadByte() (byte, error)
	Buffered() int
}

// Receiver implements the framed receive state machine: WaitingForHeader
// -> ReadingHeader -> ReadingBody -> WaitingForHeader.
type Receiver struct {
	registry *Registry
	now      func() clock.Timestamp[clock.Local]
	logger   *logrus.Logger

	warnThreshold int

	state             State
	headerReceiptTime clock.Timestamp[clock.Local]
	runningCRC16      uint16
	bodyLen           uint16

	discardSinceHeader  int
	discardSinceWarning int
}

// NewReceiver constructs a Receiver in the WaitingForHeader state.
// warnThreshold is the number of consecutive discarded non-header bytes
// after which a warning is logged (the counter then resets).
func NewReceiver(registry *Registry, now func() clock.Timestamp[clock.Local], logger *logrus.Logger, warnThreshold int) *Receiver {
	return &Receiver{
		registry:      registry,
		now:           now,
		logger:        logger,
		warnThreshold: warnThreshold,
	}
}

// State reports the receiver's current state machine position.
func (r *Receiver) State() State { return r.state }

func readN(source ByteSource, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := source.ReadByte()
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// advance attempts to move the state machine forward by exactly one step.
// progressed is false only when running non-blocking and insufficient
// bytes are buffered for the current state's next read; the caller should
// stop polling and preserve state until more bytes arrive. frameReady is
// true exactly when a complete, CRC-valid, handled frame was dispatched.
func (r *Receiver) advance(source ByteSource, blocking bool) (progressed, frameReady bool, err error) {
	switch r.state {
	case WaitingForHeader:
		if !blocking && source.Buffered() < 1 {
			return false, false, nil
		}
		b, err := source.ReadByte()
		if err != nil {
			return false, false, err
		}
		if b == magicByte {
			r.headerReceiptTime = r.now()
			if r.discardSinceHeader > 0 {
				r.logger.WithField("discarded_bytes", r.discardSinceHeader).
					Info("uart: resynchronized after discarding noise")
			}
			r.discardSinceHeader = 0
			r.state = ReadingHeader
			return true, false, nil
		}
		r.discardSinceHeader++
		r.discardSinceWarning++
		if r.warnThreshold > 0 && r.discardSinceWarning >= r.warnThreshold {
			r.logger.WithField("discarded_bytes", r.discardSinceWarning).
				Warn("uart: discarding non-header bytes while waiting for sync")
			r.discardSinceWarning = 0
		}
		return true, false, nil

	case ReadingHeader:
		if !blocking && source.Buffered() < 4 {
			return false, false, nil
		}
		hdr, err := readN(source, 4)
		if err != nil {
			return false, false, err
		}
		lenField := uint16(hdr[0]) | uint16(hdr[1])<<8
		receivedCRC8 := hdr[3]
		check := []byte{magicByte, hdr[0], hdr[1], hdr[2]}
		if CRC8(check) != receivedCRC8 {
			r.logger.Warn("uart: header CRC-8 mismatch, dropping frame")
			r.state = WaitingForHeader
			return true, false, nil
		}
		full := append([]byte{magicByte}, hdr...)
		r.runningCRC16 = CRC16Update(CRC16Init(), full)
		r.bodyLen = lenField
		r.state = ReadingBody
		return true, false, nil

	case ReadingBody:
		need := 2 + int(r.bodyLen) + 2
		if !blocking && source.Buffered() < need {
			return false, false, nil
		}
		rest, err := readN(source, need)
		if err != nil {
			return false, false, err
		}
		typeAndBody := rest[:2+r.bodyLen]
		crcBytes := rest[2+r.bodyLen:]
		receivedCRC16 := uint16(crcBytes[0]) | uint16(crcBytes[1])<<8
		computed := CRC16Update(r.runningCRC16, typeAndBody)

		r.state = WaitingForHeader
		if computed != receivedCRC16 {
			r.logger.Warn("uart: body CRC-16 mismatch, dropping frame")
			return true, false, nil
		}

		typeID := TypeID(uint16(typeAndBody[0]) | uint16(typeAndBody[1])<<8)
		body := typeAndBody[2:]
		handler, ok := r.registry.Lookup(typeID)
		if !ok {
			r.logger.WithField("type_id", fmt.Sprintf("0x%04X", uint16(typeID))).
				Warn("uart: no handler registered for type id")
			return true, false, nil
		}
		msg, err := handler.Parse(body)
		if err != nil {
			return true, false, fmt.Errorf("%w: type 0x%04X: %v", ErrUnhandledParse, uint16(typeID), err)
		}
		if err := handler.Handle(r.headerReceiptTime, msg); err != nil {
			r.logger.WithError(err).WithField("type_id", fmt.Sprintf("0x%04X", uint16(typeID))).
				Error("uart: handler returned error")
		}
		return true, true, nil
	}
	return false, false, fmt.Errorf("uart: unknown receiver state %d", r.state)
}

// ReceiveOne blocks until exactly one frame has been fully handled, or an
// I/O or parse error occurs.
func (r *Receiver) ReceiveOne(source ByteSource) error {
	for {
		_, ready, err := r.advance(source, true)
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
	}
}

// Poll advances the receiver without blocking, processing at most
// maxPackets complete frames, and returns as soon as the currently
// buffered bytes are insufficient to make further progress.
func (r *Receiver) Poll(source ByteSource, maxPackets int) (processed int, err error) {
	for processed < maxPackets {
		progressed, ready, err := r.advance(source, false)
		if err != nil {
			return processed, err
		}
		if ready {
			processed++
			continue
		}
		if !progressed {
			return processed, nil
		}
	}
	return processed, nil
}

// Send serializes msg as a complete frame and writes it to w in a single
// call.
func Send(w io.Writer, seq uint8, msg Message) error {
	body, err := msg.MarshalBody()
	if err != nil {
		return fmt.Errorf("uart: marshal body for type 0x%04X: %w", uint16(msg.TypeID()), err)
	}
	if len(body) > 0xFFFF {
		return fmt.Errorf("uart: body too large (%d bytes)", len(body))
	}

	frame := make([]byte, 0, 4+1+2+len(body)+2)
	frame = append(frame, magicByte, byte(len(body)), byte(len(body)>>8), seq)
	frame = append(frame, CRC8(frame))
	typeID := uint16(msg.TypeID())
	frame = append(frame, byte(typeID), byte(typeID>>8))
	frame = append(frame, body...)
	crc16 := CRC16(frame)
	frame = append(frame, byte(crc16), byte(crc16>>8))

	_, err = w.Write(frame)
	return err
}
