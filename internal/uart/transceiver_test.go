package uart_test

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/uart"
	"github.com/sirupsen/logrus"
)

type memSource struct {
	data []byte
	pos  int
}

func (m *memSource) ReadByte() (byte, error) {
	if m.pos >= len(m.data) {
		return 0, io.EOF
	}
	b := m.data[m.pos]
	m.pos++
	return b, nil
}

func (m *memSource) Buffered() int { return len(m.data) - m.pos }

type pingMessage struct{ Value byte }

func (pingMessage) TypeID() uart.TypeID                   { return 0x0042 }
func (m pingMessage) MarshalBody() ([]byte, error)        { return []byte{m.Value}, nil }

type pingHandler struct {
	received []byte
	failAll  bool
}

func (h *pingHandler) TypeID() uart.TypeID { return 0x0042 }

func (h *pingHandler) Parse(body []byte) (uart.Message, error) {
	if h.failAll {
		return nil, fmt.Errorf("forced parse failure")
	}
	if len(body) != 1 {
		return nil, fmt.Errorf("ping: want 1 byte body, got %d", len(body))
	}
	return pingMessage{Value: body[0]}, nil
}

func (h *pingHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	h.received = append(h.received, msg.(pingMessage).Value)
	return nil
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func fixedNow() clock.Timestamp[clock.Local] { return clock.New[clock.Local](0) }

// TestReceiverRecoversFromBodyCorruption reproduces a corrupted frame
// immediately followed by a good one on the wire: the first body byte of
// the first frame is flipped, which fails the CRC-16 check and drops that
// frame, and the receiver resynchronizes on the second frame's header.
func TestReceiverRecoversFromBodyCorruption(t *testing.T) {
	handler := &pingHandler{}
	registry, err := uart.NewRegistry(handler)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	var buf bytes.Buffer
	if err := uart.Send(&buf, 1, pingMessage{Value: 0x11}); err != nil {
		t.Fatalf("Send frame 1: %v", err)
	}
	if err := uart.Send(&buf, 2, pingMessage{Value: 0x22}); err != nil {
		t.Fatalf("Send frame 2: %v", err)
	}
	data := buf.Bytes()
	// Byte 7 is the first body byte: [0]=0xA5 [1..2]=len [3]=seq [4]=crc8
	// [5..6]=type [7]=body[0].
	data[7] ^= 0xFF

	receiver := uart.NewReceiver(registry, fixedNow, discardLogger(), 8)
	source := &memSource{data: data}

	if err := receiver.ReceiveOne(source); err != nil {
		t.Fatalf("ReceiveOne: %v", err)
	}

	if len(handler.received) != 1 || handler.received[0] != 0x22 {
		t.Fatalf("received = %v, want [0x22] (first frame dropped, second delivered)", handler.received)
	}
	if receiver.State() != uart.WaitingForHeader {
		t.Fatalf("state = %v, want WaitingForHeader", receiver.State())
	}
}

func TestPollRespectsBufferedBytes(t *testing.T) {
	handler := &pingHandler{}
	registry, err := uart.NewRegistry(handler)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	var buf bytes.Buffer
	if err := uart.Send(&buf, 1, pingMessage{Value: 0xAA}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	full := buf.Bytes()

	// Only the first half of the frame is "on the wire" so far.
	source := &memSource{data: full[:len(full)/2]}
	receiver := uart.NewReceiver(registry, fixedNow, discardLogger(), 8)

	processed, err := receiver.Poll(source, 10)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if processed != 0 {
		t.Fatalf("processed = %d, want 0 (frame incomplete)", processed)
	}

	// The rest of the frame arrives.
	source.data = full
	processed, err = receiver.Poll(source, 10)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if processed != 1 || len(handler.received) != 1 || handler.received[0] != 0xAA {
		t.Fatalf("processed = %d, received = %v, want 1 frame with 0xAA", processed, handler.received)
	}
}

func TestPerseveringReceiverGivesUpAfterMaxParseErrors(t *testing.T) {
	handler := &pingHandler{failAll: true}
	registry, err := uart.NewRegistry(handler)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	var buf bytes.Buffer
	for i := 0; i < 3; i++ {
		if err := uart.Send(&buf, byte(i), pingMessage{Value: byte(i)}); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}

	receiver := uart.NewReceiver(registry, fixedNow, discardLogger(), 8)
	persevering := uart.NewPerseveringReceiver(receiver, discardLogger(), 2)
	source := &memSource{data: buf.Bytes()}

	err = persevering.ReceiveOne(source)
	if err == nil {
		t.Fatalf("expected error after exceeding max parse errors, got nil")
	}
}

func TestPerseveringReceiverRecoversWithinBudget(t *testing.T) {
	handler := &pingHandler{}
	registry, err := uart.NewRegistry(handler)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	var buf bytes.Buffer
	if err := uart.Send(&buf, 1, pingMessage{Value: 0x11}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := uart.Send(&buf, 2, pingMessage{Value: 0x22}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	data := buf.Bytes()
	data[7] ^= 0xFF // corrupt the first frame's body so its parse is never attempted

	receiver := uart.NewReceiver(registry, fixedNow, discardLogger(), 8)
	persevering := uart.NewPerseveringReceiver(receiver, discardLogger(), 2)
	source := &memSource{data: data}

	if err := persevering.ReceiveOne(source); err != nil {
		t.Fatalf("ReceiveOne: %v", err)
	}
	if len(handler.received) != 1 || handler.received[0] != 0x22 {
		t.Fatalf("received = %v, want [0x22]", handler.received)
	}
}
