package messages

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/uart"
)

// TypeSelectNewTarget is the inbound manual-retarget-request wire type.
const TypeSelectNewTarget uart.TypeID = 0x0007

// SelectNewTargetMessage asks the selector to drop its current pick and
// choose again, even if the current target still scores best.
type SelectNewTargetMessage struct {
	RequestID uint32
}

func (SelectNewTargetMessage) TypeID() uart.TypeID { return TypeSelectNewTarget }

func (m SelectNewTargetMessage) MarshalBody() ([]byte, error) {
	buf := make([]byte, 4)
	putU32(buf, 0, m.RequestID)
	return buf, nil
}

// ParseSelectNewTarget decodes a SelectNewTarget message body.
func ParseSelectNewTarget(body []byte) (SelectNewTargetMessage, error) {
	if err := requireLen("SelectNewTarget", body, 4); err != nil {
		return SelectNewTargetMessage{}, err
	}
	return SelectNewTargetMessage{RequestID: getU32(body, 0)}, nil
}

// SelectNewTargetHandler adapts ParseSelectNewTarget/OnMessage to
// uart.Handler.
type SelectNewTargetHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg SelectNewTargetMessage) error
}

func (SelectNewTargetHandler) TypeID() uart.TypeID { return TypeSelectNewTarget }

func (SelectNewTargetHandler) Parse(body []byte) (uart.Message, error) {
	return ParseSelectNewTarget(body)
}

func (h SelectNewTargetHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(SelectNewTargetMessage))
}

// TypeReboot is the inbound reboot-request wire type.
const TypeReboot uart.TypeID = 0x0008

// RebootMessage carries no payload; receiving it requests a system reboot
// (gated to Tegra hardware at the handler level).
type RebootMessage struct{}

func (RebootMessage) TypeID() uart.TypeID             { return TypeReboot }
func (RebootMessage) MarshalBody() ([]byte, error)    { return nil, nil }

// ParseReboot decodes a Reboot message body (always empty).
func ParseReboot(body []byte) (RebootMessage, error) {
	if err := requireLen("Reboot", body, 0); err != nil {
		return RebootMessage{}, err
	}
	return RebootMessage{}, nil
}

// RebootHandler adapts ParseReboot/OnMessage to uart.Handler.
type RebootHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local]) error
}

func (RebootHandler) TypeID() uart.TypeID { return TypeReboot }

func (RebootHandler) Parse(body []byte) (uart.Message, error) {
	return ParseReboot(body)
}

func (h RebootHandler) Handle(receiptTime clock.Timestamp[clock.Local], _ uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime)
}

// TypeShutdown is the inbound shutdown-request wire type.
const TypeShutdown uart.TypeID = 0x0009

// ShutdownMessage carries no payload; receiving it requests a system
// shutdown (gated to Tegra hardware at the handler level).
type ShutdownMessage struct{}

func (ShutdownMessage) TypeID() uart.TypeID          { return TypeShutdown }
func (ShutdownMessage) MarshalBody() ([]byte, error) { return nil, nil }

// ParseShutdown decodes a Shutdown message body (always empty).
func ParseShutdown(body []byte) (ShutdownMessage, error) {
	if err := requireLen("Shutdown", body, 0); err != nil {
		return ShutdownMessage{}, err
	}
	return ShutdownMessage{}, nil
}

// ShutdownHandler adapts ParseShutdown/OnMessage to uart.Handler.
type ShutdownHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local]) error
}

func (ShutdownHandler) TypeID() uart.TypeID { return TypeShutdown }

func (ShutdownHandler) Parse(body []byte) (uart.Message, error) {
	return ParseShutdown(body)
}

func (h ShutdownHandler) Handle(receiptTime clock.Timestamp[clock.Local], _ uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime)
}
