package messages

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/uart"
)

// TypeAutoAimTargetUpdate is the outbound aim-point wire type.
const TypeAutoAimTargetUpdate uart.TypeID = 0x0002

const autoAimBodyLen = 12 + 12 + 12 + 1 + 4

// AutoAimTargetUpdateMessage is the aim point streamed back to the MCB
// each frame. When no target is selected, all spatial fields are zero and
// HasTarget is false.
type AutoAimTargetUpdateMessage struct {
	PosX, PosY, PosZ       float32
	VelX, VelY, VelZ       float32
	AccelX, AccelY, AccelZ float32
	HasTarget              bool
	MCBTimestamp           uint32
}

func (AutoAimTargetUpdateMessage) TypeID() uart.TypeID { return TypeAutoAimTargetUpdate }

func (m AutoAimTargetUpdateMessage) MarshalBody() ([]byte, error) {
	buf := make([]byte, autoAimBodyLen)
	putF32(buf, 0, m.PosX)
	putF32(buf, 4, m.PosY)
	putF32(buf, 8, m.PosZ)
	putF32(buf, 12, m.VelX)
	putF32(buf, 16, m.VelY)
	putF32(buf, 20, m.VelZ)
	putF32(buf, 24, m.AccelX)
	putF32(buf, 28, m.AccelY)
	putF32(buf, 32, m.AccelZ)
	if m.HasTarget {
		buf[36] = 1
	}
	putU32(buf, 37, m.MCBTimestamp)
	return buf, nil
}

// ParseAutoAimTargetUpdate decodes an AutoAimTargetUpdate message body.
// Production code only ever sends this type; parsing exists for loopback
// testing and for any future debug-replay tooling.
func ParseAutoAimTargetUpdate(body []byte) (AutoAimTargetUpdateMessage, error) {
	if err := requireLen("AutoAimTargetUpdate", body, autoAimBodyLen); err != nil {
		return AutoAimTargetUpdateMessage{}, err
	}
	return AutoAimTargetUpdateMessage{
		PosX:         getF32(body, 0),
		PosY:         getF32(body, 4),
		PosZ:         getF32(body, 8),
		VelX:         getF32(body, 12),
		VelY:         getF32(body, 16),
		VelZ:         getF32(body, 20),
		AccelX:       getF32(body, 24),
		AccelY:       getF32(body, 28),
		AccelZ:       getF32(body, 32),
		HasTarget:    body[36] != 0,
		MCBTimestamp: getU32(body, 37),
	}, nil
}

// AutoAimTargetUpdateHandler adapts ParseAutoAimTargetUpdate/OnMessage to
// uart.Handler, for loopback tests and debug tooling.
type AutoAimTargetUpdateHandler struct {
	OnMessage func(msg AutoAimTargetUpdateMessage) error
}

func (AutoAimTargetUpdateHandler) TypeID() uart.TypeID { return TypeAutoAimTargetUpdate }

func (AutoAimTargetUpdateHandler) Parse(body []byte) (uart.Message, error) {
	return ParseAutoAimTargetUpdate(body)
}

func (h AutoAimTargetUpdateHandler) Handle(_ clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(msg.(AutoAimTargetUpdateMessage))
}
