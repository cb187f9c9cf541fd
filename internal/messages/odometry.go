package messages

import (
	"fmt"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/uart"
)

// TypeOdometry is the inbound odometry wire type.
const TypeOdometry uart.TypeID = 0x0001

// TurretOdometry is one turret's reported orientation, as of the turret's
// own sample time (MCB/odometry clock, microseconds).
type TurretOdometry struct {
	Time     clock.Timestamp[clock.Odometry]
	PitchDeg float32
	YawDeg   float32
}

// OdometryMessage is the chassis pose plus per-turret orientations
// reported by the MCB. Only the first turret is consumed by the rest of
// the pipeline; additional turrets are preserved for diagnostics.
type OdometryMessage struct {
	Time           clock.Timestamp[clock.Odometry]
	X, Y, Z        float32
	Pitch, Yaw, Roll float32
	Turrets        []TurretOdometry
}

func (OdometryMessage) TypeID() uart.TypeID { return TypeOdometry }

const odometryFixedLen = 4 + 12 + 12 + 1
const turretRecordLen = 4 + 4 + 4

// ParseOdometry decodes an Odometry message body.
func ParseOdometry(body []byte) (OdometryMessage, error) {
	if err := requireAtLeast("Odometry", body, odometryFixedLen); err != nil {
		return OdometryMessage{}, err
	}
	msg := OdometryMessage{
		Time:  clock.New[clock.Odometry](int64(getU32(body, 0))),
		X:     getF32(body, 4),
		Y:     getF32(body, 8),
		Z:     getF32(body, 12),
		Pitch: getF32(body, 16),
		Yaw:   getF32(body, 20),
		Roll:  getF32(body, 24),
	}
	numTurrets := int(body[28])
	want := odometryFixedLen + numTurrets*turretRecordLen
	if err := requireLen("Odometry", body, want); err != nil {
		return OdometryMessage{}, err
	}
	msg.Turrets = make([]TurretOdometry, numTurrets)
	off := odometryFixedLen
	for i := 0; i < numTurrets; i++ {
		msg.Turrets[i] = TurretOdometry{
			Time:     clock.New[clock.Odometry](int64(getU32(body, off))),
			PitchDeg: getF32(body, off+4),
			YawDeg:   getF32(body, off+8),
		}
		off += turretRecordLen
	}
	return msg, nil
}

func (m OdometryMessage) MarshalBody() ([]byte, error) {
	if len(m.Turrets) > 255 {
		return nil, fmt.Errorf("messages: Odometry: too many turrets (%d)", len(m.Turrets))
	}
	buf := make([]byte, odometryFixedLen+len(m.Turrets)*turretRecordLen)
	putU32(buf, 0, uint32(m.Time.Micros))
	putF32(buf, 4, m.X)
	putF32(buf, 8, m.Y)
	putF32(buf, 12, m.Z)
	putF32(buf, 16, m.Pitch)
	putF32(buf, 20, m.Yaw)
	putF32(buf, 24, m.Roll)
	buf[28] = byte(len(m.Turrets))
	off := odometryFixedLen
	for _, t := range m.Turrets {
		putU32(buf, off, uint32(t.Time.Micros))
		putF32(buf, off+4, t.PitchDeg)
		putF32(buf, off+8, t.YawDeg)
		off += turretRecordLen
	}
	return buf, nil
}

// OdometryHandler adapts ParseOdometry/OnMessage to uart.Handler.
type OdometryHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg OdometryMessage) error
}

func (OdometryHandler) TypeID() uart.TypeID { return TypeOdometry }

func (OdometryHandler) Parse(body []byte) (uart.Message, error) {
	return ParseOdometry(body)
}

func (h OdometryHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(OdometryMessage))
}
