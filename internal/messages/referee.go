package messages

import (
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/uart"
)

// TypeRefereeRealtimeData is the inbound referee realtime-data wire type.
const TypeRefereeRealtimeData uart.TypeID = 0x0003

const refereeRealtimeDataBodyLen = 1 + 2 + 8 + 1

// RefereeRealtimeDataMessage mirrors the referee system's periodic status
// broadcast, relayed by the MCB.
type RefereeRealtimeDataMessage struct {
	CompetitionType  uint8
	CompetitionStage uint8
	RemainingTime    uint16
	UnixTime         uint64
	GimbalPowered    bool
	ChassisPowered   bool
	ShooterPowered   bool
}

func (RefereeRealtimeDataMessage) TypeID() uart.TypeID { return TypeRefereeRealtimeData }

func (m RefereeRealtimeDataMessage) MarshalBody() ([]byte, error) {
	buf := make([]byte, refereeRealtimeDataBodyLen)
	buf[0] = (m.CompetitionType << 4) | (m.CompetitionStage & 0x0F)
	putU16(buf, 1, m.RemainingTime)
	putU64(buf, 3, m.UnixTime)
	var flags uint8
	if m.GimbalPowered {
		flags |= 1 << 0
	}
	if m.ChassisPowered {
		flags |= 1 << 1
	}
	if m.ShooterPowered {
		flags |= 1 << 2
	}
	buf[11] = flags
	return buf, nil
}

// ParseRefereeRealtimeData decodes a RefereeRealtimeData message body.
func ParseRefereeRealtimeData(body []byte) (RefereeRealtimeDataMessage, error) {
	if err := requireLen("RefereeRealtimeData", body, refereeRealtimeDataBodyLen); err != nil {
		return RefereeRealtimeDataMessage{}, err
	}
	flags := body[11]
	return RefereeRealtimeDataMessage{
		CompetitionType:  body[0] >> 4,
		CompetitionStage: body[0] & 0x0F,
		RemainingTime:    getU16(body, 1),
		UnixTime:         getU64(body, 3),
		GimbalPowered:    flags&(1<<0) != 0,
		ChassisPowered:   flags&(1<<1) != 0,
		ShooterPowered:   flags&(1<<2) != 0,
	}, nil
}

// RefereeRealtimeDataHandler adapts ParseRefereeRealtimeData/OnMessage to
// uart.Handler.
type RefereeRealtimeDataHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg RefereeRealtimeDataMessage) error
}

func (RefereeRealtimeDataHandler) TypeID() uart.TypeID { return TypeRefereeRealtimeData }

func (RefereeRealtimeDataHandler) Parse(body []byte) (uart.Message, error) {
	return ParseRefereeRealtimeData(body)
}

func (h RefereeRealtimeDataHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(RefereeRealtimeDataMessage))
}

// TypeRefereeCompetitionResult is the inbound match-result wire type.
const TypeRefereeCompetitionResult uart.TypeID = 0x0004

// RefereeCompetitionResultMessage reports the outcome of the match.
type RefereeCompetitionResultMessage struct {
	Result uint8
}

func (RefereeCompetitionResultMessage) TypeID() uart.TypeID { return TypeRefereeCompetitionResult }

func (m RefereeCompetitionResultMessage) MarshalBody() ([]byte, error) {
	return []byte{m.Result}, nil
}

// ParseRefereeCompetitionResult decodes a RefereeCompetitionResult body.
func ParseRefereeCompetitionResult(body []byte) (RefereeCompetitionResultMessage, error) {
	if err := requireLen("RefereeCompetitionResult", body, 1); err != nil {
		return RefereeCompetitionResultMessage{}, err
	}
	return RefereeCompetitionResultMessage{Result: body[0]}, nil
}

// RefereeCompetitionResultHandler adapts
// ParseRefereeCompetitionResult/OnMessage to uart.Handler.
type RefereeCompetitionResultHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg RefereeCompetitionResultMessage) error
}

func (RefereeCompetitionResultHandler) TypeID() uart.TypeID { return TypeRefereeCompetitionResult }

func (RefereeCompetitionResultHandler) Parse(body []byte) (uart.Message, error) {
	return ParseRefereeCompetitionResult(body)
}

func (h RefereeCompetitionResultHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(RefereeCompetitionResultMessage))
}

// TypeRefereeWarning is the inbound foul-warning wire type.
const TypeRefereeWarning uart.TypeID = 0x0005

// RefereeWarningMessage reports a referee foul call.
type RefereeWarningMessage struct {
	Level       uint8
	FoulRobotID uint8
}

func (RefereeWarningMessage) TypeID() uart.TypeID { return TypeRefereeWarning }

func (m RefereeWarningMessage) MarshalBody() ([]byte, error) {
	return []byte{m.Level, m.FoulRobotID}, nil
}

// ParseRefereeWarning decodes a RefereeWarning message body.
func ParseRefereeWarning(body []byte) (RefereeWarningMessage, error) {
	if err := requireLen("RefereeWarning", body, 2); err != nil {
		return RefereeWarningMessage{}, err
	}
	return RefereeWarningMessage{Level: body[0], FoulRobotID: body[1]}, nil
}

// RefereeWarningHandler adapts ParseRefereeWarning/OnMessage to
// uart.Handler.
type RefereeWarningHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg RefereeWarningMessage) error
}

func (RefereeWarningHandler) TypeID() uart.TypeID { return TypeRefereeWarning }

func (RefereeWarningHandler) Parse(body []byte) (uart.Message, error) {
	return ParseRefereeWarning(body)
}

func (h RefereeWarningHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(RefereeWarningMessage))
}

// TypeRefereeRobotID is the inbound self-identity wire type.
const TypeRefereeRobotID uart.TypeID = 0x0006

// RefereeRobotIDMessage reports this robot's own referee-assigned id.
type RefereeRobotIDMessage struct {
	RobotID uint8
}

func (RefereeRobotIDMessage) TypeID() uart.TypeID { return TypeRefereeRobotID }

func (m RefereeRobotIDMessage) MarshalBody() ([]byte, error) {
	return []byte{m.RobotID}, nil
}

// ParseRefereeRobotID decodes a RefereeRobotID message body.
func ParseRefereeRobotID(body []byte) (RefereeRobotIDMessage, error) {
	if err := requireLen("RefereeRobotID", body, 1); err != nil {
		return RefereeRobotIDMessage{}, err
	}
	return RefereeRobotIDMessage{RobotID: body[0]}, nil
}

// Identity decodes the message's robot id into a team/type pair, per
// robomaster.IdentityFromRobotID.
func (m RefereeRobotIDMessage) Identity() (robomaster.Identity, error) {
	return robomaster.IdentityFromRobotID(m.RobotID)
}

// RefereeRobotIDHandler adapts ParseRefereeRobotID/OnMessage to
// uart.Handler.
type RefereeRobotIDHandler struct {
	OnMessage func(receiptTime clock.Timestamp[clock.Local], msg RefereeRobotIDMessage) error
}

func (RefereeRobotIDHandler) TypeID() uart.TypeID { return TypeRefereeRobotID }

func (RefereeRobotIDHandler) Parse(body []byte) (uart.Message, error) {
	return ParseRefereeRobotID(body)
}

func (h RefereeRobotIDHandler) Handle(receiptTime clock.Timestamp[clock.Local], msg uart.Message) error {
	if h.OnMessage == nil {
		return nil
	}
	return h.OnMessage(receiptTime, msg.(RefereeRobotIDMessage))
}
