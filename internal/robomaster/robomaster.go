// Package robomaster holds the small enumerations shared by the referee
// and identity message handlers: team color and robot type.
package robomaster

import "fmt"

// TeamColor identifies which side a robot fights for.
type TeamColor int

const (
	Red TeamColor = iota
	Blue
)

func (c TeamColor) String() string {
	switch c {
	case Red:
		return "Red"
	case Blue:
		return "Blue"
	default:
		return fmt.Sprintf("TeamColor(%d)", int(c))
	}
}

// RobotType enumerates the RoboMaster chassis classes, keyed the same way
// the referee system numbers them (robot_id % 100).
type RobotType int

const (
	Hero     RobotType = 1
	Engineer RobotType = 2
	Std3     RobotType = 3
	Std4     RobotType = 4
	Std5     RobotType = 5
	Aerial   RobotType = 6
	Sentry   RobotType = 7
	Dart     RobotType = 8
	Radar    RobotType = 9
)

// Identity is the (team, type) pair derived from a referee robot id.
type Identity struct {
	Team TeamColor
	Type RobotType
}

// IdentityFromRobotID decodes the referee system's robot id into a team
// color and robot type. IDs 0-99 are Red, 100-199 are Blue; ids outside
// [0,200) are invalid.
func IdentityFromRobotID(id uint8) (Identity, error) {
	switch {
	case id < 100:
		return Identity{Team: Red, Type: RobotType(id % 100)}, nil
	case id < 200:
		return Identity{Team: Blue, Type: RobotType(id % 100)}, nil
	default:
		return Identity{}, fmt.Errorf("robomaster: robot id %d out of range [0,200)", id)
	}
}
