package selection

import (
	"github.com/asgard/heimdall/internal/beyblade"
	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/spatial"
)

// Robot is the full candidate view a TargetSelector needs for a tracked
// robot cluster: enough to score it (launcher frame) and enough to feed
// the beyblade identifier and proximity checks (world frame).
type Robot interface {
	InstanceID() uint64
	LauncherPosition() spatial.Position[frame.Launcher]
	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestEstimatedVelocity() spatial.Vector[frame.World]
}

// Plate is the analogous view for an individual armor plate target.
type Plate interface {
	LauncherPosition() spatial.Position[frame.Launcher]
	LatestEstimatedPosition() spatial.Position[frame.World]
	LatestEstimatedVelocity() spatial.Vector[frame.World]
}

// RobotSelectorFunc picks one robot from a candidate set, or reports none.
type RobotSelectorFunc func(robots []Robot) (Robot, bool)

// PlateSelectorFunc picks one plate from a candidate set, or reports none.
type PlateSelectorFunc func(plates []Plate) (Plate, bool)

// AsRobotSelector adapts a weighted Selector into a RobotSelectorFunc.
func AsRobotSelector(sel *Selector) RobotSelectorFunc {
	return func(robots []Robot) (Robot, bool) {
		candidates := make([]Target, len(robots))
		for i, r := range robots {
			candidates[i] = r
		}
		best, ok := sel.Select(candidates)
		if !ok {
			return nil, false
		}
		return best.(Robot), true
	}
}

// AsPlateSelector adapts a weighted Selector into a PlateSelectorFunc.
func AsPlateSelector(sel *Selector) PlateSelectorFunc {
	return func(plates []Plate) (Plate, bool) {
		candidates := make([]Target, len(plates))
		for i, p := range plates {
			candidates[i] = p
		}
		best, ok := sel.Select(candidates)
		if !ok {
			return nil, false
		}
		return best.(Plate), true
	}
}

// AimTarget is the selector's output for one tick: aim at a robot
// directly (the robot is absent a valid plate, or it's beyblading) or at
// one of its plates.
type AimTarget struct {
	Robot  Robot
	Plate  Plate
	HasAny bool
}

type updateState struct {
	robots        []Robot
	plates        []Plate
	robotSelector RobotSelectorFunc
	plateSelector PlateSelectorFunc
}

// TargetSelector holds the sticky robot lock and the plate target
// recomputed each tick, per the selection flow: pick a robot and hold it
// until it disappears; always re-pick the best plate on that robot; aim
// at the robot itself while it's beyblading (plates are unreliable
// during a spin), otherwise aim at the plate.
type TargetSelector struct {
	beybladeIdentifier *beyblade.Identifier
	maxPlateRadius     float64

	selectedRobot Robot
	selectedPlate Plate
	lastState     updateState
}

// NewTargetSelector constructs a TargetSelector. beybladeIdentifier is
// updated once per tick from the same robot/plate sets passed to Update.
func NewTargetSelector(beybladeIdentifier *beyblade.Identifier, maxPlateRadius float64) *TargetSelector {
	return &TargetSelector{beybladeIdentifier: beybladeIdentifier, maxPlateRadius: maxPlateRadius}
}

// SelectedRobot returns the current sticky robot lock, or nil.
func (ts *TargetSelector) SelectedRobot() Robot { return ts.selectedRobot }

// SelectedPlate returns the current plate target, or nil.
func (ts *TargetSelector) SelectedPlate() Plate { return ts.selectedPlate }

// Update feeds one tick's robots and plates through the beyblade
// identifier, re-selects the sticky robot if it's gone missing, recomputes
// the plate target among plates within maxPlateRadius of the robot, and
// returns the resulting aim decision.
func (ts *TargetSelector) Update(robots []Robot, plates []Plate, robotSelector RobotSelectorFunc, plateSelector PlateSelectorFunc, t clock.Timestamp[clock.Local]) AimTarget {
	beybladeRobots := make([]beyblade.RobotTarget, len(robots))
	for i, r := range robots {
		beybladeRobots[i] = r
	}
	beybladePlates := make([]beyblade.PlateTarget, len(plates))
	for i, p := range plates {
		beybladePlates[i] = p
	}
	ts.beybladeIdentifier.Update(beybladeRobots, beybladePlates, t)

	ts.lastState = updateState{robots: robots, plates: plates, robotSelector: robotSelector, plateSelector: plateSelector}

	ts.reselectRobotIfNeeded(robots, robotSelector)
	ts.recomputePlate(plates, plateSelector)

	return ts.aim()
}

// ForceReselect clears the sticky robot lock and re-runs both selections
// against the state from the most recent Update call.
func (ts *TargetSelector) ForceReselect() AimTarget {
	ts.selectedRobot = nil
	state := ts.lastState
	ts.reselectRobotIfNeeded(state.robots, state.robotSelector)
	ts.recomputePlate(state.plates, state.plateSelector)
	return ts.aim()
}

func (ts *TargetSelector) reselectRobotIfNeeded(robots []Robot, robotSelector RobotSelectorFunc) {
	if ts.selectedRobot != nil && robotStillPresent(ts.selectedRobot, robots) {
		return
	}
	if robotSelector == nil {
		ts.selectedRobot = nil
		return
	}
	robot, ok := robotSelector(robots)
	if !ok {
		ts.selectedRobot = nil
		return
	}
	ts.selectedRobot = robot
}

func robotStillPresent(target Robot, robots []Robot) bool {
	for _, r := range robots {
		if r.InstanceID() == target.InstanceID() {
			return true
		}
	}
	return false
}

func (ts *TargetSelector) recomputePlate(plates []Plate, plateSelector PlateSelectorFunc) {
	if ts.selectedRobot == nil || plateSelector == nil {
		ts.selectedPlate = nil
		return
	}
	robotPos := ts.selectedRobot.LatestEstimatedPosition()
	nearby := make([]Plate, 0, len(plates))
	for _, p := range plates {
		if p.LatestEstimatedPosition().Minus(robotPos).Magnitude() <= ts.maxPlateRadius {
			nearby = append(nearby, p)
		}
	}
	plate, ok := plateSelector(nearby)
	if !ok {
		ts.selectedPlate = nil
		return
	}
	ts.selectedPlate = plate
}

func (ts *TargetSelector) aim() AimTarget {
	if ts.selectedRobot == nil {
		return AimTarget{}
	}
	if ts.beybladeIdentifier.IsBeyblading(ts.selectedRobot.InstanceID()) {
		return AimTarget{Robot: ts.selectedRobot, HasAny: true}
	}
	if ts.selectedPlate != nil {
		return AimTarget{Plate: ts.selectedPlate, HasAny: true}
	}
	return AimTarget{Robot: ts.selectedRobot, HasAny: true}
}
