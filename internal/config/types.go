// Package config implements the YAML configuration schema: one document
// per concern, merged left-to-right across positional paths, with a
// path-qualified error when one of the required fields checked after the
// merge is missing. Every other absent field keeps its zero value, except
// odometry.receipt_offset, which defaults to 9ms.
package config

import (
	"fmt"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/robomaster"
	"github.com/asgard/heimdall/internal/spatial"
	"gopkg.in/yaml.v3"
)

// Duration unmarshals from strings like "9ms", "16ms", "1s" via
// clock.ParseDuration.
type Duration clock.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: duration: %w", err)
	}
	parsed, err := clock.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// EulerDegrees unmarshals a three-element [roll, pitch, yaw] list given
// in degrees into radians.
type EulerDegrees struct {
	RollRad, PitchRad, YawRad float64
}

func (e *EulerDegrees) UnmarshalYAML(value *yaml.Node) error {
	var triple [3]float64
	if err := value.Decode(&triple); err != nil {
		return fmt.Errorf("config: euler angles: expected a 3-element list: %w", err)
	}
	const degToRad = 3.14159265358979323846 / 180
	e.RollRad = triple[0] * degToRad
	e.PitchRad = triple[1] * degToRad
	e.YawRad = triple[2] * degToRad
	return nil
}

// Position3 unmarshals a three-element [x, y, z] list, frame-agnostic at
// the config layer; callers tag it with the right Frame when consumed.
type Position3 struct {
	X, Y, Z float64
}

func (p *Position3) UnmarshalYAML(value *yaml.Node) error {
	var triple [3]float64
	if err := value.Decode(&triple); err != nil {
		return fmt.Errorf("config: position: expected a 3-element list: %w", err)
	}
	p.X, p.Y, p.Z = triple[0], triple[1], triple[2]
	return nil
}

// AsPosition tags p with frame F; config itself stays frame-agnostic, so
// tagging happens at the call site that knows which frame applies.
func AsPosition[F frame.Frame](p Position3) spatial.Position[F] {
	return spatial.Position[F]{X: p.X, Y: p.Y, Z: p.Z}
}

// TeamColor unmarshals the strings "red"/"blue" (case-insensitive).
type TeamColor robomaster.TeamColor

func (c *TeamColor) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("config: team color: %w", err)
	}
	switch s {
	case "red", "Red", "RED":
		*c = TeamColor(robomaster.Red)
	case "blue", "Blue", "BLUE":
		*c = TeamColor(robomaster.Blue)
	default:
		return fmt.Errorf("config: team color: unrecognized value %q (want \"red\" or \"blue\")", s)
	}
	return nil
}
