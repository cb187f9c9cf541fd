// Package frame defines the compile-time spatial reference frame tags used
// throughout the targeting core. A Frame carries no runtime state; it exists
// purely so that generic spatial types are parameterized by frame and the
// compiler rejects operations that mix incompatible frames.
package frame

// Frame is implemented only by the zero-sized tag types below.
type Frame interface {
	frameTag()
}

// World is the inertial frame defined by the MCB's odometry.
type World struct{}

func (World) frameTag() {}

// ColorCamera is the optical frame of the color sensor.
type ColorCamera struct{}

func (ColorCamera) frameTag() {}

// TurretBase is rooted at the chassis, before any turret rotation.
type TurretBase struct{}

func (TurretBase) frameTag() {}

// TurretYawRef is TurretBase after the yaw rotation is applied.
type TurretYawRef struct{}

func (TurretYawRef) frameTag() {}

// TurretPitchRef is TurretYawRef after the pitch rotation is applied.
type TurretPitchRef struct{}

func (TurretPitchRef) frameTag() {}

// TurretRef is the fully assembled turret frame.
type TurretRef struct{}

func (TurretRef) frameTag() {}

// Launcher is rooted at and points along the turret's barrel.
type Launcher struct{}

func (Launcher) frameTag() {}
