package mainloop

import (
	"github.com/asgard/heimdall/internal/frame"
	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/spatial"
)

// Mechanical holds the fixed, assembly-time offsets from the fully
// assembled turret reference frame to the barrel and to the color
// sensor.
type Mechanical struct {
	TurretRefToLauncher    spatial.Transform[frame.TurretRef, frame.Launcher]
	TurretRefToColorCamera spatial.Transform[frame.TurretRef, frame.ColorCamera]
}

const degToRad = 3.14159265358979323846 / 180

// buildWorldToTurretRef composes the odometry-reported chassis pose with
// the first turret's reported yaw and pitch, per the chain World ->
// TurretBase -> TurretYawRef -> TurretPitchRef -> TurretRef.
func buildWorldToTurretRef(odo messages.OdometryMessage) spatial.Transform[frame.World, frame.TurretRef] {
	worldToBase := spatial.Transform[frame.World, frame.TurretBase]{
		Translation: spatial.Position[frame.World]{X: float64(odo.X), Y: float64(odo.Y), Z: float64(odo.Z)},
		Rotation:    spatial.FromEulerAngles[frame.World](float64(odo.Roll)*degToRad, float64(odo.Pitch)*degToRad, float64(odo.Yaw)*degToRad),
	}

	var yawDeg, pitchDeg float32
	if len(odo.Turrets) > 0 {
		yawDeg = odo.Turrets[0].YawDeg
		pitchDeg = odo.Turrets[0].PitchDeg
	}

	baseToYaw := spatial.Transform[frame.TurretBase, frame.TurretYawRef]{
		Rotation: spatial.FromEulerAngles[frame.TurretBase](0, 0, float64(yawDeg)*degToRad),
	}
	yawToPitch := spatial.Transform[frame.TurretYawRef, frame.TurretPitchRef]{
		Rotation: spatial.FromEulerAngles[frame.TurretYawRef](0, float64(pitchDeg)*degToRad, 0),
	}
	pitchToRef := spatial.IdentityTransform[frame.TurretPitchRef]()

	worldToYaw := spatial.Compose(worldToBase, baseToYaw)
	worldToPitch := spatial.Compose(worldToYaw, yawToPitch)
	return spatial.Compose(worldToPitch, pitchToRef)
}

// BuildTransforms assembles the world->launcher and colorCamera->world
// transforms active for this frame's odometry sample.
func BuildTransforms(odo messages.OdometryMessage, mech Mechanical) (worldToLauncher spatial.Transform[frame.World, frame.Launcher], colorCameraToWorld spatial.Transform[frame.ColorCamera, frame.World]) {
	worldToRef := buildWorldToTurretRef(odo)
	worldToLauncher = spatial.Compose(worldToRef, mech.TurretRefToLauncher)
	worldToColorCamera := spatial.Compose(worldToRef, mech.TurretRefToColorCamera)
	colorCameraToWorld = worldToColorCamera.Inverse()
	return worldToLauncher, colorCameraToWorld
}
