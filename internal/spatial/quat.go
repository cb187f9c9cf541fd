package spatial

import "math"

// quatMultiply computes the Hamilton product a*b.
func quatMultiply(aw, ax, ay, az, bw, bx, by, bz float64) (w, x, y, z float64) {
	w = aw*bw - ax*bx - ay*by - az*bz
	x = aw*bx + ax*bw + ay*bz - az*by
	y = aw*by - ax*bz + ay*bw + az*bx
	z = aw*bz + ax*by - ay*bx + az*bw
	return
}

// quatRotateVector rotates (vx,vy,vz) by the unit quaternion (w,x,y,z).
func quatRotateVector(w, x, y, z, vx, vy, vz float64) (rx, ry, rz float64) {
	uvx := y*vz - z*vy
	uvy := z*vx - x*vz
	uvz := x*vy - y*vx

	uuvx := y*uvz - z*uvy
	uuvy := z*uvx - x*uvz
	uuvz := x*uvy - y*uvx

	rx = vx + 2*(w*uvx+uuvx)
	ry = vy + 2*(w*uvy+uuvy)
	rz = vz + 2*(w*uvz+uuvz)
	return
}

func quatNorm(w, x, y, z float64) float64 {
	return math.Sqrt(w*w + x*x + y*y + z*z)
}
