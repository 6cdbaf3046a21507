package alignctl

import (
	"math"

	"alignd/pkg/types"
)

// rotateYaw composes an extra rotation about the world Z axis onto t.
func rotateYaw(t *types.Transform, deg float64) {
	half := deg * math.Pi / 360
	sz, cw := math.Sincos(half)
	// q_yaw * q_old with q = (x, y, z, w)
	x1, y1, z1, w1 := 0.0, 0.0, sz, cw
	x2, y2, z2, w2 := t.Rotation[0], t.Rotation[1], t.Rotation[2], t.Rotation[3]
	t.Rotation = [4]float64{
		w1*x2 + x1*w2 + y1*z2 - z1*y2,
		w1*y2 - x1*z2 + y1*w2 + z1*x2,
		w1*z2 + x1*y2 - y1*x2 + z1*w2,
		w1*w2 - x1*x2 - y1*y2 - z1*z2,
	}
}
