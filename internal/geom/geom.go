package geom

import "math"

// Vec2 is a point or direction on the ground plane.
type Vec2 struct {
	X, Y float64
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(other Vec2) float64 {
	return v.X*other.X + v.Y*other.Y
}

// Norm returns the Euclidean norm of the vector.
func (v Vec2) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Perp returns v rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Normalize returns the unit vector in the direction of v. The second
// return is false when v has (near-)zero length.
func (v Vec2) Normalize() (Vec2, bool) {
	n := v.Norm()
	if n < 1e-12 {
		return Vec2{}, false
	}
	return Vec2{X: v.X / n, Y: v.Y / n}, true
}

// Quat is a rotation quaternion in [x y z w] component order.
type Quat struct {
	X, Y, Z, W float64
}

// YawQuat returns the quaternion for a rotation of angle radians about
// the up (+Z) axis.
func YawQuat(angle float64) Quat {
	half := angle / 2
	return Quat{Z: math.Sin(half), W: math.Cos(half)}
}

// Array returns the quaternion in wire order [x y z w].
func (q Quat) Array() [4]float64 {
	return [4]float64{q.X, q.Y, q.Z, q.W}
}

// SignedArea returns the signed shoelace area of the polygon outline.
// Positive for counter-clockwise winding.
func SignedArea(pts []Vec2) float64 {
	if len(pts) < 3 {
		return 0
	}
	var sum float64
	for i := range pts {
		j := (i + 1) % len(pts)
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// Centroid returns the area centroid of the polygon outline and its
// absolute area. For degenerate outlines (area ~ 0) the second return
// is 0 and the centroid falls back to the vertex mean.
func Centroid(pts []Vec2) (Vec2, float64) {
	a := SignedArea(pts)
	if math.Abs(a) < 1e-12 {
		var mean Vec2
		for _, p := range pts {
			mean = mean.Add(p)
		}
		if len(pts) > 0 {
			mean = mean.Scale(1 / float64(len(pts)))
		}
		return mean, 0
	}
	var cx, cy float64
	for i := range pts {
		j := (i + 1) % len(pts)
		cross := pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
		cx += (pts[i].X + pts[j].X) * cross
		cy += (pts[i].Y + pts[j].Y) * cross
	}
	inv := 1 / (6 * a)
	return Vec2{X: cx * inv, Y: cy * inv}, math.Abs(a)
}

// Finite reports whether all values are finite numbers.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
