// Package solver computes the initial placement proposal for a model
// over a set of footprint polygons. Solve is a pure function: the same
// bounds and polygons always yield the same transform.
package solver

import (
	"math"

	"alignd/internal/geom"
	"alignd/pkg/types"
)

// Solve proposes a placement that puts the model's bounding-box base
// center on the combined footprint centroid, yaws the model's forward
// (+X) axis onto the footprint's principal axis, and scales the model
// uniformly so its footprint fits inside the polygon extent.
func Solve(bounds types.BoundingBox, polys []types.Polygon) (types.Transform, error) {
	if len(polys) == 0 {
		return types.Transform{}, degenerateError{reason: "no polygons selected"}
	}
	ext := [3]float64{
		bounds.Max[0] - bounds.Min[0],
		bounds.Max[1] - bounds.Min[1],
		bounds.Max[2] - bounds.Min[2],
	}
	if !geom.Finite(ext[0], ext[1], ext[2]) || ext[0] <= 0 || ext[1] <= 0 {
		return types.Transform{}, degenerateError{reason: "model bounds have no footprint extent"}
	}

	outlines, baseZ, err := footprints(polys)
	if err != nil {
		return types.Transform{}, err
	}

	centroid, ok := combinedCentroid(outlines)
	if !ok {
		return types.Transform{}, degenerateError{reason: "footprint area is zero"}
	}
	axis, ok := principalAxis(outlines)
	if !ok {
		return types.Transform{}, degenerateError{reason: "footprint has no usable edge"}
	}

	yaw := math.Atan2(axis.Y, axis.X)
	rot := geom.YawQuat(yaw)

	width, depth := extentAlong(outlines, axis)
	scale := math.Min(width/ext[0], depth/ext[1])
	if !geom.Finite(scale) || scale <= 0 {
		return types.Transform{}, degenerateError{reason: "footprint extent is zero"}
	}

	// Base center of the bounding box in model space, scaled and yawed
	// into world orientation; the translation closes the gap to the
	// footprint centroid at ground elevation.
	bcx := (bounds.Min[0] + bounds.Max[0]) / 2
	bcy := (bounds.Min[1] + bounds.Max[1]) / 2
	bcz := bounds.Min[2]
	sin, cos := math.Sincos(yaw)
	rx := scale * (bcx*cos - bcy*sin)
	ry := scale * (bcx*sin + bcy*cos)
	rz := scale * bcz

	return types.Transform{
		Translation: [3]float64{centroid.X - rx, centroid.Y - ry, baseZ - rz},
		Rotation:    rot.Array(),
		Scale:       [3]float64{scale, scale, scale},
	}, nil
}

// footprints projects the polygons onto the ground plane and returns the
// lowest vertex elevation as the base height.
func footprints(polys []types.Polygon) ([][]geom.Vec2, float64, error) {
	outlines := make([][]geom.Vec2, 0, len(polys))
	baseZ := math.Inf(1)
	for _, p := range polys {
		if len(p.Vertices) < 3 {
			return nil, 0, degenerateError{reason: "polygon " + p.ID + " has fewer than 3 vertices"}
		}
		pts := make([]geom.Vec2, len(p.Vertices))
		for i, v := range p.Vertices {
			if !geom.Finite(v[0], v[1], v[2]) {
				return nil, 0, degenerateError{reason: "polygon " + p.ID + " has non-finite vertices"}
			}
			pts[i] = geom.Vec2{X: v[0], Y: v[1]}
			if v[2] < baseZ {
				baseZ = v[2]
			}
		}
		outlines = append(outlines, pts)
	}
	return outlines, baseZ, nil
}

// combinedCentroid is the area-weighted centroid of the union footprint.
func combinedCentroid(outlines [][]geom.Vec2) (geom.Vec2, bool) {
	var acc geom.Vec2
	var total float64
	for _, pts := range outlines {
		c, area := geom.Centroid(pts)
		acc = acc.Add(c.Scale(area))
		total += area
	}
	if total < 1e-12 {
		return geom.Vec2{}, false
	}
	return acc.Scale(1 / total), true
}

// principalAxis is the direction of the longest polygon edge,
// canonicalized to the +X half-plane so opposite windings agree. Ties
// keep the first edge encountered, which makes the choice deterministic
// for a fixed polygon order.
func principalAxis(outlines [][]geom.Vec2) (geom.Vec2, bool) {
	var best geom.Vec2
	bestLen := 0.0
	for _, pts := range outlines {
		for i := range pts {
			edge := pts[(i+1)%len(pts)].Sub(pts[i])
			if l := edge.Norm(); l > bestLen {
				bestLen = l
				best = edge
			}
		}
	}
	dir, ok := best.Normalize()
	if !ok {
		return geom.Vec2{}, false
	}
	if dir.X < 0 || (dir.X == 0 && dir.Y < 0) {
		dir = dir.Scale(-1)
	}
	return dir, true
}

// extentAlong measures the union footprint in the frame spanned by the
// principal axis and its perpendicular.
func extentAlong(outlines [][]geom.Vec2, axis geom.Vec2) (width, depth float64) {
	perp := axis.Perp()
	minU, maxU := math.Inf(1), math.Inf(-1)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, pts := range outlines {
		for _, p := range pts {
			u, v := p.Dot(axis), p.Dot(perp)
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}
	}
	return maxU - minU, maxV - minV
}

// degenerateError indicates input geometry the solver cannot place onto.
type degenerateError struct{ reason string }

func (e degenerateError) Error() string { return "degenerate geometry: " + e.reason }

// IsDegenerate reports whether err indicates unusable input geometry.
func IsDegenerate(err error) bool {
	_, ok := err.(degenerateError)
	return ok
}
