package types

import "math"

// Model describes a discoverable 3D asset on disk.
type Model struct {
	// Stable identifier for the model.
	// example: townhall.glb
	ID string `json:"id" example:"townhall.glb"`
	// Human-friendly name.
	// example: townhall.glb
	Name string `json:"name" example:"townhall.glb"`
	// Absolute path to the asset file on disk.
	// example: /home/user/models/3d/townhall.glb
	Path string `json:"path" example:"/home/user/models/3d/townhall.glb"`
	// Source format tag derived from the file extension.
	// example: glb
	Format string `json:"format" example:"glb"`
	// Size of the asset file in bytes.
	// example: 10485760
	SizeBytes int64 `json:"size_bytes" example:"10485760"`
}

// BoundingBox is an axis-aligned box in model space, X/Y on the ground
// plane and Z up.
type BoundingBox struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// ModelMetadata carries the solver-facing facts about an asset.
type ModelMetadata struct {
	// Source format tag.
	// example: glb
	Format string `json:"format" example:"glb"`
	// Axis-aligned bounds of the asset in model space.
	BoundingBox BoundingBox `json:"bounding_box"`
	// Total vertex count; doubles as the cache cost metric when known.
	// example: 48211
	VertexCount int `json:"vertex_count" example:"48211"`
}

// Polygon is a building footprint used as an alignment target. Vertices
// are ordered; X/Y span the ground plane and Z is the base elevation.
type Polygon struct {
	// Stable identifier of the footprint.
	// example: bldg-118
	ID string `json:"id" example:"bldg-118"`
	// Ordered outline vertices.
	Vertices [][3]float64 `json:"vertices"`
}

// Transform is a placement: translation, rotation quaternion and scale.
type Transform struct {
	Translation [3]float64 `json:"translation"`
	// Quaternion in [x y z w] order.
	Rotation [4]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
}

// IdentityTransform returns the neutral placement.
func IdentityTransform() Transform {
	return Transform{
		Rotation: [4]float64{0, 0, 0, 1},
		Scale:    [3]float64{1, 1, 1},
	}
}

// Finite reports whether every component of the transform is a finite
// number. Non-finite transforms are rejected at the API boundary.
func (t Transform) Finite() bool {
	for _, v := range t.Translation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range t.Rotation {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	for _, v := range t.Scale {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Placement is a committed model-to-building association.
type Placement struct {
	// Row identifier (UUID).
	// example: 7b0c9f6e-4a7e-4f11-9c1c-1f86a31d4c5e
	ID string `json:"id" example:"7b0c9f6e-4a7e-4f11-9c1c-1f86a31d4c5e"`
	// Model the placement belongs to.
	// example: townhall.glb
	ModelID string `json:"model_id" example:"townhall.glb"`
	// Building the model is linked to, if any.
	// example: bldg-118
	BuildingID string `json:"building_id,omitempty" example:"bldg-118"`
	// Committed placement transform.
	Transform Transform `json:"transform"`
	// Last update time in unix seconds.
	// example: 1700000000
	UpdatedAtUnix int64 `json:"updated_at_unix" example:"1700000000"`
}
