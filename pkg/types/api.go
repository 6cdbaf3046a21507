package types

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// PlacementsResponse wraps the list of placements returned by GET /placements.
type PlacementsResponse struct {
	Placements []Placement `json:"placements"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// AlignEnterRequest starts an alignment session.
type AlignEnterRequest struct {
	// Model to align.
	// example: townhall.glb
	ModelID string `json:"model_id" example:"townhall.glb"`
	// Target footprints; must be non-empty.
	Polygons []Polygon `json:"polygons"`
}

// AlignTransformRequest replaces the session's current transform.
type AlignTransformRequest struct {
	Transform Transform `json:"transform"`
}

// AlignCommitRequest commits the session's current transform.
type AlignCommitRequest struct {
	// Building to link the model to on first association. Optional when
	// the model is already linked.
	// example: bldg-118
	BuildingID string `json:"building_id,omitempty" example:"bldg-118"`
}

// AssetStatus summarizes one cached asset for /status.
type AssetStatus struct {
	// Model the asset was loaded from.
	// example: townhall.glb
	ModelID string `json:"model_id" example:"townhall.glb"`
	// Lifecycle state (unloaded, loading, ready, failed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Number of active borrowers.
	// example: 1
	Refs int `json:"refs" example:"1"`
	// Eviction cost charged against the cache budget.
	// example: 48211
	Cost int `json:"cost" example:"48211"`
	// Last acquire/release time in unix seconds.
	// example: 1700000000
	LastUsedUnix int64 `json:"last_used_unix" example:"1700000000"`
}

// CacheStatus summarizes the model cache for /status.
type CacheStatus struct {
	// Resident assets.
	Assets []AssetStatus `json:"assets"`
	// Configured cost budget (0 = unlimited).
	// example: 2000000
	BudgetCost int `json:"budget_cost" example:"2000000"`
	// Cost reserved as headroom below the budget.
	// example: 100000
	MarginCost int `json:"margin_cost" example:"100000"`
	// Sum of resident asset costs.
	// example: 96422
	UsedCost int `json:"used_cost" example:"96422"`
	// Total successful loads.
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// Total failed loads.
	// example: 1
	LoadFailuresTotal uint64 `json:"load_failures_total" example:"1"`
	// Total evictions.
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
}

// SessionStatus summarizes the alignment session for /status.
type SessionStatus struct {
	// Controller state (idle, preparing, aligning, committing).
	// example: aligning
	State string `json:"state" example:"aligning"`
	// Session identifier (UUID); empty when idle.
	SessionID string `json:"session_id,omitempty"`
	// Model under alignment; empty when idle.
	ModelID string `json:"model_id,omitempty" example:"townhall.glb"`
	// Target footprint identifiers.
	PolygonIDs []string `json:"polygon_ids,omitempty"`
	// Solver-proposed transform; set once the session reaches aligning.
	Initial *Transform `json:"initial_transform,omitempty"`
	// User-adjusted transform; tracks the latest update.
	Current *Transform `json:"current_transform,omitempty"`
	// Last session error (load or solve failure), if any.
	LastError string `json:"last_error,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Cache   CacheStatus   `json:"cache"`
	Session SessionStatus `json:"session"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
