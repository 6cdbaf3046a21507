package alignctl

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"alignd/pkg/types"
)

// parsePolygonSpec parses the compact command-line footprint form
// "id:x,y[,z];x,y[,z];..." into a Polygon. Z defaults to 0.
func parsePolygonSpec(spec string) (types.Polygon, error) {
	var p types.Polygon
	id, rest, ok := strings.Cut(spec, ":")
	if !ok || id == "" {
		return p, fmt.Errorf("polygon spec must be id:x,y;x,y;... got %q", spec)
	}
	p.ID = id
	for _, part := range strings.Split(rest, ";") {
		coords := strings.Split(part, ",")
		if len(coords) != 2 && len(coords) != 3 {
			return p, fmt.Errorf("vertex %q must be x,y or x,y,z", part)
		}
		var v [3]float64
		for i, c := range coords {
			f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
			if err != nil {
				return p, fmt.Errorf("vertex %q: %w", part, err)
			}
			v[i] = f
		}
		p.Vertices = append(p.Vertices, v)
	}
	if len(p.Vertices) < 3 {
		return p, fmt.Errorf("polygon %s needs at least 3 vertices, got %d", p.ID, len(p.Vertices))
	}
	return p, nil
}

// loadPolygonsFile reads a JSON file holding either a polygon array or an
// object with a "polygons" key.
func loadPolygonsFile(path string) ([]types.Polygon, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var list []types.Polygon
	if err := json.Unmarshal(b, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Polygons []types.Polygon `json:"polygons"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return wrapped.Polygons, nil
}
