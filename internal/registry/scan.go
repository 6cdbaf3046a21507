package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"alignd/internal/common/fsutil"
	"alignd/pkg/types"
)

// assetExtensions lists the model formats the scanner recognizes. The
// format tag is the extension without the dot.
var assetExtensions = map[string]string{
	".glb":  "glb",
	".gltf": "gltf",
	".obj":  "obj",
	".fbx":  "fbx",
}

// ScanDir scans a directory for 3D asset files and builds the model list.
// ID is the full filename (including extension); Path is the absolute
// file path. Sidecar metadata files are not listed as models.
func ScanDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		format, ok := assetExtensions[strings.ToLower(filepath.Ext(name))]
		if !ok {
			continue
		}
		p := filepath.Join(abs, name)
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		models = append(models, types.Model{
			ID:        name,
			Name:      name,
			Path:      p,
			Format:    format,
			SizeBytes: size,
		})
	}
	return models, nil
}
