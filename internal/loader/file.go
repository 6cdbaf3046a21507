// Package loader provides the default GeometryLoader used by the cache.
// It reads the asset file and its sidecar metadata; actual GPU upload is
// the renderer's concern and happens behind the Geometry handle.
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"alignd/internal/cache"
	"alignd/pkg/types"
)

// MetadataSource supplies bounds and vertex counts for an asset.
type MetadataSource interface {
	Metadata(id string) (types.ModelMetadata, error)
}

// FileLoader loads assets from disk. It validates that the file is
// present and readable and prices the asset from its metadata.
type FileLoader struct {
	meta MetadataSource
	log  zerolog.Logger
}

func NewFileLoader(meta MetadataSource, log zerolog.Logger) *FileLoader {
	return &FileLoader{meta: meta, log: log}
}

// Load implements cache.Loader.
func (l *FileLoader) Load(ctx context.Context, m types.Model) (cache.Geometry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(m.Path)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()
	// Read the header to catch unreadable files before handing the
	// path to the renderer.
	var header [512]byte
	if _, err := f.Read(header[:]); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read asset header: %w", err)
	}

	meta, err := l.meta.Metadata(m.ID)
	if err != nil {
		return nil, fmt.Errorf("asset metadata: %w", err)
	}
	cost := meta.VertexCount
	if cost <= 0 {
		// No vertex count known: price by file size so budget checks
		// still see a non-zero cost.
		cost = int(m.SizeBytes / 1024)
		if cost <= 0 {
			cost = 1
		}
	}
	l.log.Debug().Str("model", m.ID).Str("format", meta.Format).Int("cost", cost).Msg("asset opened")
	return &fileGeometry{id: m.ID, bounds: meta.BoundingBox, cost: cost}, nil
}

// fileGeometry is the loader's Geometry implementation.
type fileGeometry struct {
	id     string
	bounds types.BoundingBox
	cost   int

	mu       sync.Mutex
	released bool
}

func (g *fileGeometry) Bounds() types.BoundingBox { return g.bounds }

func (g *fileGeometry) Cost() int { return g.cost }

func (g *fileGeometry) Release() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.released {
		return fmt.Errorf("geometry %s already released", g.id)
	}
	g.released = true
	return nil
}
