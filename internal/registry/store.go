package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"alignd/internal/common/fsutil"
	"alignd/pkg/types"
)

// Store persists committed placements and model-to-building links in
// sqlite. Transforms are stored as JSON text.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if necessary) the placement database at path
// and applies the schema.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	if err := fsutil.EnsureParentDir(path); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS placements (
            id         TEXT PRIMARY KEY,
            model_id   TEXT NOT NULL UNIQUE,
            transform  TEXT NOT NULL,
            updated_at INTEGER NOT NULL
        );
        CREATE TABLE IF NOT EXISTS links (
            model_id    TEXT PRIMARY KEY,
            building_id TEXT NOT NULL,
            created_at  INTEGER NOT NULL
        );
    `)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// PersistTransform upserts the committed transform for a model.
func (s *Store) PersistTransform(ctx context.Context, modelID string, t types.Transform) error {
	blob, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transform: %w", err)
	}
	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO placements (id, model_id, transform, updated_at)
        VALUES (?, ?, ?, ?)
        ON CONFLICT(model_id) DO UPDATE SET transform = excluded.transform, updated_at = excluded.updated_at
    `, uuid.NewString(), modelID, string(blob), now)
	if err != nil {
		return fmt.Errorf("persist transform: %w", err)
	}
	return nil
}

// Link records the model-to-building association. Linking the same pair
// again is a no-op; a different building for an already-linked model is
// a conflict and leaves the stored link untouched.
func (s *Store) Link(ctx context.Context, modelID, buildingID string) error {
	row := s.db.QueryRowContext(ctx,
		`SELECT building_id FROM links WHERE model_id = ?`, modelID)
	var existing string
	err := row.Scan(&existing)
	switch {
	case err == nil:
		if existing == buildingID {
			return nil
		}
		return conflictError{modelID: modelID, linkedTo: existing}
	case errors.Is(err, sql.ErrNoRows):
		// first association
	default:
		return fmt.Errorf("query link: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO links (model_id, building_id, created_at) VALUES (?, ?, ?)
    `, modelID, buildingID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	return nil
}

// GetPlacement returns the committed placement for a model, joined with
// its link when present.
func (s *Store) GetPlacement(ctx context.Context, modelID string) (types.Placement, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT p.id, p.model_id, COALESCE(l.building_id, ''), p.transform, p.updated_at
        FROM placements p LEFT JOIN links l ON l.model_id = p.model_id
        WHERE p.model_id = ?
    `, modelID)
	p, err := scanPlacement(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Placement{}, placementNotFoundError{modelID: modelID}
	}
	return p, err
}

// ListPlacements returns all committed placements.
func (s *Store) ListPlacements(ctx context.Context) ([]types.Placement, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT p.id, p.model_id, COALESCE(l.building_id, ''), p.transform, p.updated_at
        FROM placements p LEFT JOIN links l ON l.model_id = p.model_id
        ORDER BY p.updated_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()
	var out []types.Placement
	for rows.Next() {
		p, err := scanPlacement(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPlacement(scan func(...any) error) (types.Placement, error) {
	var p types.Placement
	var blob string
	if err := scan(&p.ID, &p.ModelID, &p.BuildingID, &blob, &p.UpdatedAtUnix); err != nil {
		return types.Placement{}, err
	}
	if err := json.Unmarshal([]byte(blob), &p.Transform); err != nil {
		return types.Placement{}, fmt.Errorf("decode transform for %s: %w", p.ModelID, err)
	}
	return p, nil
}
