package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"alignd/internal/align"
	"alignd/pkg/types"
)

// ModelService is the catalog slice the HTTP layer needs.
type ModelService interface {
	List() []types.Model
	Lookup(id string) (types.Model, bool)
	Metadata(id string) (types.ModelMetadata, error)
}

// CacheService exposes cache warming and status.
type CacheService interface {
	Prefetch(ctx context.Context, ids ...string) error
	Snapshot() types.CacheStatus
}

// AlignService drives the single alignment session.
type AlignService interface {
	Enter(modelID string, polys []types.Polygon) (align.Snapshot, error)
	UpdateTransform(t types.Transform) (align.Snapshot, error)
	Commit(ctx context.Context, buildingID string) (align.Snapshot, error)
	Cancel() (align.Snapshot, error)
	Snapshot() align.Snapshot
}

// PlacementService reads committed placements.
type PlacementService interface {
	ListPlacements(ctx context.Context) ([]types.Placement, error)
	GetPlacement(ctx context.Context, modelID string) (types.Placement, error)
}

// Deps wires the services behind the HTTP API.
type Deps struct {
	Models     ModelService
	Cache      CacheService
	Align      AlignService
	Placements PlacementService
	Start      time.Time
}

func NewMux(deps Deps) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: deps.Models.List()})
	})

	r.Get("/models/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		mdl, ok := deps.Models.Lookup(id)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "model not found: "+id)
			return
		}
		writeJSON(w, http.StatusOK, mdl)
	})

	r.Get("/models/{id}/metadata", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		meta, err := deps.Models.Metadata(id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, meta)
	})

	r.Post("/models/{id}/prefetch", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := deps.Models.Lookup(id); !ok {
			writeJSONError(w, http.StatusNotFound, "model not found: "+id)
			return
		}
		// Warm in the background; the caller polls /status for progress.
		go func() {
			if err := deps.Cache.Prefetch(serverBaseCtx, id); err != nil && zlog != nil {
				zlog.Warn().Str("model", id).Err(err).Msg("prefetch failed")
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "warming", "model_id": id})
	})

	r.Get("/placements", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		list, err := deps.Placements.ListPlacements(ctx)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.PlacementsResponse{Placements: list})
	})

	r.Get("/placements/{modelID}", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		p, err := deps.Placements.GetPlacement(ctx, chi.URLParam(r, "modelID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	})

	r.Post("/align/enter", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req types.AlignEnterRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		snap, err := deps.Align.Enter(req.ModelID, req.Polygons)
		if err != nil {
			writeDomainError(w, err)
			logRequestEnd(r, "align.enter", errorStatus(err), start, err)
			return
		}
		// Load and solve proceed asynchronously; poll /status.
		writeJSON(w, http.StatusAccepted, sessionStatus(snap))
		logRequestEnd(r, "align.enter", http.StatusAccepted, start, nil)
	})

	r.Post("/align/transform", func(w http.ResponseWriter, r *http.Request) {
		var req types.AlignTransformRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		snap, err := deps.Align.UpdateTransform(req.Transform)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionStatus(snap))
	})

	r.Post("/align/commit", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var req types.AlignCommitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		// Join server base context with request context so shutdown cancels work too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if commitTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, time.Duration(commitTimeout)*time.Second)
			defer tcancel()
		}
		snap, err := deps.Align.Commit(ctx, req.BuildingID)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeDomainError(w, err)
			logRequestEnd(r, "align.commit", errorStatus(err), start, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionStatus(snap))
		logRequestEnd(r, "align.commit", http.StatusOK, start, nil)
	})

	r.Post("/align/cancel", func(w http.ResponseWriter, r *http.Request) {
		snap, err := deps.Align.Cancel()
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionStatus(snap))
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		resp := types.StatusResponse{
			Cache:          deps.Cache.Snapshot(),
			Session:        sessionStatus(deps.Align.Snapshot()),
			UptimeSeconds:  int64(now.Sub(deps.Start).Seconds()),
			ServerTimeUnix: now.Unix(),
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Models != nil {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// decodeJSON enforces content type and body limits before decoding.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

// sessionStatus projects a controller snapshot into the wire shape.
func sessionStatus(s align.Snapshot) types.SessionStatus {
	return types.SessionStatus{
		State:      string(s.State),
		SessionID:  s.SessionID,
		ModelID:    s.ModelID,
		PolygonIDs: s.PolygonIDs,
		Initial:    s.Initial,
		Current:    s.Current,
		LastError:  s.Err,
	}
}
