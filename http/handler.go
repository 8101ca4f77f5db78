package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/sagarc03/assetgate"
	"github.com/sagarc03/assetgate/diagnostic"
)

// Cache directives per outcome.
const (
	CacheControlBlocked    = "public, max-age=604800"
	CacheControlNotAllowed = "public, max-age=1800"
	CacheControlMiss       = "public, max-age=300"
	CacheControlHit        = "public, max-age=31536000, immutable"
)

// Outcome labels reported to an OutcomeRecorder.
const (
	OutcomeBlocked    = "blocked"
	OutcomeNotAllowed = "not_allowed_extension"
	OutcomeMiss       = "miss"
	OutcomeHit        = "hit"
	OutcomeError      = "error"
)

// FetchTimingName is the timing attached to slow request events.
const FetchTimingName = "r2_fetch_time_ms"

// OutcomeRecorder receives per-request outcomes, e.g. for metrics.
type OutcomeRecorder interface {
	RecordOutcome(outcome string)
	RecordFetch(outcome string, d time.Duration)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	Diagnostics diagnostic.Config
	CORS        CORSConfig
	// AccessLogger enables the access log middleware when set.
	AccessLogger *slog.Logger
	// Recorder is optional.
	Recorder OutcomeRecorder
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler serves assets from an ObjectStore.
type Handler struct {
	config HandlerConfig
	store  assetgate.ObjectStore
	now    func() time.Time
}

// NewHandler creates a new Handler with the given configuration and store.
func NewHandler(config *HandlerConfig, store assetgate.ObjectStore) *Handler {
	cfg := *config
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if cfg.Diagnostics.Now == nil {
		cfg.Diagnostics.Now = now
	}

	return &Handler{
		config: cfg,
		store:  store,
		now:    now,
	}
}

// Router returns an http.Handler serving GET and HEAD for every path.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.AccessLogger != nil {
		r.Use(AccessLog(h.config.AccessLogger))
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/*", h.handleGet)
	r.Head("/*", h.handleGet)

	return r
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestStart := h.now()
	dl := diagnostic.New(r, h.config.Diagnostics)

	c := assetgate.Classify(r.URL.Path)
	switch c.Verdict {
	case assetgate.VerdictBlocked:
		dl.BotAttack(ctx, c.Reason)
		h.recordOutcome(OutcomeBlocked)
		WriteText(w, http.StatusForbidden, CacheControlBlocked, "Forbidden")
		return
	case assetgate.VerdictNotAllowedExtension:
		// Left to the access log only.
		h.recordOutcome(OutcomeNotAllowed)
		WriteText(w, http.StatusNotFound, CacheControlNotAllowed, "Not Found")
		return
	}

	key := c.Key
	fetchStart := h.now()
	obj, err := h.store.Get(ctx, key)
	fetchDuration := h.now().Sub(fetchStart)
	totalDuration := h.now().Sub(requestStart)

	if err != nil {
		if errors.Is(err, assetgate.ErrNotFound) {
			h.recordFetch(OutcomeMiss, fetchDuration)
		} else {
			dl.StorageError(ctx, key, err)
			h.recordFetch(OutcomeError, fetchDuration)
		}
		HandleError(w, err)
		return
	}
	if obj == nil {
		h.recordFetch(OutcomeMiss, fetchDuration)
		HandleError(w, assetgate.ErrNotFound)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	header := w.Header()
	obj.WriteHTTPMetadata(header)
	if obj.Size >= 0 {
		header.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if etag := obj.HTTPETag(); etag != "" {
		header.Set("ETag", etag)
	}
	header.Set("Cache-Control", CacheControlHit)

	dl.SlowRequest(ctx, totalDuration, diagnostic.Timing{Name: FetchTimingName, Duration: fetchDuration})
	dl.LargeAsset(ctx, key, obj.Size, fetchDuration)
	h.recordFetch(OutcomeHit, fetchDuration)

	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, obj.Body); err != nil {
		slog.Debug("asset body copy interrupted", "key", key, "err", err)
	}
}

func (h *Handler) recordOutcome(outcome string) {
	if h.config.Recorder != nil {
		h.config.Recorder.RecordOutcome(outcome)
	}
}

func (h *Handler) recordFetch(outcome string, d time.Duration) {
	if h.config.Recorder != nil {
		h.config.Recorder.RecordFetch(outcome, d)
	}
}
