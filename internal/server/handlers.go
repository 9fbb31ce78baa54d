package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-farm-engine/internal/ai"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farm"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/farmengine"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/flags"
	"github.com/aman-zulfiqar/solana-farm-engine/internal/models"
)

// Engine is the farm engine surface the API serves.
type Engine interface {
	Farm(id string) (*farmengine.Orchestrator, error)
	Farms() []*farmengine.Orchestrator
	Connected() bool
	Owner() string
	Connect(ctx context.Context) error
	Disconnect()
	RecentActions(ctx context.Context, limit int64) ([]*models.FarmActionEvent, error)
	History(ctx context.Context, farmID string, limit int) ([]*models.FarmActionEvent, error)
}

// FlagStore is the Redis-backed operator flag store.
type FlagStore interface {
	Upsert(ctx context.Context, key string, value bool) (*flags.Flag, error)
	Get(ctx context.Context, key string) (*flags.Flag, error)
	List(ctx context.Context, match flags.Match) ([]*flags.Flag, error)
	Delete(ctx context.Context, key string) error
	SetActionPaused(ctx context.Context, kind farm.ActionKind, paused bool) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine       Engine         // Farm engine
	Flags        FlagStore      // Redis-backed feature flags store (optional)
	AI           *ai.Agent      // AI agent for natural language queries (optional)
	AIBaseConfig ai.AgentConfig // Base configuration for AI agents
	DevMode      bool           // Enable detailed error responses in development
	Logger       *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// engineErr maps an engine error onto a JSON response. Submission failures
// carry the fixed per-action message rather than the cause.
func (h *Handlers) engineErr(c echo.Context, err error) error {
	code := statusFor(err)

	var subErr *farmengine.SubmissionError
	if errors.As(err, &subErr) {
		resp := ErrorResponse{Error: subErr.Message(), Code: code, Description: farmengine.FailureDescription}
		if h.DevMode {
			resp.Details = map[string]any{"err": err.Error()}
		}
		return c.JSON(code, resp)
	}
	if code == http.StatusInternalServerError {
		h.logger().WithError(err).Error("request failed")
		return h.err(c, code, "internal server error", map[string]any{"err": err.Error()})
	}
	return h.err(c, code, err.Error(), nil)
}

func (h *Handlers) logger() *logrus.Logger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// limitParam parses the limit query parameter within [1, maxLimit].
func limitParam(c echo.Context, def, maxLimit int) (int, bool) {
	limitStr := c.QueryParam("limit")
	if limitStr == "" {
		return def, true
	}
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 || n > maxLimit {
		return 0, false
	}
	return n, true
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		OK:        true,
		Farms:     len(h.Engine.Farms()),
		Connected: h.Engine.Connected(),
	})
}

// FlagsUpsert creates or updates a feature flag with the given key and value
func (h *Handlers) FlagsUpsert(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	var req FlagUpsertRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if err := flags.ValidateKey(req.Key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, req.Key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to upsert flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsUpdate updates an existing feature flag with the given key
func (h *Handlers) FlagsUpdate(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}
	var req FlagUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Upsert(ctx, key, req.Value)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to update flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsGet retrieves a feature flag by its key
func (h *Handlers) FlagsGet(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Flags.Get(ctx, key)
	if err != nil {
		if errors.Is(err, flags.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "flag not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get flag", nil)
	}
	return c.JSON(http.StatusOK, out)
}

// FlagsList returns all feature flags. ?actions=true keeps only the action
// pause switches.
func (h *Handlers) FlagsList(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var match flags.Match
	if c.QueryParam("actions") == "true" {
		match = flags.ActionPauses
	}
	items, err := h.Flags.List(ctx, match)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list flags", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FlagsDelete removes a feature flag by its key
func (h *Handlers) FlagsDelete(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	key := c.Param("key")
	if err := flags.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete flag", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// ActionPause pauses or resumes one action kind across all farms
func (h *Handlers) ActionPause(c echo.Context) error {
	if h.Flags == nil {
		return h.err(c, http.StatusServiceUnavailable, "flags are not configured", nil)
	}
	kind, err := farm.ParseActionKind(c.Param("kind"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid action", map[string]any{"kind": c.Param("kind")})
	}
	var req PauseRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Flags.SetActionPaused(ctx, kind, req.Paused); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to set pause flag", nil)
	}
	h.logger().WithFields(logrus.Fields{"action": kind, "paused": req.Paused}).Info("action pause updated")
	return c.JSON(http.StatusOK, map[string]any{"action": kind, "paused": req.Paused})
}

// AIAsk answers natural language questions about farm activity
// Supports optional model override for one-off requests
func (h *Handlers) AIAsk(c echo.Context) error {
	if h.AI == nil {
		return h.err(c, http.StatusBadRequest, "ai is not configured", nil)
	}

	var req AIAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	// Use default AI agent or create temporary one with custom model
	agent := h.AI
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.AIBaseConfig
		cfg.Model = m
		a, err := ai.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create ai agent", nil)
		}
		agent = a
		defer func() {
			_ = a.Close()
		}()
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "ai ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, AIAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
