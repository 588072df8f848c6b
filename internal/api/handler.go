package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wile/rsgauges-config/internal/settings"
	"github.com/wile/rsgauges-config/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Registry is the subset of settings.Registry served over HTTP.
type Registry interface {
	Namespace() string
	Title() string
	Settings() []settings.Setting
	Lookup(key string) (settings.Setting, error)
	HandleEvent(ev settings.ChangeEvent, store storage.Store) (bool, error)
}

// Handler wires the settings registry and its store into HTTP handlers.
type Handler struct {
	registry Registry
	store    storage.Store

	clock func() time.Time

	mu       sync.RWMutex
	syncedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(registry Registry, store storage.Store, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: registry,
		store:    store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.syncedAt = h.clock()
	return h
}

// MarkSynced records that the registry was re-synced outside the HTTP surface.
func (h *Handler) MarkSynced() {
	h.mu.Lock()
	h.syncedAt = h.clock()
	h.mu.Unlock()
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Namespace: h.registry.Namespace(),
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	all := h.registry.Settings()
	items := make([]settingResponse, 0, len(all))
	for _, s := range all {
		items = append(items, newSettingResponse(s))
	}

	resp := settingsResponse{
		Namespace: h.registry.Namespace(),
		Title:     h.registry.Title(),
		Settings:  items,
		SyncedAt:  h.currentSyncedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s, err := h.registry.Lookup(key)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownKey) {
			writeError(w, http.StatusNotFound, "Unknown setting", err.Error(), "GET /api/settings lists every declared key")
			return
		}
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSettingResponse(s))
}

func (h *Handler) handleConfigChanged(w http.ResponseWriter, r *http.Request) {
	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	namespace := strings.TrimSpace(req.Namespace)
	if namespace == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "namespace must not be empty")
		return
	}

	applied, err := h.registry.HandleEvent(settings.ChangeEvent{Namespace: namespace}, h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Sync failed", err.Error())
		return
	}

	if !applied {
		writeJSON(w, http.StatusAccepted, changeResponse{
			Applied: false,
			Message: "event ignored: namespace does not match " + h.registry.Namespace(),
		})
		return
	}

	h.MarkSynced()
	writeJSON(w, http.StatusOK, changeResponse{
		Applied:  true,
		SyncedAt: h.currentSyncedAt(),
		Message:  "Settings re-synchronised successfully",
	})
}

func (h *Handler) currentSyncedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.syncedAt
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type changeRequest struct {
	Namespace string `json:"namespace"`
}

type changeResponse struct {
	Applied  bool      `json:"applied"`
	SyncedAt time.Time `json:"syncedAt,omitzero"`
	Message  string    `json:"message,omitempty"`
}

type settingResponse struct {
	Key             string `json:"key"`
	Name            string `json:"name,omitempty"`
	Kind            string `json:"kind"`
	Value           any    `json:"value"`
	Default         any    `json:"default"`
	Min             *int   `json:"min,omitempty"`
	Max             *int   `json:"max,omitempty"`
	RestartRequired bool   `json:"restartRequired"`
	Description     string `json:"description,omitempty"`
}

func newSettingResponse(s settings.Setting) settingResponse {
	resp := settingResponse{
		Key:             s.Key,
		Name:            s.Name,
		Kind:            s.Kind.String(),
		Value:           s.Value,
		Default:         s.Default,
		RestartRequired: s.RestartRequired,
		Description:     s.Description,
	}
	if s.Bounds != nil {
		lo, hi := s.Bounds.Min, s.Bounds.Max
		resp.Min = &lo
		resp.Max = &hi
	}
	return resp
}

type settingsResponse struct {
	Namespace string            `json:"namespace"`
	Title     string            `json:"title,omitempty"`
	Settings  []settingResponse `json:"settings"`
	SyncedAt  time.Time         `json:"syncedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Namespace string    `json:"namespace"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
