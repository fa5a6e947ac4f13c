package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"sync"
	"time"
)

// Overrides holds schedule parameters that can override config defaults.
// Nil fields mean "use the configured value"; sanitization still clamps
// whatever gets through.
type Overrides struct {
	SecondsPerFrame      *int  `json:"seconds_per_frame,omitempty"`
	Hours                *int  `json:"hours,omitempty"`
	Minutes              *int  `json:"minutes,omitempty"`
	Endless              *bool `json:"endless,omitempty"`
	FocusAtStart         *bool `json:"focus_at_start,omitempty"`
	DisplayOffAfterFrame *int  `json:"display_off_after_frame,omitempty"`
}

// ValidateOverrides rejects values no sanitization clamp should be asked to
// rescue: negatives and absurd magnitudes get a 400 instead of a silent fix.
func ValidateOverrides(o Overrides) error {
	if o.SecondsPerFrame != nil && (*o.SecondsPerFrame < 1 || *o.SecondsPerFrame > 86400) {
		return fmt.Errorf("seconds_per_frame must be between 1 and 86400, got %d", *o.SecondsPerFrame)
	}
	if o.Hours != nil && (*o.Hours < 0 || *o.Hours > 10000) {
		return fmt.Errorf("hours must be between 0 and 10000, got %d", *o.Hours)
	}
	if o.Minutes != nil && (*o.Minutes < 0 || *o.Minutes > 59) {
		return fmt.Errorf("minutes must be between 0 and 59, got %d", *o.Minutes)
	}
	if o.DisplayOffAfterFrame != nil && (*o.DisplayOffAfterFrame < 0 || *o.DisplayOffAfterFrame > 1000000) {
		return fmt.Errorf("display_off_after_frame must be between 0 and 1000000, got %d", *o.DisplayOffAfterFrame)
	}
	return nil
}

// RunTimelapseFunc runs a timelapse with the given overrides.
// It is called from the POST /run handler in a goroutine.
type RunTimelapseFunc func(ctx context.Context, overrides Overrides) error

// FormConfig holds default values for the run form (from config).
type FormConfig struct {
	SecondsPerFrame      int  `json:"seconds_per_frame"`
	Hours                int  `json:"hours"`
	Minutes              int  `json:"minutes"`
	Endless              bool `json:"endless"`
	FocusAtStart         bool `json:"focus_at_start"`
	DisplayOffAfterFrame int  `json:"display_off_after_frame"`
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster  *StatusBroadcaster
	RunTimelapse RunTimelapseFunc
	FormDefaults FormConfig
	runningMu    sync.Mutex
	running      bool
	staticFS     fs.FS
}

// NewHandlers creates handlers with the given dependencies.
// If runTimelapse is nil, POST /run will return 503 Service Unavailable.
func NewHandlers(broadcaster *StatusBroadcaster, runTimelapse RunTimelapseFunc, formDefaults FormConfig, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster:  broadcaster,
		RunTimelapse: runTimelapse,
		FormDefaults: formDefaults,
		staticFS:     staticFS,
	}
}

// HandleConfig returns the form default values (from config) as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.FormDefaults)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleRun handles POST /run to start a timelapse.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var overrides Overrides
	if err := json.NewDecoder(r.Body).Decode(&overrides); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := ValidateOverrides(overrides); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.RunTimelapse == nil {
		http.Error(w, "timelapse not configured", http.StatusServiceUnavailable)
		return
	}

	h.runningMu.Lock()
	if h.running {
		h.runningMu.Unlock()
		http.Error(w, "timelapse already in progress", http.StatusConflict)
		return
	}
	h.running = true
	h.runningMu.Unlock()

	// Run in goroutine; clear running when done
	go func() {
		defer func() {
			h.runningMu.Lock()
			h.running = false
			h.runningMu.Unlock()
		}()

		ctx := context.Background()
		if err := h.RunTimelapse(ctx, overrides); err != nil {
			h.Broadcaster.BroadcastErr("Timelapse failed: " + err.Error())
			log.Printf("timelapse failed: %v", err)
		} else {
			h.Broadcaster.BroadcastMsg("Run finished")
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
