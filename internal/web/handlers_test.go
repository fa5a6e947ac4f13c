package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"
)

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }

func TestValidateOverrides(t *testing.T) {
	cases := []struct {
		name    string
		o       Overrides
		wantErr bool
	}{
		{"empty", Overrides{}, false},
		{"all valid", Overrides{
			SecondsPerFrame: intp(5), Hours: intp(2), Minutes: intp(30),
			Endless: boolp(false), DisplayOffAfterFrame: intp(3),
		}, false},
		{"spf zero", Overrides{SecondsPerFrame: intp(0)}, true},
		{"spf over a day", Overrides{SecondsPerFrame: intp(86401)}, true},
		{"spf at bounds", Overrides{SecondsPerFrame: intp(86400)}, false},
		{"negative hours", Overrides{Hours: intp(-1)}, true},
		{"hours absurd", Overrides{Hours: intp(10001)}, true},
		{"minutes 60", Overrides{Minutes: intp(60)}, true},
		{"minutes 0", Overrides{Minutes: intp(0)}, false},
		{"negative display off", Overrides{DisplayOffAfterFrame: intp(-1)}, true},
		{"display off zero", Overrides{DisplayOffAfterFrame: intp(0)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateOverrides(c.o)
			if c.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !c.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func newTestHandlers(run RunTimelapseFunc) *Handlers {
	static := fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html>lapsego</html>")},
	}
	return NewHandlers(NewStatusBroadcaster(), run, FormConfig{
		SecondsPerFrame: 3,
		Minutes:         1,
		Endless:         true,
	}, static)
}

func TestHandleRunStartsTimelapse(t *testing.T) {
	var (
		mu  sync.Mutex
		got Overrides
	)
	done := make(chan struct{})
	h := newTestHandlers(func(ctx context.Context, o Overrides) error {
		mu.Lock()
		got = o
		mu.Unlock()
		close(done)
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/run",
		strings.NewReader(`{"seconds_per_frame": 10, "endless": false}`))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("run function never called")
	}

	mu.Lock()
	defer mu.Unlock()
	if got.SecondsPerFrame == nil || *got.SecondsPerFrame != 10 {
		t.Errorf("seconds_per_frame override not passed through: %+v", got)
	}
	if got.Endless == nil || *got.Endless {
		t.Errorf("endless override not passed through: %+v", got)
	}
	if got.Hours != nil {
		t.Errorf("hours should stay nil when absent from the request")
	}
}

func TestHandleRunRejectsInvalidJSON(t *testing.T) {
	h := newTestHandlers(func(ctx context.Context, o Overrides) error { return nil })

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleRunRejectsBadOverrides(t *testing.T) {
	h := newTestHandlers(func(ctx context.Context, o Overrides) error { return nil })

	req := httptest.NewRequest(http.MethodPost, "/run",
		strings.NewReader(`{"minutes": 99}`))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "minutes") {
		t.Errorf("error body should name the field: %q", rec.Body.String())
	}
}

func TestHandleRunMethodNotAllowed(t *testing.T) {
	h := newTestHandlers(func(ctx context.Context, o Overrides) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/run", nil)
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleRunNilFunc(t *testing.T) {
	h := newTestHandlers(nil)

	req := httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.HandleRun(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHandleRunConflictWhileRunning(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	h := newTestHandlers(func(ctx context.Context, o Overrides) error {
		close(started)
		<-block
		return nil
	})
	defer close(block)

	rec := httptest.NewRecorder()
	h.HandleRun(rec, httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{}")))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("first run: status = %d", rec.Code)
	}
	<-started

	rec = httptest.NewRecorder()
	h.HandleRun(rec, httptest.NewRequest(http.MethodPost, "/run", strings.NewReader("{}")))
	if rec.Code != http.StatusConflict {
		t.Errorf("second run: status = %d, want 409", rec.Code)
	}
}

func TestHandleConfig(t *testing.T) {
	h := newTestHandlers(nil)

	rec := httptest.NewRecorder()
	h.HandleConfig(rec, httptest.NewRequest(http.MethodGet, "/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var form FormConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if form.SecondsPerFrame != 3 || !form.Endless {
		t.Errorf("form = %+v", form)
	}
}

func TestServeIndex(t *testing.T) {
	h := newTestHandlers(nil)

	rec := httptest.NewRecorder()
	h.ServeIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "lapsego") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestServeIndexMissingFile(t *testing.T) {
	h := NewHandlers(NewStatusBroadcaster(), nil, FormConfig{}, fstest.MapFS{})

	rec := httptest.NewRecorder()
	h.ServeIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleStatusStream(t *testing.T) {
	h := newTestHandlers(nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/status/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HandleStatusStream(rec, req)
		close(done)
	}()

	// Wait for the subscription before broadcasting.
	deadline := time.After(time.Second)
	for {
		h.Broadcaster.mu.RLock()
		n := len(h.Broadcaster.clients)
		h.Broadcaster.mu.RUnlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("stream never subscribed")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	h.Broadcaster.BroadcastMsg("shot 5")
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not return on disconnect")
	}

	body := rec.Body.String()
	if !strings.Contains(body, ": connected") {
		t.Errorf("missing connection comment: %q", body)
	}
	if !strings.Contains(body, "shot 5") {
		t.Errorf("broadcast missing from stream: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}
