package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rickgao/pond-monitor/internal/model"
	"github.com/rickgao/pond-monitor/internal/session"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeSource is an in-memory Source.
type fakeSource struct {
	mu       sync.Mutex
	state    session.State
	setErr   error
	devices  []string
	watchers []chan session.State
}

func newFakeSource() *fakeSource {
	return &fakeSource{state: session.State{
		SessionID:      "sess-1",
		DeviceID:       "vishnu",
		Strategy:       "server",
		AmpsPerAerator: 2.75,
		History:        []model.Reading{},
		Version:        1,
	}}
}

func (f *fakeSource) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSource) Watch(ctx context.Context) <-chan session.State {
	ch := make(chan session.State, 1)
	f.mu.Lock()
	f.watchers = append(f.watchers, ch)
	f.mu.Unlock()
	return ch
}

func (f *fakeSource) SetDevice(_ context.Context, id string) error {
	f.mu.Lock()
	if f.setErr != nil {
		f.mu.Unlock()
		return f.setErr
	}
	f.devices = append(f.devices, id)
	f.mu.Unlock()

	f.update(func(st *session.State) { st.DeviceID = id })
	return nil
}

func (f *fakeSource) update(fn func(*session.State)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.state)
	f.state.Version++
	for _, ch := range f.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- f.state
	}
}

func (f *fakeSource) watcherCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

func newTestServer(src Source, reg *prometheus.Registry) *Server {
	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	return New(Config{
		MetricsPath:       "/metrics",
		DeviceChangeRate:  100,
		DeviceChangeBurst: 100,
	}, src, gatherer, nil)
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleState(t *testing.T) {
	src := newFakeSource()
	s := newTestServer(src, nil)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/api/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got["device_id"] != "vishnu" {
		t.Errorf("device_id = %v, want vishnu", got["device_id"])
	}
	if live, ok := got["live"]; !ok || live != nil {
		t.Errorf("live = %v, want null", live)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	src.update(func(st *session.State) {
		st.Live = &session.LiveView{Line1: 11, Aerators: 4, CapturedAt: 1705321845}
	})

	rec = doRequest(t, s.Handler(), http.MethodGet, "/api/state", "")
	var st session.State
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatalf("body is not a State: %v", err)
	}
	if st.Live == nil || st.Live.Aerators != 4 || st.Live.Line1 != 11 {
		t.Errorf("Live = %+v", st.Live)
	}
}

func TestHandleHistory(t *testing.T) {
	src := newFakeSource()
	s := newTestServer(src, nil)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/api/history", "")
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty history body = %s, want []", body)
	}

	src.update(func(st *session.State) {
		st.History = []model.Reading{{Line1: 12.5, Timestamp: model.Timestamp{Seconds: 1705321845}}}
	})

	rec = doRequest(t, s.Handler(), http.MethodGet, "/api/history", "")
	want := `[{"line1":12.5,"timestamp":{"_seconds":1705321845}}]`
	if body := strings.TrimSpace(rec.Body.String()); body != want {
		t.Errorf("body = %s, want %s", body, want)
	}
}

func TestHandleSetDevice(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setErr     error
		wantStatus int
		wantDevice string
	}{
		{"valid", `{"device_id":"pond-7"}`, nil, http.StatusOK, "pond-7"},
		{"trims spaces", `{"device_id":"  pond-7 "}`, nil, http.StatusOK, "pond-7"},
		{"empty pauses polling", `{"device_id":""}`, nil, http.StatusOK, ""},
		{"missing field", `{}`, nil, http.StatusBadRequest, "vishnu"},
		{"not json", `device=pond-7`, nil, http.StatusBadRequest, "vishnu"},
		{"session stopped", `{"device_id":"pond-7"}`, session.ErrNotRunning, http.StatusServiceUnavailable, "vishnu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.setErr = tt.setErr
			s := newTestServer(src, nil)

			rec := doRequest(t, s.Handler(), http.MethodPut, "/api/device", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if got := src.State().DeviceID; got != tt.wantDevice {
				t.Errorf("device = %q, want %q", got, tt.wantDevice)
			}
		})
	}
}

func TestHandleSetDevice_RateLimited(t *testing.T) {
	src := newFakeSource()
	s := New(Config{DeviceChangeRate: 0.001, DeviceChangeBurst: 2}, src, nil, nil)

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		rec := doRequest(t, s.Handler(), http.MethodPut, "/api/device", `{"device_id":"d"}`)
		if rec.Code != want {
			t.Errorf("request %d status = %d, want %d", i, rec.Code, want)
		}
	}

	if n := len(src.devices); n != 2 {
		t.Errorf("SetDevice calls = %d, want 2", n)
	}
}

func TestHandleSetDevice_ZeroRateIsUnlimited(t *testing.T) {
	src := newFakeSource()
	s := New(Config{DeviceChangeRate: 0, DeviceChangeBurst: 1}, src, nil, nil)

	for i := 0; i < 5; i++ {
		rec := doRequest(t, s.Handler(), http.MethodPut, "/api/device", `{"device_id":"d"}`)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d status = %d, want 200", i, rec.Code)
		}
	}
}

func TestHandleChart(t *testing.T) {
	src := newFakeSource()
	s := newTestServer(src, nil)
	now := time.Unix(1705321845, 0)
	s.now = func() time.Time { return now }

	src.update(func(st *session.State) {
		st.History = []model.Reading{
			{Line1: 10, Timestamp: model.TimestampOf(now.Add(-time.Hour))},
			{Line1: 11, Timestamp: model.TimestampOf(now)},
		}
	})

	rec := doRequest(t, s.Handler(), http.MethodGet, "/chart.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q, want image/svg+xml", ct)
	}
	if !strings.Contains(rec.Body.String(), "<polyline") {
		t.Error("chart has no line")
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(newFakeSource(), nil)

	rec := doRequest(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got["status"] != "ok" || got["device"] != "vishnu" || got["session"] != "sess-1" {
		t.Errorf("health = %v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "pondmon_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	s := newTestServer(newFakeSource(), reg)
	rec := doRequest(t, s.Handler(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pondmon_test_total 1") {
		t.Errorf("metrics body missing counter:\n%s", rec.Body.String())
	}

	// Without a gatherer the endpoint is not mounted.
	s = newTestServer(newFakeSource(), nil)
	if rec := doRequest(t, s.Handler(), http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("status without gatherer = %d, want 404", rec.Code)
	}
}

func TestWebSocketPushesState(t *testing.T) {
	src := newFakeSource()
	s := newTestServer(src, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	readState := func() session.State {
		t.Helper()
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			t.Fatalf("SetReadDeadline() error = %v", err)
		}
		var msg struct {
			Type string        `json:"type"`
			Data session.State `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type != "state" {
			t.Fatalf("message type = %q, want state", msg.Type)
		}
		return msg.Data
	}

	if st := readState(); st.DeviceID != "vishnu" {
		t.Errorf("initial device = %q, want vishnu", st.DeviceID)
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.watcherCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	if err := src.SetDevice(context.Background(), "pond-7"); err != nil {
		t.Fatalf("SetDevice() error = %v", err)
	}
	if st := readState(); st.DeviceID != "pond-7" {
		t.Errorf("pushed device = %q, want pond-7", st.DeviceID)
	}
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, newFakeSource(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
