package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/forcegraph/pkg/graph"
	"github.com/matzehuels/forcegraph/pkg/layout"
	"github.com/matzehuels/forcegraph/pkg/pipeline"
	"github.com/matzehuels/forcegraph/pkg/watch"
)

func newTestServer(t *testing.T, g *graph.Graph, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, nil, logger), g, logger, opts)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	_, ts := newTestServer(t, graph.Sample(), Options{})

	tests := []struct {
		path        string
		contentType string
		contains    string
	}{
		{"/", "text/html", "new WebSocket"},
		{"/api/scene.svg", "image/svg+xml", `class="forcegraph draggable"`},
		{"/api/layout", "application/json", `"pre_generated"`},
		{"/healthz", "application/json", `"status":"ok"`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %q", ct, tt.contentType)
			}
			if !strings.Contains(body, tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestLayoutSnapshot(t *testing.T) {
	_, ts := newTestServer(t, graph.Sample(), Options{})
	resp, err := http.Get(ts.URL + "/api/layout")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	snap, err := layout.ReadSnapshot(resp.Body)
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(snap.Bodies) != 5 {
		t.Errorf("snapshot has %d bodies, want 5", len(snap.Bodies))
	}
	if snap.Viewport != layout.DefaultViewport {
		t.Errorf("Viewport = %+v, want default", snap.Viewport)
	}
}

func TestEmptyGraphRendersNothing(t *testing.T) {
	_, ts := newTestServer(t, &graph.Graph{}, Options{})
	for _, path := range []string{"/", "/api/layout", "/api/scene.svg", "/ws"} {
		resp, body := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("GET %s status = %d, want 204", path, resp.StatusCode)
		}
		if body != "" {
			t.Errorf("GET %s body = %q, want empty", path, body)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.MinZoom = 5
	cfg.MaxZoom = 1
	_, ts := newTestServer(t, graph.Sample(), Options{Config: cfg})

	resp, body := get(t, ts.URL+"/api/layout")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var e struct{ Error string }
	if err := json.Unmarshal([]byte(body), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if e.Error != "INVALID_CONFIG" {
		t.Errorf("error = %q, want INVALID_CONFIG", e.Error)
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "forcegraph_up 1\n")
	})
	_, ts := newTestServer(t, graph.Sample(), Options{Metrics: metrics})
	if _, body := get(t, ts.URL+"/metrics"); body != "forcegraph_up 1\n" {
		t.Errorf("/metrics body = %q", body)
	}

	_, bare := newTestServer(t, graph.Sample(), Options{})
	if resp, _ := get(t, bare.URL+"/metrics"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("/metrics without handler status = %d, want 404", resp.StatusCode)
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireMessage struct {
	Type    string      `json:"type"`
	Alpha   float64     `json:"alpha"`
	Running bool        `json:"running"`
	Nodes   []nodeFrame `json:"nodes"`
}

func readMessage(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var m wireMessage
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	return m
}

func TestSessionDrag(t *testing.T) {
	s, ts := newTestServer(t, graph.Sample(), Options{FrameInterval: time.Millisecond})
	conn := dial(t, ts)

	first := readMessage(t, conn)
	if first.Type != typeFrame || len(first.Nodes) != 5 {
		t.Fatalf("first message = %+v, want a 5-node frame", first)
	}
	if s.Sessions() != 1 {
		t.Errorf("Sessions() = %d, want 1", s.Sessions())
	}

	if err := conn.WriteJSON(clientMessage{Type: typeDragStart, ID: 1, X: 100, Y: 120}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The dragged node is pinned under the pointer and the simulation
	// warms up again.
	for {
		m := readMessage(t, conn)
		if m.Type != typeFrame {
			continue
		}
		var found bool
		for _, n := range m.Nodes {
			if n.ID == 1 && n.Pinned && n.X == 100 && n.Y == 120 {
				found = true
			}
		}
		if found {
			if !m.Running {
				t.Error("frame after dragstart reports a cold simulation")
			}
			break
		}
	}

	if err := conn.WriteJSON(clientMessage{Type: typeDragEnd, ID: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The simulation cools down and frames stop.
	for {
		if m := readMessage(t, conn); m.Type == typeFrame && !m.Running {
			break
		}
	}
}

func TestSessionIgnoresGarbage(t *testing.T) {
	_, ts := newTestServer(t, graph.Sample(), Options{})
	conn := dial(t, ts)
	readMessage(t, conn)

	for _, raw := range []string{"{", `{"type":"explode","id":1}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// Still alive: a valid gesture gets a frame back.
	if err := conn.WriteJSON(clientMessage{Type: typeDragMove, ID: 99, X: 1, Y: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if m := readMessage(t, conn); m.Type != typeFrame {
		t.Errorf("message = %+v, want frame", m)
	}
}

func TestSetGraphReloadsViewers(t *testing.T) {
	s, ts := newTestServer(t, graph.Sample(), Options{})
	conn := dial(t, ts)
	readMessage(t, conn)

	s.SetGraph(&graph.Graph{Nodes: []graph.Node{{ID: 7, Name: "solo"}}})

	for {
		m := readMessage(t, conn)
		if m.Type == typeReload {
			break
		}
	}
	if s.Graph().Len() != 1 {
		t.Errorf("Graph().Len() = %d, want 1", s.Graph().Len())
	}
}

func TestWatchReloadsGraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nodes.json")
	if err := graph.WriteFile(graph.Sample(), path); err != nil {
		t.Fatal(err)
	}

	s, _ := newTestServer(t, graph.Sample(), Options{})
	w, err := watch.New(path, watch.WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("watch.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	go s.Watch(ctx, w)

	if err := os.WriteFile(path, []byte(`{"nodes":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.Graph().Len() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("graph not reloaded, Len() = %d", s.Graph().Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClientMessage(t *testing.T) {
	tests := []struct {
		in      clientMessage
		want    layout.Message
		wantErr bool
	}{
		{clientMessage{Type: "dragstart", ID: 1, X: 2, Y: 3}, layout.DragStart{ID: 1, X: 2, Y: 3}, false},
		{clientMessage{Type: "dragmove", ID: 1, X: 4, Y: 5}, layout.DragMove{ID: 1, X: 4, Y: 5}, false},
		{clientMessage{Type: "dragend", ID: 1}, layout.DragEnd{ID: 1}, false},
		{clientMessage{Type: "tick"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in.Type, func(t *testing.T) {
			got, err := tt.in.message()
			if (err != nil) != tt.wantErr {
				t.Fatalf("message() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("message() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
