package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/matzehuels/forcegraph/pkg/observability"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestLayoutHooks(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	r.OnLayoutStart(ctx, 5)
	r.OnLayoutComplete(ctx, 5, 300, 2*time.Millisecond, nil)
	r.OnLayoutComplete(ctx, 5, 0, time.Millisecond, errors.New("boom"))

	if v := counterValue(t, r.LayoutsTotal.WithLabelValues("success")); v != 1 {
		t.Errorf("layouts_total{success} = %v, want 1", v)
	}
	if v := counterValue(t, r.LayoutsTotal.WithLabelValues("error")); v != 1 {
		t.Errorf("layouts_total{error} = %v, want 1", v)
	}
}

func TestCacheHooks(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	r.OnCacheHit(ctx, "layout")
	r.OnCacheHit(ctx, "layout")
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheSet(ctx, "layout", 512)

	tests := []struct {
		c    prometheus.Counter
		want float64
	}{
		{r.CacheRequests.WithLabelValues("layout", "hit"), 2},
		{r.CacheRequests.WithLabelValues("artifact", "miss"), 1},
		{r.CacheWriteBytes.WithLabelValues("layout"), 512},
	}
	for i, tt := range tests {
		if got := counterValue(t, tt.c); got != tt.want {
			t.Errorf("case %d: got %v, want %v", i, got, tt.want)
		}
	}
}

func TestSessionHooks(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	r.OnSessionOpen(ctx, "a")
	r.OnSessionOpen(ctx, "b")
	r.OnSessionClose(ctx, "a", time.Second)
	r.OnMessage(ctx, "dragstart")
	r.OnFrame(ctx, 0.25)

	if v := gaugeValue(t, r.SessionsActive); v != 1 {
		t.Errorf("sessions_active = %v, want 1", v)
	}
	if v := gaugeValue(t, r.LastFrameAlpha); v != 0.25 {
		t.Errorf("last_frame_alpha = %v, want 0.25", v)
	}
	if v := counterValue(t, r.MessagesTotal.WithLabelValues("dragstart")); v != 1 {
		t.Errorf("messages_total{dragstart} = %v, want 1", v)
	}
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	r := NewRegistry()
	r.Install()
	if observability.Pipeline() != r || observability.Cache() != r || observability.Session() != r {
		t.Error("Install did not register all hooks")
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.OnFrame(context.Background(), 0.5)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "forcegraph_frames_total 1") {
		t.Errorf("scrape output missing frames_total:\n%s", body)
	}
}
