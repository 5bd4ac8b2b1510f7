package observability

import (
	"bytes"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsRegistryAndHandler(t *testing.T) {
	reg := InitRegistry()

	// record samples so the vectors are exported
	ObserveHTTP("/test", "GET", 200, 12*time.Millisecond)
	ObserveStore("hotel", "create", "ok")
	ObserveIdentity("hotel", "hit")

	mh := MetricsHandler(reg)
	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	mh.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}
	body, _ := io.ReadAll(rr.Body)
	out := string(body)
	for _, name := range []string{
		"hotelbook_http_requests_total",
		"hotelbook_store_ops_total",
		"hotelbook_identity_events_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output", name)
		}
	}
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "prod", "warn")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestServeListensOnGivenAddr(t *testing.T) {
	Serve("") // disabled, returns without listening

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback listener: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	Serve(addr)

	deadline := time.Now().Add(2 * time.Second)
	for {
		res, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			body, _ := io.ReadAll(res.Body)
			_ = res.Body.Close()
			if res.StatusCode != http.StatusOK || !strings.Contains(string(body), "go_goroutines") {
				t.Fatalf("unexpected metrics answer %d", res.StatusCode)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics listener never came up on %s: %v", addr, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
