package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scitix/contactmerge/internal/triage"
	"github.com/scitix/contactmerge/pkg/metrics"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, _ := io.ReadAll(rec.Body)
	return rec.Code, string(body)
}

func TestStatus(t *testing.T) {
	var last *triage.Report
	h := NewHandler("/contactmerge/", prometheus.NewRegistry(), func() *triage.Report { return last })

	code, body := get(t, h, "/contactmerge/status")
	if code != http.StatusOK {
		t.Fatalf("got status %d", code)
	}
	var resp StatusResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if resp.Report != nil || resp.Message != "No run finished yet" {
		t.Errorf("unexpected response before first run: %s", body)
	}

	last = &triage.Report{RunID: "run-1", Filter: "%", Merged: 2}
	_, body = get(t, h, "/contactmerge/status")
	resp = StatusResponse{}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	if resp.Code != OK || resp.Report == nil || resp.Report.RunID != "run-1" || resp.Report.Merged != 2 {
		t.Errorf("unexpected response: %s", body)
	}
}

func TestStatusMethodNotAllowed(t *testing.T) {
	h := NewHandler("/", prometheus.NewRegistry(), func() *triage.Report { return nil })

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("got status %d", rec.Code)
	}
}

func TestMetricsAndHealthz(t *testing.T) {
	m := metrics.NewMetricsController()
	m.ObserveTicket("merge", "", false)
	h := NewHandler("", m.Registry(), func() *triage.Report { return nil })
	// a second handler on the same registry must not panic
	_ = NewHandler("", m.Registry(), func() *triage.Report { return nil })

	code, body := get(t, h, "/metrics")
	if code != http.StatusOK {
		t.Fatalf("got status %d", code)
	}
	if !strings.Contains(body, `contactmerge_ticket_processed_total{action="merge"} 1`) {
		t.Errorf("missing ticket counter in:\n%s", body)
	}
	if !strings.Contains(body, "go_build_info") {
		t.Errorf("missing build info in:\n%s", body)
	}

	code, body = get(t, h, "/healthz")
	if code != http.StatusOK || !strings.Contains(body, `"code":200`) {
		t.Errorf("healthz: %d %s", code, body)
	}
}

func TestRunHttpServer(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := strconv.Itoa(l.Addr().(*net.TCPAddr).Port)
	l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunHttpServer(ctx, port, NewHandler("", prometheus.NewRegistry(), func() *triage.Report { return nil }))
	}()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://127.0.0.1:" + port + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server did not come up: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunHttpServer: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}
