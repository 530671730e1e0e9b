package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsEndpoint_ExposesActionSeries(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := telemetry.NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.ActionProposed(action.KindShellCommand)

	g, _ := newTestGateway(t, AuthConfig{})
	g.metrics = m
	g.gatherer = reg

	srv := httptest.NewServer(g.buildRouter())
	defer srv.Close()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL+"/metrics", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	want := `toolgate_actions_proposed_total{kind="shell_command"} 1`
	if !strings.Contains(string(body), want) {
		t.Errorf("metrics body missing %q:\n%s", want, body)
	}
}
