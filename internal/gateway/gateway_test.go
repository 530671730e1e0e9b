package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/flemzord/toolgate/internal/core"
)

func TestGateway_ModuleInfo(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	info := g.ModuleInfo()

	if info.ID != "gateway.http" {
		t.Errorf("ID = %q, want %q", info.ID, "gateway.http")
	}
	if info.New == nil {
		t.Fatal("New func is nil")
	}
	if _, ok := info.New().(*Gateway); !ok {
		t.Error("New() should return *Gateway")
	}
}

func TestGateway_ConfigureDefaults(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	if err := g.Configure(mustYAMLNode(t, "{}")); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if g.config.Bind != "127.0.0.1:8080" {
		t.Errorf("Bind = %q, want default", g.config.Bind)
	}
	if g.config.ReadTimeout != 10*time.Second {
		t.Errorf("ReadTimeout = %v, want 10s", g.config.ReadTimeout)
	}
	if g.config.WriteTimeout != 0 {
		t.Errorf("WriteTimeout = %v, want unset until Start", g.config.WriteTimeout)
	}
	if g.config.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 5s", g.config.ShutdownTimeout)
	}
	if g.config.MaxBodySize != DefaultMaxBodySize {
		t.Errorf("MaxBodySize = %d, want %d", g.config.MaxBodySize, DefaultMaxBodySize)
	}
}

func TestGateway_ConfigureCustom(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	node := mustYAMLNode(t, `
bind: "0.0.0.0:9090"
read_timeout: 5s
write_timeout: 15s
shutdown_timeout: 10s
max_body_size: 1024
auth:
  bearer_token: "my-token"
`)

	if err := g.Configure(node); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	if g.config.Bind != "0.0.0.0:9090" {
		t.Errorf("Bind = %q, want %q", g.config.Bind, "0.0.0.0:9090")
	}
	if g.config.WriteTimeout != 15*time.Second {
		t.Errorf("WriteTimeout = %v, want 15s", g.config.WriteTimeout)
	}
	if g.config.MaxBodySize != 1024 {
		t.Errorf("MaxBodySize = %d, want 1024", g.config.MaxBodySize)
	}
	if g.config.Auth.BearerToken != "my-token" {
		t.Errorf("BearerToken = %q, want %q", g.config.Auth.BearerToken, "my-token")
	}
}

func TestGateway_ValidateGoodAddress(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	g.config.Bind = "127.0.0.1:8080"
	if err := g.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestGateway_ValidateBadAddress(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	g.config.Bind = "not a valid address::"
	if err := g.Validate(); err == nil {
		t.Error("expected validation error for bad address")
	}
}

func TestGateway_WriteTimeoutCoversActionTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		configured time.Duration
		want       time.Duration
		wantErr    bool
	}{
		{"derived", 0, action.DefaultShellTimeout + writeMargin, false},
		{"longer than action", 10 * time.Minute, 10 * time.Minute, false},
		{"equal to action", action.DefaultShellTimeout, 0, true},
		{"shorter than action", 15 * time.Second, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g, _ := newTestGateway(t, AuthConfig{})
			g.config.WriteTimeout = tt.configured

			got, err := g.writeTimeout()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("writeTimeout = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGateway_StartRejectsShortWriteTimeout(t *testing.T) {
	t.Parallel()

	appCtx, _ := newAppContext(t)
	g := &Gateway{}
	g.config = Config{Bind: freeAddr(t), WriteTimeout: time.Minute}
	if err := g.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	err := g.Start()
	if err == nil {
		_ = g.Stop(context.Background())
		t.Fatal("Start accepted a write_timeout below actions.timeout")
	}
	if !strings.Contains(err.Error(), "write_timeout") {
		t.Errorf("error = %v, want it to name write_timeout", err)
	}
}

func TestGateway_StartWithoutWorkflow(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	if err := g.Provision(core.NewAppContext(discardLogger(), t.TempDir())); err != nil {
		t.Fatalf("Provision: %v", err)
	}

	err := g.Start()
	if !errors.Is(err, ErrServiceMissing) {
		t.Fatalf("Start error = %v, want ErrServiceMissing", err)
	}
}

// freeAddr returns a free TCP address on localhost.
func freeAddr(t *testing.T) string {
	t.Helper()
	var lc net.ListenConfig
	ln, err := lc.Listen(t.Context(), "tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	if err := ln.Close(); err != nil {
		t.Fatal(err)
	}
	return addr
}

// doGet makes a GET request, with a bearer token when token is non-empty.
func doGet(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func startGateway(t *testing.T, auth AuthConfig) (*Gateway, string, *workflow) {
	t.Helper()
	appCtx, wf := newAppContext(t)
	addr := freeAddr(t)

	g := &Gateway{}
	g.config = Config{Bind: addr, Auth: auth, ShutdownTimeout: 2 * time.Second}
	if err := g.Provision(appCtx); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = g.Stop(context.Background()) })
	return g, addr, wf
}

func TestGateway_StartStop(t *testing.T) {
	t.Parallel()

	g, addr, wf := startGateway(t, AuthConfig{})
	if _, err := wf.registry.ProposeFileWrite(t.Context(), "/tmp/x", "y"); err != nil {
		t.Fatal(err)
	}

	resp := doGet(t, "http://"+addr+"/health", "")
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Pending != 1 {
		t.Errorf("health = %+v, want ok with 1 pending", health)
	}

	if err := g.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestGateway_APINotMountedWithoutAuth(t *testing.T) {
	t.Parallel()

	_, addr, _ := startGateway(t, AuthConfig{})

	for _, path := range []string{"/api/status", "/api/actions"} {
		resp := doGet(t, "http://"+addr+path, "")
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound && resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("%s code = %d, want 404 or 405 (not mounted)", path, resp.StatusCode)
		}
	}
}

func TestGateway_APIWithAuth(t *testing.T) {
	t.Parallel()

	_, addr, _ := startGateway(t, AuthConfig{BearerToken: "test-token"})

	resp := doGet(t, "http://"+addr+"/api/status", "")
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("no-auth status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}

	resp2 := doGet(t, "http://"+addr+"/api/status", "test-token")
	defer func() { _ = resp2.Body.Close() }()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("auth status = %d, want %d", resp2.StatusCode, http.StatusOK)
	}

	var status StatusResponse
	if err := json.NewDecoder(resp2.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	found := false
	for _, m := range status.Modules {
		if m.ID == "gateway.http" {
			found = true
		}
	}
	if !found {
		t.Errorf("modules = %+v, want gateway.http listed", status.Modules)
	}
}

func TestGateway_StopNilServer(t *testing.T) {
	t.Parallel()

	g := &Gateway{}
	if err := g.Stop(context.Background()); err != nil {
		t.Errorf("Stop on nil server should not error: %v", err)
	}
}
