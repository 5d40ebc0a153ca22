package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(Config{}, Deps{})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"api key", "Checker"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	c.defaults()
	if c.Bind != "127.0.0.1:8000" {
		t.Errorf("Bind = %q", c.Bind)
	}
	if c.Burst != 1 || c.ReadTimeout != 10*time.Second || c.WriteTimeout != 2*time.Minute || c.ShutdownTimeout != 5*time.Second {
		t.Errorf("defaults = %+v", c)
	}
}

func TestGateway_StartServeStop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if err := f.gw.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := f.gw.Addr()
	if addr == "" {
		t.Fatal("Addr empty after Start")
	}

	resp, err := http.Get("http://" + addr + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var got HealthResponse
	_ = json.NewDecoder(resp.Body).Decode(&got)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || got.Status != "running" {
		t.Errorf("health = %d %+v", resp.StatusCode, got)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.gw.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := http.Get("http://" + addr + "/health"); err == nil {
		t.Error("server still accepting after Stop")
	}
}

func TestGateway_StartBindError(t *testing.T) {
	t.Parallel()

	f := newFixture(t, func(c *Config, _ *Deps) { c.Bind = "256.0.0.1:bad" })
	if err := f.gw.Start(); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestGateway_StopBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	if err := f.gw.Stop(context.Background()); err != nil {
		t.Errorf("Stop before Start: %v", err)
	}
}
