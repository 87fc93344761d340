package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/ranchkit/component"
	"github.com/kbukum/ranchkit/config"
	"github.com/kbukum/ranchkit/logger"
)

// testConfig is a minimal config that satisfies Config.
type testConfig struct {
	config.ServiceConfig
}

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	details  string

	mu      sync.Mutex
	started bool
	stopped bool
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) component.Health { return m.health }

func (m *mockComponent) Describe() component.Description {
	return component.Description{Type: "mock", Details: m.details}
}

func (m *mockComponent) state() (started, stopped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started, m.stopped
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Nop()), WithoutSummary()}, opts...)
	app, err := NewApp(newTestConfig("ranchctl", "1.0.0"), opts...)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func healthy(name string) *mockComponent {
	return &mockComponent{name: name, health: component.Health{Name: name, Status: component.StatusHealthy}}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("ranchctl", "1.0.0"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "ranchctl" || app.Version != "1.0.0" {
		t.Errorf("unexpected name/version %q/%q", app.Name, app.Version)
	}
	if app.Components == nil || app.Logger == nil || app.Summary == nil {
		t.Fatal("expected registry, logger and summary to be set")
	}
	if app.Cfg.Logging.ServiceName != "ranchctl" {
		t.Errorf("expected defaults applied to typed config, got %+v", app.Cfg.Logging)
	}
	if app.gracefulTimeout != DefaultGracefulTimeout {
		t.Errorf("expected default timeout, got %v", app.gracefulTimeout)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := &testConfig{ServiceConfig: config.ServiceConfig{Environment: "development"}}
	if _, err := NewApp(cfg); err == nil {
		t.Error("expected error for missing name")
	}
}

func TestNewAppOptions(t *testing.T) {
	custom := logger.Nop()
	app, err := NewApp(newTestConfig("ranchctl", ""), WithLogger(custom), WithGracefulTimeout(30*time.Second))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if app.Logger != custom {
		t.Error("expected custom logger")
	}
}

func TestRegisterComponent(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(healthy("store")); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("store") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(healthy("store")); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

func TestReadyCheck(t *testing.T) {
	tests := []struct {
		name    string
		health  []component.Health
		wantErr string
	}{
		{"empty", nil, ""},
		{"all healthy", []component.Health{{Name: "a", Status: component.StatusHealthy}}, ""},
		{"unhealthy", []component.Health{{Name: "live", Status: component.StatusUnhealthy, Message: "refused"}}, "live=unhealthy(refused)"},
		{"degraded", []component.Health{{Name: "live", Status: component.StatusDegraded}}, "live=degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			for _, h := range tt.health {
				app.RegisterComponent(&mockComponent{name: h.Name, health: h})
			}
			err := app.ReadyCheck(context.Background())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunTaskLifecycleOrder(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("store")
	app.RegisterComponent(comp)

	var order []string
	app.OnStart(func(ctx context.Context) error {
		if started, _ := comp.state(); !started {
			t.Error("component should start before OnStart hooks")
		}
		order = append(order, "start")
		return nil
	})
	app.OnConfigure(func(ctx context.Context, a *App[*testConfig]) error {
		if a.Cfg.Name != "ranchctl" {
			t.Errorf("unexpected typed config %q", a.Cfg.Name)
		}
		order = append(order, "configure")
		return nil
	})
	app.OnReady(func(ctx context.Context) error {
		order = append(order, "ready")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		if _, stopped := comp.state(); stopped {
			t.Error("OnStop hooks should run before components stop")
		}
		order = append(order, "stop")
		return nil
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		order = append(order, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := "start,configure,ready,task,stop"
	if got := strings.Join(order, ","); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if _, stopped := comp.state(); !stopped {
		t.Error("expected component to be stopped after task")
	}
}

func TestRunTaskErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		setup func(app *App[*testConfig])
		task  func(ctx context.Context) error
		want  string
	}{
		{
			name:  "task error returned as is",
			setup: func(*App[*testConfig]) {},
			task:  func(context.Context) error { return boom },
			want:  "boom",
		},
		{
			name: "component start failure",
			setup: func(app *App[*testConfig]) {
				app.RegisterComponent(&mockComponent{name: "bad", startErr: boom})
			},
			want: "initialization failed",
		},
		{
			name: "start hook",
			setup: func(app *App[*testConfig]) {
				app.OnStart(func(context.Context) error { return boom })
			},
			want: "onStart hook failed",
		},
		{
			name: "configure callback",
			setup: func(app *App[*testConfig]) {
				app.OnConfigure(func(context.Context, *App[*testConfig]) error { return boom })
			},
			want: "configuration failed",
		},
		{
			name: "ready hook",
			setup: func(app *App[*testConfig]) {
				app.OnReady(func(context.Context) error { return boom })
			},
			want: "onReady hook failed",
		},
		{
			name: "stop hook",
			setup: func(app *App[*testConfig]) {
				app.OnStop(func(context.Context) error { return boom })
			},
			want: "hook 0 failed",
		},
		{
			name: "component stop failure",
			setup: func(app *App[*testConfig]) {
				app.RegisterComponent(&mockComponent{name: "bad", stopErr: boom})
			},
			want: "boom",
		},
		{
			name: "task error wins over stop error",
			setup: func(app *App[*testConfig]) {
				app.OnStop(func(context.Context) error { return errors.New("stop") })
			},
			task: func(context.Context) error { return fmt.Errorf("task: %w", boom) },
			want: "task: boom",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			tt.setup(app)
			task := tt.task
			if task == nil {
				task = func(context.Context) error { return nil }
			}
			err := app.RunTask(context.Background(), task)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunTaskCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := app.RunTask(ctx, func(taskCtx context.Context) error {
		cancel()
		<-taskCtx.Done()
		return taskCtx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	app := newTestApp(t)
	comp := healthy("simulator")
	app.RegisterComponent(comp)

	ctx, cancel := context.WithCancel(context.Background())
	app.OnReady(func(context.Context) error {
		cancel()
		return nil
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if _, stopped := comp.state(); !stopped {
		t.Error("expected component to be stopped")
	}
}

func TestWaitForSignalContextCancellation(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if sig := app.WaitForSignal(ctx); sig != nil {
		t.Errorf("expected nil signal for context cancellation, got %v", sig)
	}
}

func TestShutdownAfterRunTask(t *testing.T) {
	app := newTestApp(t)
	app.RegisterComponent(healthy("store"))
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}

func TestSummaryDisplay(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(newTestConfig("ranchctl", "1.2.0"), WithLogger(logger.Nop()), WithSummaryWriter(&buf))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	store := healthy("store")
	store.details = "leveldb ./data"
	app.RegisterComponent(store)
	app.RegisterComponent(&mockComponent{
		name:   "live",
		health: component.Health{Name: "live", Status: component.StatusDegraded, Message: "connecting"},
	})
	app.Summary.TrackRoute("GET", "/api/ranches", "listRanches")

	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"ranchctl v1.2.0 started",
		"store [mock]: leveldb ./data",
		"live (connecting)",
		"Some components have issues (1/2 healthy)",
		"Routes (1)",
		"/api/ranches -> listRanches",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryDisplayNilRegistry(t *testing.T) {
	var buf bytes.Buffer
	s := NewSummary("ranchctl", "")
	s.out = &buf
	s.Display(context.Background(), nil)
	if !strings.Contains(buf.String(), "vdev") || !strings.Contains(buf.String(), "No components registered") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestWithoutSummary(t *testing.T) {
	var buf bytes.Buffer
	app, _ := NewApp(newTestConfig("ranchctl", "1.0"), WithLogger(logger.Nop()), WithSummaryWriter(&buf), WithoutSummary())
	app.RunTask(context.Background(), func(context.Context) error { return nil })
	if buf.Len() != 0 {
		t.Errorf("expected no summary output, got %q", buf.String())
	}
}

func TestTreePrefix(t *testing.T) {
	if treePrefix(0, 2) != "├──" || treePrefix(1, 2) != "└──" {
		t.Error("unexpected tree prefixes")
	}
}
