package component

import (
	"context"
	"errors"
	"testing"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   Health
	events   *[]string
}

func (m *mockComponent) Name() string { return m.name }

func (m *mockComponent) Start(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "start:"+m.name)
	}
	return m.startErr
}

func (m *mockComponent) Stop(ctx context.Context) error {
	if m.events != nil {
		*m.events = append(*m.events, "stop:"+m.name)
	}
	return m.stopErr
}

func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

type describedComponent struct {
	mockComponent
}

func (d *describedComponent) Describe() Description {
	return Description{Type: "live", Details: "ws://localhost:8080/ws"}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "live"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "live"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("live") == nil || r.Get("missing") != nil {
		t.Error("unexpected Get results")
	}
}

func TestStartStopOrder(t *testing.T) {
	var events []string
	r := NewRegistry()
	for _, name := range []string{"store", "http", "live"} {
		_ = r.Register(&mockComponent{name: name, events: &events})
	}

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	want := []string{"start:store", "start:http", "start:live", "stop:live", "stop:http", "stop:store"}
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], events[i])
		}
	}
}

func TestStartFailureStopsOnlyStarted(t *testing.T) {
	var events []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "store", events: &events})
	_ = r.Register(&mockComponent{name: "live", events: &events, startErr: errors.New("dial refused")})
	_ = r.Register(&mockComponent{name: "metrics", events: &events})

	if err := r.StartAll(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	events = nil
	_ = r.StopAll(context.Background())
	if len(events) != 1 || events[0] != "stop:store" {
		t.Errorf("expected only store to stop, got %v", events)
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errA})
	_ = r.Register(&mockComponent{name: "b", stopErr: errB})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("expected both errors joined, got %v", err)
	}
}

func TestHealthAllAndDescriptions(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "store", health: Health{Name: "store", Status: StatusHealthy}})
	_ = r.Register(&describedComponent{mockComponent{name: "live", health: Health{Name: "live", Status: StatusDegraded}}})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Status != StatusDegraded {
		t.Errorf("unexpected health %v", health)
	}

	descs := r.Descriptions()
	if len(descs) != 1 || descs[0].Name != "live" || descs[0].Type != "live" {
		t.Errorf("unexpected descriptions %v", descs)
	}
}
