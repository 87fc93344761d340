package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/logger"
)

func TestCenterNotifyDefaults(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCenter(WithAutoRemove(-1), WithClock(func() time.Time { return fixed }))
	defer c.Close()

	c.Notify(Notification{Title: "hello", Message: "world"})

	items := c.List()
	if len(items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(items))
	}
	n := items[0]
	if n.ID == "" {
		t.Error("expected generated ID")
	}
	if !n.CreatedAt.Equal(fixed) {
		t.Errorf("unexpected CreatedAt %v", n.CreatedAt)
	}
	if n.Priority != PriorityMedium || n.Category != CategoryGeneral {
		t.Errorf("unexpected defaults %+v", n)
	}
}

func TestCenterNewestFirstAndCap(t *testing.T) {
	c := NewCenter(WithAutoRemove(-1), WithMaxItems(2))
	defer c.Close()

	for _, title := range []string{"a", "b", "c"} {
		c.Notify(Notification{Title: title})
	}
	items := c.List()
	if len(items) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(items))
	}
	if items[0].Title != "c" || items[1].Title != "b" {
		t.Errorf("expected newest first [c b], got [%s %s]", items[0].Title, items[1].Title)
	}
}

func TestCenterAutoRemove(t *testing.T) {
	c := NewCenter(WithAutoRemove(20 * time.Millisecond))
	defer c.Close()

	c.Notify(Notification{Title: "transient"})
	c.Notify(Notification{Title: "sticky", Persistent: true})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && len(c.List()) > 1 {
		time.Sleep(5 * time.Millisecond)
	}
	items := c.List()
	if len(items) != 1 || items[0].Title != "sticky" {
		t.Fatalf("expected only the persistent notification to remain, got %+v", items)
	}
}

func TestCenterReadAndRemove(t *testing.T) {
	c := NewCenter(WithAutoRemove(-1))
	defer c.Close()

	c.Notify(Notification{ID: "n1", Title: "one"})
	c.Notify(Notification{ID: "n2", Title: "two"})

	if c.Unread() != 2 {
		t.Fatalf("expected 2 unread, got %d", c.Unread())
	}
	if !c.MarkRead("n1") {
		t.Error("MarkRead should find n1")
	}
	if c.Unread() != 1 {
		t.Errorf("expected 1 unread, got %d", c.Unread())
	}
	c.MarkAllRead()
	if c.Unread() != 0 {
		t.Errorf("expected 0 unread, got %d", c.Unread())
	}
	if !c.Remove("n2") || c.Remove("n2") {
		t.Error("Remove should succeed once")
	}
	c.Clear()
	if len(c.List()) != 0 {
		t.Error("expected empty list after Clear")
	}
}

func TestCenterSubscribe(t *testing.T) {
	c := NewCenter(WithAutoRemove(-1))
	defer c.Close()

	var got []string
	unsubscribe := c.Subscribe(func(n Notification) { got = append(got, n.Title) })

	c.Notify(Notification{Title: "first"})
	unsubscribe()
	unsubscribe()
	c.Notify(Notification{Title: "second"})

	if len(got) != 1 || got[0] != "first" {
		t.Errorf("expected only first delivery, got %v", got)
	}
}

func TestCenterMutedCategoriesPersist(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemory()

	c := NewCenter(WithStore(store), WithAutoRemove(-1))
	if err := c.Mute(ctx, CategoryLocation); err != nil {
		t.Fatalf("Mute: %v", err)
	}
	c.Notify(Notification{Title: "moved", Category: CategoryLocation})
	c.Notify(Notification{Title: "sick", Category: CategoryHealth})
	if items := c.List(); len(items) != 1 || items[0].Category != CategoryHealth {
		t.Fatalf("expected muted category to be dropped, got %+v", items)
	}
	c.Close()

	reloaded := NewCenter(WithStore(store))
	defer reloaded.Close()
	if err := reloaded.LoadPreferences(ctx); err != nil {
		t.Fatalf("LoadPreferences: %v", err)
	}
	if muted := reloaded.Muted(); len(muted) != 1 || muted[0] != CategoryLocation {
		t.Fatalf("expected persisted mute, got %v", muted)
	}

	if err := reloaded.Unmute(ctx, CategoryLocation); err != nil {
		t.Fatalf("Unmute: %v", err)
	}
	var p Preferences
	if _, err := kvstore.GetJSON(ctx, store, PreferencesKey, &p); err != nil || len(p.MutedCategories) != 0 {
		t.Errorf("expected empty persisted preferences, got %+v (%v)", p, err)
	}
}

func TestCenterClosedIgnoresNotify(t *testing.T) {
	c := NewCenter()
	c.Close()
	c.Notify(Notification{Title: "late"})
	if len(c.List()) != 0 {
		t.Error("closed center should ignore notifications")
	}
}

func TestMulti(t *testing.T) {
	var a, b int
	sink := Multi(SinkFunc(func(Notification) { a++ }), nil, SinkFunc(func(Notification) { b++ }))
	sink.Notify(Notification{})
	if a != 1 || b != 1 {
		t.Errorf("expected both sinks called once, got %d %d", a, b)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: "json"}, "notify-test", &buf)

	NewLogSink(log).Notify(Notification{
		Title:    "Health alert",
		Message:  "Bella: fever",
		Priority: PriorityHigh,
		Category: CategoryHealth,
		BovineID: "b-1",
	})

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level for high priority, got %s", out)
	}
	if !strings.Contains(out, `"bovine_id":"b-1"`) {
		t.Errorf("expected bovine_id field, got %s", out)
	}
}
