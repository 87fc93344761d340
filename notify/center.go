package notify

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/ranchkit/kvstore"
	"github.com/kbukum/ranchkit/logger"
)

// PreferencesKey is the store key holding notification preferences.
const PreferencesKey = "notification_preferences"

const (
	defaultAutoRemove = 5 * time.Second
	defaultMaxItems   = 50
)

// Preferences are the persisted user choices.
type Preferences struct {
	MutedCategories []string `json:"muted_categories"`
}

// Option configures a Center.
type Option func(*Center)

// WithStore persists preferences in store.
func WithStore(store kvstore.Store) Option {
	return func(c *Center) { c.store = store }
}

// WithAutoRemove sets the default removal delay for non-persistent
// notifications. A negative value disables automatic removal.
func WithAutoRemove(d time.Duration) Option {
	return func(c *Center) { c.autoRemove = d }
}

// WithMaxItems caps the number of kept notifications; the oldest are dropped.
func WithMaxItems(n int) Option {
	return func(c *Center) {
		if n > 0 {
			c.maxItems = n
		}
	}
}

// WithClock overrides the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Center) { c.now = now }
}

type subscriber struct {
	id int
	fn func(Notification)
}

// Center is the in-memory notification list.
type Center struct {
	store      kvstore.Store
	autoRemove time.Duration
	maxItems   int
	now        func() time.Time
	log        *logger.Logger

	mu      sync.Mutex
	items   []Notification
	timers  map[string]*time.Timer
	muted   map[string]bool
	subs    []subscriber
	nextSub int
	closed  bool
}

var _ Sink = (*Center)(nil)

// NewCenter creates a Center.
func NewCenter(opts ...Option) *Center {
	c := &Center{
		autoRemove: defaultAutoRemove,
		maxItems:   defaultMaxItems,
		now:        time.Now,
		log:        logger.Get("notify"),
		timers:     make(map[string]*time.Timer),
		muted:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LoadPreferences reads muted categories from the store.
func (c *Center) LoadPreferences(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	var p Preferences
	if _, err := kvstore.GetJSON(ctx, c.store, PreferencesKey, &p); err != nil {
		return err
	}
	c.mu.Lock()
	c.muted = make(map[string]bool, len(p.MutedCategories))
	for _, cat := range p.MutedCategories {
		c.muted[cat] = true
	}
	c.mu.Unlock()
	return nil
}

// Mute stops notifications of category from being kept or delivered.
func (c *Center) Mute(ctx context.Context, category string) error {
	return c.setMuted(ctx, category, true)
}

// Unmute re-enables category.
func (c *Center) Unmute(ctx context.Context, category string) error {
	return c.setMuted(ctx, category, false)
}

func (c *Center) setMuted(ctx context.Context, category string, muted bool) error {
	c.mu.Lock()
	if muted {
		c.muted[category] = true
	} else {
		delete(c.muted, category)
	}
	p := Preferences{MutedCategories: c.mutedLocked()}
	c.mu.Unlock()

	if c.store == nil {
		return nil
	}
	return kvstore.SetJSON(ctx, c.store, PreferencesKey, p)
}

// Muted returns the muted categories, sorted.
func (c *Center) Muted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutedLocked()
}

func (c *Center) mutedLocked() []string {
	out := make([]string, 0, len(c.muted))
	for cat := range c.muted {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Notify adds n to the list and delivers it to subscribers.
func (c *Center) Notify(n Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = c.now()
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.Category == "" {
		n.Category = CategoryGeneral
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.muted[n.Category] {
		c.mu.Unlock()
		c.log.Debug("notification muted", logger.Fields("category", n.Category, "title", n.Title))
		return
	}

	c.items = append([]Notification{n}, c.items...)
	for len(c.items) > c.maxItems {
		last := c.items[len(c.items)-1]
		c.stopTimerLocked(last.ID)
		c.items = c.items[:len(c.items)-1]
	}

	if delay := c.removalDelay(n); delay > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(delay, func() { c.Remove(id) })
	}

	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(n)
	}
}

func (c *Center) removalDelay(n Notification) time.Duration {
	if n.Persistent {
		return 0
	}
	if n.AutoRemove != 0 {
		return n.AutoRemove
	}
	return c.autoRemove
}

// Subscribe registers fn for every delivered notification. The returned
// function unsubscribes.
func (c *Center) Subscribe(fn func(Notification)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					break
				}
			}
		})
	}
}

// List returns the kept notifications, newest first.
func (c *Center) List() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Notification, len(c.items))
	copy(out, c.items)
	return out
}

// Unread counts notifications not marked read.
func (c *Center) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, it := range c.items {
		if !it.Read {
			n++
		}
	}
	return n
}

// MarkRead marks the notification with id as read.
func (c *Center) MarkRead(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			return true
		}
	}
	return false
}

// MarkAllRead marks every notification as read.
func (c *Center) MarkAllRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		c.items[i].Read = true
	}
}

// Remove deletes the notification with id.
func (c *Center) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked(id)
	for i, it := range c.items {
		if it.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every notification.
func (c *Center) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.timers {
		c.stopTimerLocked(id)
	}
	c.items = nil
}

// Close stops pending removal timers and ignores later notifications.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id := range c.timers {
		c.stopTimerLocked(id)
	}
}

func (c *Center) stopTimerLocked(id string) {
	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
}
