package simulator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Generated event types.
const (
	EventBovineUpdate     = "BOVINE_UPDATE"
	EventProductionUpdate = "PRODUCTION_UPDATE"
	EventLocationUpdate   = "LOCATION_UPDATE"
	EventHealthAlert      = "HEALTH_ALERT"
)

var eventTypes = []string{EventBovineUpdate, EventProductionUpdate, EventLocationUpdate, EventHealthAlert}

var bovineNames = []string{"Bessie", "Daisy", "Buttercup", "Clover", "Rosie", "Maggie", "Hazel", "Duke"}

var healthStatuses = []string{"healthy", "healthy", "healthy", "healthy", "sick", "injured"}

// generator produces plausible herd events. rnd is guarded by mu.
type generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func newGenerator(seed int64, now func() time.Time) *generator {
	if seed == 0 {
		seed = now().UnixNano()
	}
	return &generator{rnd: rand.New(rand.NewSource(seed)), now: now}
}

// event is a generated message and the ranch it belongs to.
type event struct {
	ranchID string
	msgType string
	data    map[string]any
}

// next returns a random event of a random type for one of ranchIDs.
func (g *generator) next(ranchIDs []string) event {
	g.mu.Lock()
	msgType := eventTypes[g.rnd.Intn(len(eventTypes))]
	g.mu.Unlock()
	return g.make(msgType, ranchIDs)
}

// make returns a random event of msgType.
func (g *generator) make(msgType string, ranchIDs []string) event {
	g.mu.Lock()
	defer g.mu.Unlock()

	ranchID := "demo"
	if len(ranchIDs) > 0 {
		ranchID = ranchIDs[g.rnd.Intn(len(ranchIDs))]
	}
	n := g.rnd.Intn(len(bovineNames))
	bovineID := fmt.Sprintf("bovine-%d", n+1)
	name := bovineNames[n]

	data := map[string]any{"ranch_id": ranchID}
	switch msgType {
	case EventBovineUpdate:
		data["id"] = bovineID
		data["name"] = name
		data["health_status"] = healthStatuses[g.rnd.Intn(len(healthStatuses))]
		data["weight_kg"] = 450 + g.rnd.Intn(200)
		data["temperature_c"] = 38.0 + g.rnd.Float64()*2
	case EventProductionUpdate:
		liters := 15 + g.rnd.Float64()*20
		data["id"] = uuid.New().String()
		data["bovine_id"] = bovineID
		data["name"] = name
		data["milk_liters"] = liters
		if liters < 18 {
			data["alert"] = true
			data["message"] = fmt.Sprintf("%s produced %.1f liters, below expected yield", name, liters)
		}
	case EventLocationUpdate:
		data["id"] = bovineID
		data["name"] = name
		data["lat"] = 39.0 + g.rnd.Float64()*0.01
		data["lng"] = -98.0 + g.rnd.Float64()*0.01
		data["out_of_bounds"] = g.rnd.Intn(10) == 0
	case EventHealthAlert:
		severity := "warning"
		if g.rnd.Intn(3) == 0 {
			severity = "critical"
		}
		data["id"] = uuid.New().String()
		data["bovine_id"] = bovineID
		data["bovine_name"] = name
		data["severity"] = severity
		data["alert_message"] = fmt.Sprintf("%s shows elevated temperature", name)
	}
	data["timestamp"] = g.now().UnixMilli()
	return event{ranchID: ranchID, msgType: msgType, data: data}
}
