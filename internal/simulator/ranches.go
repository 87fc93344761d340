package simulator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kbukum/ranchkit/errors"
)

// Ranch is the resource served under /api/ranches.
type Ranch struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	HerdSize  int       `json:"herd_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RanchInput is the writable part of a Ranch. Nil fields are left unchanged
// by a PATCH.
type RanchInput struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	HerdSize *int    `json:"herd_size"`
}

// ranchStore keeps ranches in memory.
type ranchStore struct {
	mu     sync.RWMutex
	now    func() time.Time
	ranches map[string]Ranch
}

func newRanchStore(now func() time.Time) *ranchStore {
	return &ranchStore{now: now, ranches: make(map[string]Ranch)}
}

func (s *ranchStore) list() []Ranch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Ranch, 0, len(s.ranches))
	for _, r := range s.ranches {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *ranchStore) get(id string) (Ranch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ranches[id]
	if !ok {
		return Ranch{}, apperrors.NotFound("ranch", id)
	}
	return r, nil
}

func (s *ranchStore) create(in RanchInput) (Ranch, error) {
	if in.Name == nil || *in.Name == "" {
		return Ranch{}, apperrors.MissingField("name")
	}
	now := s.now()
	r := Ranch{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	apply(&r, in)

	s.mu.Lock()
	s.ranches[r.ID] = r
	s.mu.Unlock()
	return r, nil
}

// replace overwrites every writable field; missing fields become zero.
func (s *ranchStore) replace(id string, in RanchInput) (Ranch, error) {
	if in.Name == nil || *in.Name == "" {
		return Ranch{}, apperrors.MissingField("name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ranches[id]
	if !ok {
		return Ranch{}, apperrors.NotFound("ranch", id)
	}
	r.Location, r.HerdSize = "", 0
	apply(&r, in)
	r.UpdatedAt = s.now()
	s.ranches[id] = r
	return r, nil
}

func (s *ranchStore) patch(id string, in RanchInput) (Ranch, error) {
	if in.Name != nil && *in.Name == "" {
		return Ranch{}, apperrors.Validation("name must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ranches[id]
	if !ok {
		return Ranch{}, apperrors.NotFound("ranch", id)
	}
	apply(&r, in)
	r.UpdatedAt = s.now()
	s.ranches[id] = r
	return r, nil
}

func (s *ranchStore) delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ranches[id]; !ok {
		return apperrors.NotFound("ranch", id)
	}
	delete(s.ranches, id)
	return nil
}

func (s *ranchStore) ids() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.ranches))
	for id := range s.ranches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func apply(r *Ranch, in RanchInput) {
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Location != nil {
		r.Location = *in.Location
	}
	if in.HerdSize != nil {
		r.HerdSize = *in.HerdSize
	}
}
