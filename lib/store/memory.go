package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miragehq/mirage/lib/catalog"
	"github.com/nrednav/cuid2"
)

// MemoryStore is the in-process Store implementation. It is the default
// backend and the one the simulated provider runs against in tests.
// A single mutex serializes mutations, so readers observe either the
// pre- or post-write state, never a partial record.
type MemoryStore struct {
	mu      sync.RWMutex
	order   []*Instance // insertion order, oldest first
	byId    map[string]*Instance
	metrics map[string][]MetricSample // ascending timestamp per instance
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		byId:    make(map[string]*Instance),
		metrics: make(map[string][]MetricSample),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context, spec CreateInstanceSpec) (*Instance, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	shape := catalog.Lookup(spec.InstanceClass)
	now := s.now()

	inst := &Instance{
		Id:                 cuid2.Generate(),
		ProviderInstanceId: spec.ProviderInstanceId,
		Name:               spec.Name,
		Status:             StatusRunning,
		InstanceClass:      spec.InstanceClass,
		Location:           spec.Location,
		StorageGiB:         spec.StorageGiB,
		CpuCount:           shape.CPUCount,
		MemoryGiB:          shape.MemoryGiB,
		Ipv6Enabled:        spec.Ipv6Enabled,
		SshEnabled:         spec.SshEnabled,
		Username:           spec.Username,
		CreatedAt:          now,
		UpdatedAt:          now,
		OwnerId:            spec.OwnerId,
	}
	if inst.ProviderInstanceId == "" {
		inst.ProviderInstanceId = inst.Id
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byId[inst.Id] = inst
	s.order = append(s.order, inst)

	out := *inst
	return &out, nil
}

func (s *MemoryStore) List(ctx context.Context, ownerId string) ([]Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Reverse insertion order gives createdAt descending even when
	// clock resolution makes neighboring timestamps equal.
	result := make([]Instance, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if s.order[i].OwnerId == ownerId {
			result = append(result, *s.order[i])
		}
	}
	return result, nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerId, id string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.byId[id]
	if !ok || inst.OwnerId != ownerId {
		return nil, ErrNotFound
	}
	out := *inst
	return &out, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, ownerId, id string, next Status) (*Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, ok := s.byId[id]
	if !ok || inst.OwnerId != ownerId {
		return nil, ErrNotFound
	}

	if err := inst.Status.CanTransitionTo(next); err != nil {
		return nil, err
	}

	inst.Status = next
	inst.UpdatedAt = s.now()

	out := *inst
	return &out, nil
}

func (s *MemoryStore) AppendMetric(ctx context.Context, sample MetricSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byId[sample.InstanceId]; !ok {
		return ErrNotFound
	}

	existing := s.metrics[sample.InstanceId]
	if n := len(existing); n > 0 && !sample.Timestamp.After(existing[n-1].Timestamp) {
		// Keep per-instance order strict under concurrent appends.
		sample.Timestamp = existing[n-1].Timestamp.Add(time.Millisecond)
	}
	s.metrics[sample.InstanceId] = append(existing, sample)
	return nil
}

func (s *MemoryStore) RecentMetrics(ctx context.Context, instanceId string, limit int) ([]MetricSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	samples := s.metrics[instanceId]
	n := len(samples)
	if limit <= 0 || limit > n {
		limit = n
	}

	// Stored ascending, returned newest first.
	result := make([]MetricSample, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		result = append(result, samples[i])
	}
	return result, nil
}

func validateSpec(spec CreateInstanceSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if spec.InstanceClass == "" {
		return fmt.Errorf("%w: instance class is required", ErrValidation)
	}
	if spec.OwnerId == "" {
		return fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if spec.StorageGiB < 0 {
		return fmt.Errorf("%w: storage cannot be negative", ErrValidation)
	}
	return nil
}
