package provider

import (
	"context"
	"time"

	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/sampler"
	"github.com/miragehq/mirage/lib/store"
)

// SimConfig tunes the simulated provider.
type SimConfig struct {
	DefaultLocation  string
	StatsLimit       int
	BackfillSamples  int
	BackfillInterval time.Duration
}

// withDefaults fills zero values with the documented policy defaults.
func (c SimConfig) withDefaults() SimConfig {
	if c.DefaultLocation == "" {
		c.DefaultLocation = "us-east-1"
	}
	if c.StatsLimit == 0 {
		c.StatsLimit = 10
	}
	if c.BackfillSamples == 0 {
		c.BackfillSamples = 24
	}
	if c.BackfillInterval == 0 {
		c.BackfillInterval = 30 * time.Minute
	}
	return c
}

// Simulated synthesizes instance state locally from the store and the
// sampler. It is always constructible and serves as the guaranteed
// fallback when the upstream provider is unconfigured or failing.
type Simulated struct {
	store   store.Store
	sampler *sampler.Sampler
	cfg     SimConfig
}

// NewSimulated creates the simulated provider.
func NewSimulated(st store.Store, smp *sampler.Sampler, cfg SimConfig) *Simulated {
	return &Simulated{store: st, sampler: smp, cfg: cfg.withDefaults()}
}

var _ Provider = (*Simulated)(nil)

func (s *Simulated) List(ctx context.Context, ownerId string) ([]store.Instance, error) {
	return s.store.List(ctx, ownerId)
}

func (s *Simulated) Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	log := logger.FromContext(ctx)

	spec := store.CreateInstanceSpec{
		Name:          req.Name,
		InstanceClass: req.InstanceClass,
		Location:      req.Location,
		StorageGiB:    req.StorageGiB,
		Ipv6Enabled:   req.Ipv6Enabled,
		SshEnabled:    req.SshEnabled,
		Username:      req.Username,
		OwnerId:       req.OwnerId,
	}
	if spec.Location == "" {
		spec.Location = s.cfg.DefaultLocation
	}
	if spec.StorageGiB == 0 {
		spec.StorageGiB = defaultStorageGiB
	}
	if spec.Username == "" {
		spec.Username = defaultUsername
	}

	inst, err := s.store.Create(ctx, spec)
	if err != nil {
		return nil, err
	}

	// Seed the metric history with one live sample. A launch that got
	// as far as inserting the record must not be rolled back over a
	// failed seed sample; the first stats read backfills anyway.
	if err := s.store.AppendMetric(ctx, s.sampler.Sample(inst.Id)); err != nil {
		log.WarnContext(ctx, "failed to seed initial metric sample", "instance_id", inst.Id, "error", err)
	}

	return &LaunchResult{
		Instance:      *inst,
		KeyConfigured: req.keyConfigured(),
		PasswordSet:   req.passwordSet(),
	}, nil
}

func (s *Simulated) Terminate(ctx context.Context, ownerId, id string) error {
	_, err := s.store.UpdateStatus(ctx, ownerId, id, store.StatusTerminated)
	return err
}

func (s *Simulated) Stats(ctx context.Context, ownerId, instanceId string) ([]store.MetricSample, error) {
	if _, err := s.store.Get(ctx, ownerId, instanceId); err != nil {
		return nil, err
	}

	existing, err := s.store.RecentMetrics(ctx, instanceId, s.cfg.StatsLimit)
	if err != nil {
		return nil, err
	}

	if len(existing) == 0 {
		// Lazy backfill: a freshly launched instance shows a populated
		// chart on its very first read.
		if err := s.backfill(ctx, instanceId); err != nil {
			return nil, err
		}
	} else {
		// Advance the series so repeated polling sees fresh data.
		if err := s.store.AppendMetric(ctx, s.sampler.Sample(instanceId)); err != nil {
			return nil, err
		}
	}

	return s.store.RecentMetrics(ctx, instanceId, s.cfg.StatsLimit)
}

// Get exposes single-instance lookup for callers that need to validate
// instance existence (connect, terminate idempotency).
func (s *Simulated) Get(ctx context.Context, ownerId, id string) (*store.Instance, error) {
	return s.store.Get(ctx, ownerId, id)
}

func (s *Simulated) backfill(ctx context.Context, instanceId string) error {
	history := s.sampler.SampleHistory(instanceId, s.cfg.BackfillSamples, s.cfg.BackfillInterval)
	// SampleHistory is newest first; append oldest first so the store's
	// ascending order holds without timestamp adjustment.
	for i := len(history) - 1; i >= 0; i-- {
		if err := s.store.AppendMetric(ctx, history[i]); err != nil {
			return err
		}
	}
	return nil
}
