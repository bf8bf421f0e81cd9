// Package controlplane orchestrates instance lifecycle actions over
// two provider variants: the upstream cloud API and the local
// simulation. Callers get a normalized result either way; upstream
// failures are recovered by falling back to the simulation, so a
// broken external dependency never blocks the dashboard.
package controlplane

import (
	"context"
	"errors"
	"time"

	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/provider"
	"github.com/miragehq/mirage/lib/sessions"
	"github.com/miragehq/mirage/lib/store"
)

// Config carries the deployment-level switches. RealEnabled reflects
// credential presence resolved once at startup; it is injected here
// rather than read from global state so tests can force the simulated
// path deterministically.
type Config struct {
	RealEnabled bool
	RealTimeout time.Duration
}

// ControlPlane dispatches actions to the active provider variant. The
// simulated variant is always constructed, never conditionally absent:
// it is the guaranteed fallback object.
type ControlPlane struct {
	cfg      Config
	real     provider.Provider
	sim      *provider.Simulated
	sessions *sessions.Registry
	metrics  *Metrics
}

// New creates a ControlPlane.
func New(cfg Config, real provider.Provider, sim *provider.Simulated, registry *sessions.Registry) *ControlPlane {
	if cfg.RealTimeout == 0 {
		cfg.RealTimeout = 5 * time.Second
	}
	return &ControlPlane{
		cfg:      cfg,
		real:     real,
		sim:      sim,
		sessions: registry,
	}
}

// SetMetrics attaches otel instruments. Safe to skip when telemetry is
// disabled.
func (c *ControlPlane) SetMetrics(m *Metrics) {
	c.metrics = m
}

// dispatch applies the two-tier fallback protocol for one action:
// attempt the real provider under a bounded timeout when configured,
// mask any real-provider failure and fall through to the simulation.
// Simulation failures are real failures and propagate. The real path
// is re-evaluated on every call; a failure does not disable it for
// subsequent actions.
func dispatch[T any](ctx context.Context, c *ControlPlane, action string, realFn, simFn func(context.Context) (T, error)) (T, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	if c.cfg.RealEnabled && c.real != nil && realFn != nil {
		realCtx, cancel := context.WithTimeout(ctx, c.cfg.RealTimeout)
		out, err := realFn(realCtx)
		cancel()
		if err == nil {
			c.recordDispatch(ctx, action, sourceReal, "ok", start)
			return out, nil
		}
		// Fail open: log and degrade to simulation.
		log.WarnContext(ctx, "real provider failed, serving from simulation",
			"action", action, "error", err)
		c.recordFallback(ctx, action)
	}

	out, err := simFn(ctx)
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.recordDispatch(ctx, action, sourceSimulated, status, start)
	return out, err
}

// ListInstances returns all instances visible to the owner.
func (c *ControlPlane) ListInstances(ctx context.Context, ownerId string) ([]store.Instance, error) {
	return dispatch(ctx, c, "list",
		func(ctx context.Context) ([]store.Instance, error) { return c.real.List(ctx, ownerId) },
		func(ctx context.Context) ([]store.Instance, error) { return c.sim.List(ctx, ownerId) },
	)
}

// LaunchInstance provisions a new instance from the launch request.
func (c *ControlPlane) LaunchInstance(ctx context.Context, req provider.LaunchRequest) (*provider.LaunchResult, error) {
	return dispatch(ctx, c, "launch",
		func(ctx context.Context) (*provider.LaunchResult, error) { return c.real.Launch(ctx, req) },
		func(ctx context.Context) (*provider.LaunchResult, error) { return c.sim.Launch(ctx, req) },
	)
}

// TerminateInstance terminates an instance. Terminating an instance
// that is already terminated is a success, not an error, so duplicate
// caller retries are tolerated.
func (c *ControlPlane) TerminateInstance(ctx context.Context, ownerId, id string) error {
	_, err := dispatch(ctx, c, "terminate",
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.real.Terminate(ctx, ownerId, id)
		},
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.terminateSimulated(ctx, ownerId, id)
		},
	)
	return err
}

func (c *ControlPlane) terminateSimulated(ctx context.Context, ownerId, id string) error {
	err := c.sim.Terminate(ctx, ownerId, id)
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrInvalidTransition) {
		// The store's transition table rejects terminated→terminated;
		// at this boundary that specific rejection is absorbed into
		// success. Other invalid transitions still surface.
		if inst, getErr := c.sim.Get(ctx, ownerId, id); getErr == nil && inst.Status == store.StatusTerminated {
			return nil
		}
	}
	return err
}

// InstanceStats returns recent utilization samples, newest first.
func (c *ControlPlane) InstanceStats(ctx context.Context, ownerId, instanceId string) ([]store.MetricSample, error) {
	return dispatch(ctx, c, "stats",
		func(ctx context.Context) ([]store.MetricSample, error) { return c.real.Stats(ctx, ownerId, instanceId) },
		func(ctx context.Context) ([]store.MetricSample, error) { return c.sim.Stats(ctx, ownerId, instanceId) },
	)
}

// Connect opens a command session against an instance. Sessions are
// always served by the simulated transport; a real remote-execution
// channel is not part of this control plane.
func (c *ControlPlane) Connect(ctx context.Context, ownerId, instanceId string) (*sessions.Session, error) {
	inst, err := c.sim.Get(ctx, ownerId, instanceId)
	if err != nil {
		return nil, err
	}
	sess, err := c.sessions.Connect(inst.Id)
	if err != nil {
		return nil, err
	}
	c.recordDispatch(ctx, "connect", sourceSimulated, "ok", time.Now())
	return sess, nil
}

// Exec runs a command in an open session.
func (c *ControlPlane) Exec(ctx context.Context, sessionId, command string) (string, error) {
	return c.sessions.Exec(sessionId, command)
}

// Disconnect discards a session.
func (c *ControlPlane) Disconnect(ctx context.Context, sessionId string) error {
	return c.sessions.Discard(sessionId)
}
