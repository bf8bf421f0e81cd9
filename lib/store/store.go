// Package store is the single source of truth for instance records and
// their metric history. All status mutation goes through its
// transition-checked API.
package store

import "context"

// Store persists instances and metric samples. Every query is scoped to
// the owner id of the requesting principal; there is no cross-owner
// visibility.
type Store interface {
	// Create assigns an id, sets status to running and
	// createdAt=updatedAt=now. Fails with ErrValidation if name or
	// instance class is missing. Unrecognized classes fall back to the
	// default shape rather than failing.
	Create(ctx context.Context, spec CreateInstanceSpec) (*Instance, error)

	// List returns all instances for the owner, createdAt descending.
	List(ctx context.Context, ownerId string) ([]Instance, error)

	// Get returns a single instance, or ErrNotFound.
	Get(ctx context.Context, ownerId, id string) (*Instance, error)

	// UpdateStatus applies a status transition, bumping updatedAt.
	// Fails with ErrInvalidTransition if the target status is
	// unreachable from the current one.
	UpdateStatus(ctx context.Context, ownerId, id string, next Status) (*Instance, error)

	// AppendMetric records a sample. Appends for the same instance are
	// serialized so per-instance timestamp order stays well-defined.
	AppendMetric(ctx context.Context, sample MetricSample) error

	// RecentMetrics returns up to limit samples for the instance,
	// newest first.
	RecentMetrics(ctx context.Context, instanceId string, limit int) ([]MetricSample, error)
}
