package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/miragehq/mirage/lib/catalog"
	"github.com/nrednav/cuid2"
)

// PostgresStore implements Store on a PostgreSQL backend. It is
// selected when DATABASE_URL is configured; deployments without a
// database run on MemoryStore instead.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres initializes a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}

	config.MaxConns = 20
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			provider_instance_id TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			instance_class TEXT NOT NULL,
			location TEXT NOT NULL,
			storage_gib INT NOT NULL,
			cpu_count INT NOT NULL,
			memory_gib INT NOT NULL,
			ipv6_enabled BOOLEAN NOT NULL,
			ssh_enabled BOOLEAN NOT NULL,
			username TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			owner_id TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instances_owner ON instances (owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS metric_samples (
			id TEXT PRIMARY KEY,
			instance_id TEXT NOT NULL REFERENCES instances (id),
			timestamp TIMESTAMPTZ NOT NULL,
			cpu_usage_percent DOUBLE PRECISION NOT NULL,
			memory_usage_percent DOUBLE PRECISION NOT NULL,
			network_in_rate DOUBLE PRECISION NOT NULL,
			network_out_rate DOUBLE PRECISION NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_samples_instance ON metric_samples (instance_id, timestamp DESC)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const instanceColumns = `id, provider_instance_id, name, status, instance_class, location,
	storage_gib, cpu_count, memory_gib, ipv6_enabled, ssh_enabled, username,
	created_at, updated_at, owner_id`

func (s *PostgresStore) Create(ctx context.Context, spec CreateInstanceSpec) (*Instance, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	shape := catalog.Lookup(spec.InstanceClass)
	now := time.Now()

	inst := Instance{
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

	query := `
		INSERT INTO instances (` + instanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.pool.Exec(ctx, query,
		inst.Id, inst.ProviderInstanceId, inst.Name, inst.Status, inst.InstanceClass,
		inst.Location, inst.StorageGiB, inst.CpuCount, inst.MemoryGiB,
		inst.Ipv6Enabled, inst.SshEnabled, inst.Username,
		inst.CreatedAt, inst.UpdatedAt, inst.OwnerId,
	)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (s *PostgresStore) List(ctx context.Context, ownerId string) ([]Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := s.pool.Query(ctx, query, ownerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Instance, 0)
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inst)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, ownerId, id string) (*Instance, error) {
	query := `SELECT ` + instanceColumns + ` FROM instances WHERE id = $1 AND owner_id = $2`
	rows, err := s.pool.Query(ctx, query, id, ownerId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanInstance(rows)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, ownerId, id string, next Status) (*Instance, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current Status
	err = tx.QueryRow(ctx,
		`SELECT status FROM instances WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		id, ownerId,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := current.CanTransitionTo(next); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx,
		`UPDATE instances SET status = $3, updated_at = $4 WHERE id = $1 AND owner_id = $2 RETURNING `+instanceColumns,
		id, ownerId, next, time.Now(),
	)
	if err != nil {
		return nil, err
	}

	if !rows.Next() {
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	inst, err := scanInstance(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *PostgresStore) AppendMetric(ctx context.Context, sample MetricSample) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Lock the instance row so concurrent appends for the same
	// instance serialize and keep timestamp order strict.
	var instanceId string
	err = tx.QueryRow(ctx,
		`SELECT id FROM instances WHERE id = $1 FOR UPDATE`,
		sample.InstanceId,
	).Scan(&instanceId)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	var last *time.Time
	err = tx.QueryRow(ctx,
		`SELECT MAX(timestamp) FROM metric_samples WHERE instance_id = $1`,
		sample.InstanceId,
	).Scan(&last)
	if err != nil {
		return err
	}
	if last != nil && !sample.Timestamp.After(*last) {
		sample.Timestamp = last.Add(time.Millisecond)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO metric_samples (id, instance_id, timestamp, cpu_usage_percent, memory_usage_percent, network_in_rate, network_out_rate)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sample.Id, sample.InstanceId, sample.Timestamp,
		sample.CpuUsagePercent, sample.MemoryUsagePercent,
		sample.NetworkInRate, sample.NetworkOutRate,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) RecentMetrics(ctx context.Context, instanceId string, limit int) ([]MetricSample, error) {
	query := `
		SELECT id, instance_id, timestamp, cpu_usage_percent, memory_usage_percent, network_in_rate, network_out_rate
		FROM metric_samples WHERE instance_id = $1
		ORDER BY timestamp DESC
	`
	args := []any{instanceId}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]MetricSample, 0, limit)
	for rows.Next() {
		var m MetricSample
		if err := rows.Scan(
			&m.Id, &m.InstanceId, &m.Timestamp,
			&m.CpuUsagePercent, &m.MemoryUsagePercent,
			&m.NetworkInRate, &m.NetworkOutRate,
		); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanInstance(rows pgx.Rows) (*Instance, error) {
	var inst Instance
	if err := rows.Scan(
		&inst.Id, &inst.ProviderInstanceId, &inst.Name, &inst.Status, &inst.InstanceClass,
		&inst.Location, &inst.StorageGiB, &inst.CpuCount, &inst.MemoryGiB,
		&inst.Ipv6Enabled, &inst.SshEnabled, &inst.Username,
		&inst.CreatedAt, &inst.UpdatedAt, &inst.OwnerId,
	); err != nil {
		return nil, err
	}
	return &inst, nil
}
