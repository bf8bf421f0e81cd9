package store

import "time"

// Status is the lifecycle state of an instance.
type Status string

const (
	StatusRunning    Status = "running"
	StatusStopped    Status = "stopped"
	StatusTerminated Status = "terminated"
)

// Instance is the normalized compute instance record. The same shape is
// returned regardless of whether it originated from the upstream
// provider or the local simulation.
type Instance struct {
	Id                 string    `json:"id"`
	ProviderInstanceId string    `json:"provider_instance_id"`
	Name               string    `json:"name"`
	Status             Status    `json:"status"`
	InstanceClass      string    `json:"instance_class"`
	Location           string    `json:"location"`
	StorageGiB         int       `json:"storage_gib"`
	CpuCount           int       `json:"cpu_count"`
	MemoryGiB          int       `json:"memory_gib"`
	Ipv6Enabled        bool      `json:"ipv6_enabled"`
	SshEnabled         bool      `json:"ssh_enabled"`
	Username           string    `json:"username"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
	OwnerId            string    `json:"owner_id"`
}

// MetricSample is one timestamped utilization reading for an instance.
type MetricSample struct {
	Id                 string    `json:"id"`
	InstanceId         string    `json:"instance_id"`
	Timestamp          time.Time `json:"timestamp"`
	CpuUsagePercent    float64   `json:"cpu_usage_percent"`
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	NetworkInRate      float64   `json:"network_in_rate"`
	NetworkOutRate     float64   `json:"network_out_rate"`
}

// CreateInstanceSpec carries the launch-time configuration for a new
// instance. Name and InstanceClass are required; everything else has
// been defaulted by the caller.
type CreateInstanceSpec struct {
	Name               string
	InstanceClass      string
	Location           string
	StorageGiB         int
	Ipv6Enabled        bool
	SshEnabled         bool
	Username           string
	OwnerId            string
	ProviderInstanceId string
}
