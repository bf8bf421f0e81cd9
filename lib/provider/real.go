package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/miragehq/mirage/lib/catalog"
	"github.com/miragehq/mirage/lib/store"
	"github.com/nrednav/cuid2"
)

// Defaults filled in for fields the upstream provider does not expose,
// so the normalized shape is uniform regardless of source.
const (
	defaultStorageGiB = 20
	defaultUsername   = "admin"
)

// Real delegates control-plane actions to an upstream cloud API over
// HTTP. Every failure is wrapped in ErrUnavailable; the caller decides
// whether to mask it.
type Real struct {
	baseURL     string
	accessKeyId string
	secretKey   string
	http        *http.Client
}

// NewReal creates a client for the upstream provider API. The timeout
// bounds every call; there is no scenario where a request blocks
// indefinitely.
func NewReal(baseURL, accessKeyId, secretKey string, timeout time.Duration) *Real {
	return &Real{
		baseURL:     baseURL,
		accessKeyId: accessKeyId,
		secretKey:   secretKey,
		http:        &http.Client{Timeout: timeout},
	}
}

var _ Provider = (*Real)(nil)

// instanceDescriptor is the upstream provider's instance shape.
type instanceDescriptor struct {
	InstanceId   string            `json:"instance_id"`
	Tags         map[string]string `json:"tags"`
	State        string            `json:"state"`
	InstanceType string            `json:"instance_type"`
	LaunchTime   time.Time         `json:"launch_time"`
	Placement    struct {
		AvailabilityZone string `json:"availability_zone"`
	} `json:"placement"`
	Ipv6Enabled bool   `json:"ipv6_enabled"`
	Username    string `json:"username"`
	StorageGiB  *int   `json:"storage_gib"`
}

// metricPoint is the upstream provider's utilization reading.
type metricPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	CpuUsagePercent    float64   `json:"cpu_usage_percent"`
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	NetworkInRate      float64   `json:"network_in_rate"`
	NetworkOutRate     float64   `json:"network_out_rate"`
}

func (r *Real) List(ctx context.Context, ownerId string) ([]store.Instance, error) {
	var descriptors []instanceDescriptor
	if err := r.do(ctx, http.MethodGet, "/v1/instances", nil, &descriptors); err != nil {
		return nil, err
	}

	result := make([]store.Instance, 0, len(descriptors))
	for _, d := range descriptors {
		result = append(result, r.toInstance(d, ownerId))
	}
	return result, nil
}

func (r *Real) Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error) {
	body := map[string]any{
		"instance_type":     req.InstanceClass,
		"availability_zone": req.Location,
		"ipv6_enabled":      req.Ipv6Enabled,
		"tags":              map[string]string{"Name": req.Name},
	}
	if req.SshEnabled && req.SshPublicKey != "" {
		body["ssh_public_key"] = req.SshPublicKey
	}

	var d instanceDescriptor
	if err := r.do(ctx, http.MethodPost, "/v1/instances", body, &d); err != nil {
		return nil, err
	}

	inst := r.toInstance(d, req.OwnerId)
	if req.StorageGiB > 0 {
		inst.StorageGiB = req.StorageGiB
	}
	inst.SshEnabled = req.SshEnabled
	if req.Username != "" {
		inst.Username = req.Username
	}

	return &LaunchResult{
		Instance:      inst,
		KeyConfigured: req.keyConfigured(),
		PasswordSet:   req.passwordSet(),
	}, nil
}

func (r *Real) Terminate(ctx context.Context, ownerId, id string) error {
	return r.do(ctx, http.MethodDelete, "/v1/instances/"+id, nil, nil)
}

func (r *Real) Stats(ctx context.Context, ownerId, instanceId string) ([]store.MetricSample, error) {
	var points []metricPoint
	if err := r.do(ctx, http.MethodGet, "/v1/instances/"+instanceId+"/metrics", nil, &points); err != nil {
		return nil, err
	}

	result := make([]store.MetricSample, 0, len(points))
	for _, p := range points {
		result = append(result, store.MetricSample{
			Id:                 cuid2.Generate(),
			InstanceId:         instanceId,
			Timestamp:          p.Timestamp,
			CpuUsagePercent:    p.CpuUsagePercent,
			MemoryUsagePercent: p.MemoryUsagePercent,
			NetworkInRate:      p.NetworkInRate,
			NetworkOutRate:     p.NetworkOutRate,
		})
	}
	return result, nil
}

// toInstance maps a provider descriptor into the normalized shape,
// filling simulation-equivalent defaults for absent fields.
func (r *Real) toInstance(d instanceDescriptor, ownerId string) store.Instance {
	shape := catalog.Lookup(d.InstanceType)

	storage := defaultStorageGiB
	if d.StorageGiB != nil {
		storage = *d.StorageGiB
	}
	username := d.Username
	if username == "" {
		username = defaultUsername
	}
	name := d.Tags["Name"]
	if name == "" {
		name = d.InstanceId
	}

	return store.Instance{
		Id:                 d.InstanceId,
		ProviderInstanceId: d.InstanceId,
		Name:               name,
		Status:             mapProviderState(d.State),
		InstanceClass:      d.InstanceType,
		Location:           d.Placement.AvailabilityZone,
		StorageGiB:         storage,
		CpuCount:           shape.CPUCount,
		MemoryGiB:          shape.MemoryGiB,
		Ipv6Enabled:        d.Ipv6Enabled,
		SshEnabled:         false,
		Username:           username,
		CreatedAt:          d.LaunchTime,
		UpdatedAt:          d.LaunchTime,
		OwnerId:            ownerId,
	}
}

// mapProviderState folds the upstream provider's state vocabulary into
// the three-state lifecycle.
func mapProviderState(state string) store.Status {
	switch state {
	case "pending", "running", "rebooting":
		return store.StatusRunning
	case "stopping", "stopped":
		return store.StatusStopped
	case "shutting-down", "terminated":
		return store.StatusTerminated
	default:
		return store.StatusStopped
	}
}

// do executes one request against the upstream API. Any transport
// error, non-2xx status, or undecodable body becomes ErrUnavailable.
func (r *Real) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	req.Header.Set("X-Access-Key-Id", r.accessKeyId)
	req.Header.Set("X-Secret-Access-Key", r.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: upstream returned status %d", ErrUnavailable, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
		}
	}
	return nil
}
