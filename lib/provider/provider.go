// Package provider abstracts the source that services control-plane
// actions: an upstream cloud API or the local simulation. Callers never
// see which variant produced a result.
package provider

import (
	"context"

	"github.com/miragehq/mirage/lib/store"
)

// Provider services control-plane actions from one source. Both
// variants return the same normalized shapes.
type Provider interface {
	List(ctx context.Context, ownerId string) ([]store.Instance, error)
	Launch(ctx context.Context, req LaunchRequest) (*LaunchResult, error)
	Terminate(ctx context.Context, ownerId, id string) error
	Stats(ctx context.Context, ownerId, instanceId string) ([]store.MetricSample, error)
}

// LaunchRequest carries caller-supplied launch options before
// defaulting. Credential material is consumed for flag derivation only
// and never persisted or echoed back.
type LaunchRequest struct {
	OwnerId       string
	Name          string
	InstanceClass string
	Location      string
	StorageGiB    int
	Ipv6Enabled   bool
	SshEnabled    bool
	Username      string
	SshPublicKey  string
	Password      string
}

// LaunchResult is the normalized launch response. KeyConfigured and
// PasswordSet stand in for the raw credential values.
type LaunchResult struct {
	Instance      store.Instance `json:"instance"`
	KeyConfigured bool           `json:"key_configured"`
	PasswordSet   bool           `json:"password_set"`
}

// keyConfigured reports whether the launch should advertise an SSH key
// as configured.
func (r LaunchRequest) keyConfigured() bool {
	return r.SshEnabled && r.SshPublicKey != ""
}

// passwordSet reports whether a password was supplied.
func (r LaunchRequest) passwordSet() bool {
	return r.Password != ""
}
