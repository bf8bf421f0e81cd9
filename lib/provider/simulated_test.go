package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miragehq/mirage/lib/sampler"
	"github.com/miragehq/mirage/lib/store"
)

func newSimulated(t *testing.T) (*Simulated, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemory()
	return NewSimulated(st, sampler.New(), SimConfig{}), st
}

func launchReq(owner string) LaunchRequest {
	return LaunchRequest{
		OwnerId:       owner,
		Name:          "web-1",
		InstanceClass: "small",
	}
}

func TestSimulated_LaunchAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	result, err := sim.Launch(ctx, launchReq("owner-a"))
	require.NoError(t, err)

	inst := result.Instance
	assert.Equal(t, "us-east-1", inst.Location)
	assert.Equal(t, 20, inst.StorageGiB)
	assert.Equal(t, "admin", inst.Username)
	assert.Equal(t, store.StatusRunning, inst.Status)
	assert.False(t, result.KeyConfigured)
	assert.False(t, result.PasswordSet)
}

func TestSimulated_LaunchRespectsExplicitOptions(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	req := launchReq("owner-a")
	req.Location = "eu-west-2"
	req.StorageGiB = 100
	req.Username = "deploy"

	result, err := sim.Launch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-2", result.Instance.Location)
	assert.Equal(t, 100, result.Instance.StorageGiB)
	assert.Equal(t, "deploy", result.Instance.Username)
}

func TestSimulated_LaunchCredentialFlags(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	req := launchReq("owner-a")
	req.SshEnabled = true
	req.SshPublicKey = "ssh-ed25519 AAAA..."
	req.Password = "hunter2"

	result, err := sim.Launch(ctx, req)
	require.NoError(t, err)
	assert.True(t, result.KeyConfigured)
	assert.True(t, result.PasswordSet)

	// A key without ssh enabled does not count as configured.
	req2 := launchReq("owner-a")
	req2.SshPublicKey = "ssh-ed25519 AAAA..."
	result2, err := sim.Launch(ctx, req2)
	require.NoError(t, err)
	assert.False(t, result2.KeyConfigured)
}

func TestSimulated_LaunchValidationPropagates(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	req := launchReq("owner-a")
	req.Name = ""
	_, err := sim.Launch(ctx, req)
	assert.ErrorIs(t, err, store.ErrValidation)
}

func TestSimulated_TerminateAndListScoping(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	result, err := sim.Launch(ctx, launchReq("owner-a"))
	require.NoError(t, err)

	require.NoError(t, sim.Terminate(ctx, "owner-a", result.Instance.Id))

	list, err := sim.List(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, store.StatusTerminated, list[0].Status)

	// Second terminate is rejected here; idempotency is layered on by
	// the control plane, not the provider.
	err = sim.Terminate(ctx, "owner-a", result.Instance.Id)
	assert.ErrorIs(t, err, store.ErrInvalidTransition)

	err = sim.Terminate(ctx, "owner-b", result.Instance.Id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSimulated_StatsBackfillsOnFirstRead(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	sim := NewSimulated(st, sampler.New(), SimConfig{})

	// Create directly so no seed sample exists yet.
	inst, err := st.Create(ctx, store.CreateInstanceSpec{
		Name: "web-1", InstanceClass: "small", OwnerId: "owner-a",
	})
	require.NoError(t, err)

	before := time.Now()
	samples, err := sim.Stats(ctx, "owner-a", inst.Id)
	require.NoError(t, err)

	// Backfill produced a full window, capped at the stats limit.
	require.Len(t, samples, 10)
	for i, sample := range samples {
		assert.Equal(t, inst.Id, sample.InstanceId)
		assert.False(t, sample.Timestamp.After(time.Now()), "no future timestamps")
		if i > 0 {
			assert.True(t, sample.Timestamp.Before(samples[i-1].Timestamp), "newest first")
		}
	}
	// Newest backfill sample lands at read time.
	assert.False(t, samples[0].Timestamp.Before(before.Add(-time.Second)))
}

func TestSimulated_StatsAdvancesOnSubsequentReads(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	result, err := sim.Launch(ctx, launchReq("owner-a"))
	require.NoError(t, err)
	id := result.Instance.Id

	first, err := sim.Stats(ctx, "owner-a", id)
	require.NoError(t, err)
	second, err := sim.Stats(ctx, "owner-a", id)
	require.NoError(t, err)

	require.NotEmpty(t, first)
	require.NotEmpty(t, second)
	assert.False(t, second[0].Timestamp.Before(first[0].Timestamp),
		"polling must not move the series backwards")
}

func TestSimulated_StatsUnknownInstance(t *testing.T) {
	ctx := context.Background()
	sim, _ := newSimulated(t)

	_, err := sim.Stats(ctx, "owner-a", "no-such-id")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
