package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miragehq/mirage/lib/store"
)

func TestReal_ListMapsDescriptors(t *testing.T) {
	launched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/instances", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("X-Access-Key-Id"))
		assert.Equal(t, "sk", r.Header.Get("X-Secret-Access-Key"))

		storage := 50
		_ = json.NewEncoder(w).Encode([]instanceDescriptor{
			{
				InstanceId:   "i-abc123",
				Tags:         map[string]string{"Name": "web-1"},
				State:        "running",
				InstanceType: "medium",
				LaunchTime:   launched,
				Ipv6Enabled:  true,
				Username:     "deploy",
				StorageGiB:   &storage,
			},
			{
				InstanceId:   "i-def456",
				State:        "stopped",
				InstanceType: "exotic-class",
			},
		})
	}))
	defer srv.Close()

	client := NewReal(srv.URL, "ak", "sk", time.Second)
	instances, err := client.List(context.Background(), "owner-a")
	require.NoError(t, err)
	require.Len(t, instances, 2)

	first := instances[0]
	assert.Equal(t, "i-abc123", first.Id)
	assert.Equal(t, "i-abc123", first.ProviderInstanceId)
	assert.Equal(t, "web-1", first.Name)
	assert.Equal(t, store.StatusRunning, first.Status)
	assert.Equal(t, 2, first.CpuCount)
	assert.Equal(t, 4, first.MemoryGiB)
	assert.Equal(t, 50, first.StorageGiB)
	assert.Equal(t, "deploy", first.Username)
	assert.Equal(t, "owner-a", first.OwnerId)
	assert.Equal(t, launched, first.CreatedAt)

	// Absent fields get simulation-equivalent defaults.
	second := instances[1]
	assert.Equal(t, "i-def456", second.Name, "name falls back to instance id")
	assert.Equal(t, store.StatusStopped, second.Status)
	assert.Equal(t, 20, second.StorageGiB)
	assert.Equal(t, "admin", second.Username)
	assert.Equal(t, 1, second.CpuCount, "unknown class gets default shape")
}

func TestReal_StateMapping(t *testing.T) {
	tests := []struct {
		state string
		want  store.Status
	}{
		{"pending", store.StatusRunning},
		{"running", store.StatusRunning},
		{"rebooting", store.StatusRunning},
		{"stopping", store.StatusStopped},
		{"stopped", store.StatusStopped},
		{"shutting-down", store.StatusTerminated},
		{"terminated", store.StatusTerminated},
		{"weird-new-state", store.StatusStopped},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			assert.Equal(t, tt.want, mapProviderState(tt.state))
		})
	}
}

func TestReal_LaunchSendsRequestAndMergesOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/instances", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "large", body["instance_type"])
		assert.Equal(t, "ssh-ed25519 AAAA...", body["ssh_public_key"])

		_ = json.NewEncoder(w).Encode(instanceDescriptor{
			InstanceId:   "i-new",
			State:        "pending",
			InstanceType: "large",
		})
	}))
	defer srv.Close()

	client := NewReal(srv.URL, "ak", "sk", time.Second)
	result, err := client.Launch(context.Background(), LaunchRequest{
		OwnerId:       "owner-a",
		Name:          "db-1",
		InstanceClass: "large",
		StorageGiB:    200,
		SshEnabled:    true,
		Username:      "deploy",
		SshPublicKey:  "ssh-ed25519 AAAA...",
		Password:      "hunter2",
	})
	require.NoError(t, err)

	assert.Equal(t, store.StatusRunning, result.Instance.Status, "pending folds into running")
	assert.Equal(t, 200, result.Instance.StorageGiB, "caller storage wins over default")
	assert.Equal(t, "deploy", result.Instance.Username)
	assert.True(t, result.Instance.SshEnabled)
	assert.True(t, result.KeyConfigured)
	assert.True(t, result.PasswordSet)
}

func TestReal_ErrorsWrapUnavailable(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := NewReal(srv.URL, "ak", "sk", time.Second)
		_, err := client.List(context.Background(), "owner-a")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		client := NewReal(srv.URL, "ak", "sk", time.Second)
		_, err := client.Stats(context.Background(), "owner-a", "i-abc")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("connection refused", func(t *testing.T) {
		// Grab a port that is guaranteed closed.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewReal(srv.URL, "ak", "sk", time.Second)
		err := client.Terminate(context.Background(), "owner-a", "i-abc")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
