package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/miragehq/mirage/lib/logger"
	"github.com/miragehq/mirage/lib/middleware"
	"github.com/miragehq/mirage/lib/provider"
	"github.com/miragehq/mirage/lib/store"
)

// launchRequest is the POST /instances body.
type launchRequest struct {
	Name          string `json:"name"`
	InstanceClass string `json:"instance_class"`
	Location      string `json:"location"`
	StorageGiB    int    `json:"storage_gib"`
	Ipv6Enabled   bool   `json:"ipv6_enabled"`
	SshEnabled    bool   `json:"ssh_enabled"`
	Username      string `json:"username"`
	SshPublicKey  string `json:"ssh_public_key"`
	Password      string `json:"password"`
}

// metricPointResponse is the wire shape for one utilization sample.
// Internal ids stay internal.
type metricPointResponse struct {
	Timestamp          time.Time `json:"timestamp"`
	CpuUsagePercent    float64   `json:"cpu_usage_percent"`
	MemoryUsagePercent float64   `json:"memory_usage_percent"`
	NetworkInRate      float64   `json:"network_in_rate"`
	NetworkOutRate     float64   `json:"network_out_rate"`
}

// ListInstancesHandler handles GET /instances
func (s *ApiService) ListInstancesHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	ownerId := middleware.OwnerFromContext(ctx)

	instances, err := s.ControlPlane.ListInstances(ctx, ownerId)
	if err != nil {
		log.ErrorContext(ctx, "failed to list instances", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list instances")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instances": instances,
		"count":     len(instances),
	})
}

// LaunchInstanceHandler handles POST /instances
func (s *ApiService) LaunchInstanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	ownerId := middleware.OwnerFromContext(ctx)

	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	result, err := s.ControlPlane.LaunchInstance(ctx, provider.LaunchRequest{
		OwnerId:       ownerId,
		Name:          req.Name,
		InstanceClass: req.InstanceClass,
		Location:      req.Location,
		StorageGiB:    req.StorageGiB,
		Ipv6Enabled:   req.Ipv6Enabled,
		SshEnabled:    req.SshEnabled,
		Username:      req.Username,
		SshPublicKey:  req.SshPublicKey,
		Password:      req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrValidation):
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		default:
			log.ErrorContext(ctx, "failed to launch instance", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to launch instance")
		}
		return
	}

	log.InfoContext(ctx, "instance launched",
		"instance_id", result.Instance.Id,
		"instance_class", result.Instance.InstanceClass)
	writeJSON(w, http.StatusCreated, result)
}

// TerminateInstanceHandler handles DELETE /instances/{id}
func (s *ApiService) TerminateInstanceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	ownerId := middleware.OwnerFromContext(ctx)
	id := chi.URLParam(r, "id")

	if err := s.ControlPlane.TerminateInstance(ctx, ownerId, id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "instance not found")
		case errors.Is(err, store.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "invalid_transition", err.Error())
		default:
			log.ErrorContext(ctx, "failed to terminate instance", "instance_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to terminate instance")
		}
		return
	}

	log.InfoContext(ctx, "instance terminated", "instance_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// InstanceStatsHandler handles GET /instances/{id}/stats
func (s *ApiService) InstanceStatsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	ownerId := middleware.OwnerFromContext(ctx)
	id := chi.URLParam(r, "id")

	samples, err := s.ControlPlane.InstanceStats(ctx, ownerId, id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", "instance not found")
		default:
			log.ErrorContext(ctx, "failed to fetch instance stats", "instance_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to fetch instance stats")
		}
		return
	}

	points := lo.Map(samples, func(s store.MetricSample, _ int) metricPointResponse {
		return metricPointResponse{
			Timestamp:          s.Timestamp,
			CpuUsagePercent:    s.CpuUsagePercent,
			MemoryUsagePercent: s.MemoryUsagePercent,
			NetworkInRate:      s.NetworkInRate,
			NetworkOutRate:     s.NetworkOutRate,
		}
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"instance_id": id,
		"samples":     points,
	})
}
