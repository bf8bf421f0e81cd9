package api

import (
	"github.com/miragehq/mirage/cmd/api/config"
	"github.com/miragehq/mirage/lib/controlplane"
)

// ApiService exposes the control plane over HTTP.
type ApiService struct {
	Config       *config.Config
	ControlPlane *controlplane.ControlPlane
}

// New creates a new ApiService
func New(config *config.Config, cp *controlplane.ControlPlane) *ApiService {
	return &ApiService{
		Config:       config,
		ControlPlane: cp,
	}
}
